package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/threatwatch/internal/clients"
	"github.com/spacesedan/threatwatch/internal/geofence"
	"github.com/spacesedan/threatwatch/internal/relevance"
	"github.com/spacesedan/threatwatch/internal/sentiment"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config is the process configuration read from the environment.
type Config struct {
	HTTPPort            string
	LogLevel            string
	StoreBackend        string
	Postgres            clients.PostgresConfig
	Valkey              clients.ValkeyConfig
	CacheTTL            time.Duration
	Classifier          sentiment.Options
	Entity              relevance.Entity
	Facilities          []geofence.Facility
	HealthcheckInterval time.Duration
}

// Load reads the configuration. Invalid values are reported as errors.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", StoreBackendPostgres),
		Postgres: clients.PostgresConfig{
			DSN:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Valkey: clients.ValkeyConfig{
			Address:  os.Getenv("VALKEY_INIT_ADDRESS"),
			Password: os.Getenv("VALKEY_PASSWORD"),
			TLS:      os.Getenv("VALKEY_TLS") == "true",
		},
	}

	if cfg.StoreBackend != StoreBackendPostgres && cfg.StoreBackend != StoreBackendMemory {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q",
			StoreBackendPostgres, StoreBackendMemory, cfg.StoreBackend)
	}

	var err error
	if cfg.CacheTTL, err = getDuration("SENTIMENT_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HealthcheckInterval, err = getDuration("HEALTHCHECK_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}

	timeout, err := getDuration("CLASSIFIER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Classifier = sentiment.Options{
		Backend: getEnv("CLASSIFIER_BACKEND", sentiment.BackendVader),
		Timeout: timeout,
		Remote: sentiment.RemoteConfig{
			URL:          os.Getenv("CLASSIFIER_URL"),
			Token:        os.Getenv("CLASSIFIER_TOKEN"),
			ClientID:     os.Getenv("CLASSIFIER_CLIENT_ID"),
			ClientSecret: os.Getenv("CLASSIFIER_CLIENT_SECRET"),
			TokenURL:     os.Getenv("CLASSIFIER_TOKEN_URL"),
		},
		OpenAI: sentiment.OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  os.Getenv("OPENAI_MODEL"),
		},
		Model:    os.Getenv("TRANSFORMER_MODEL"),
		ModelDir: getEnv("TRANSFORMER_MODEL_DIR", "./models"),
	}

	if cfg.Entity, err = parseEntity(os.Getenv("ENTITY_NAME"), os.Getenv("ENTITY_KEYWORDS")); err != nil {
		return nil, err
	}

	cfg.Facilities = geofence.DefaultFacilities
	if raw := os.Getenv("FACILITIES"); raw != "" {
		if cfg.Facilities, err = ParseFacilities(raw); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

// parseEntity builds the monitored entity. Without ENTITY_KEYWORDS the
// default entity keeps its product list and any other entity gets none.
func parseEntity(name, keywords string) (relevance.Entity, error) {
	entity := relevance.DefaultEntity
	if name != "" && name != entity.Name {
		entity = relevance.Entity{Name: name, Keywords: map[string]string{}}
	}
	if keywords == "" {
		return entity, nil
	}

	parsed, err := ParseKeywords(keywords)
	if err != nil {
		return relevance.Entity{}, err
	}
	entity.Keywords = parsed
	return entity, nil
}

// ParseKeywords parses "alias=category,alias=category". A bare alias gets the
// category "product".
func ParseKeywords(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		alias, category, found := strings.Cut(part, "=")
		alias, category = strings.TrimSpace(alias), strings.TrimSpace(category)
		if alias == "" {
			return nil, fmt.Errorf("ENTITY_KEYWORDS: empty alias in %q", part)
		}
		if !found || category == "" {
			category = "product"
		}
		out[alias] = category
	}
	return out, nil
}

// ParseFacilities parses "name:lat:lon:radius_km;...".
func ParseFacilities(s string) ([]geofence.Facility, error) {
	var out []geofence.Facility
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 4 {
			return nil, fmt.Errorf("FACILITIES: %q must be name:lat:lon:radius_km", part)
		}

		var nums [3]float64
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("FACILITIES: %q: %w", part, err)
			}
			nums[i] = v
		}
		out = append(out, geofence.Facility{
			Name:     strings.TrimSpace(fields[0]),
			Lat:      nums[0],
			Lon:      nums[1],
			RadiusKm: nums[2],
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("FACILITIES: no facilities in %q", s)
	}
	return out, nil
}
