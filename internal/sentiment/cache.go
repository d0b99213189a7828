package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/spacesedan/threatwatch/internal/models"
)

// Cache stores classification labels by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Cached wraps a Classifier with a result cache. Cache failures fall back to
// the wrapped classifier.
type Cached struct {
	next  Classifier
	cache Cache
	ttl   time.Duration
}

func NewCached(next Classifier, cache Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl}
}

// CacheKey derives the cache key of a text.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sentiment:" + hex.EncodeToString(sum[:])
}

func (c *Cached) Classify(ctx context.Context, text string) (models.ThreatType, error) {
	key := CacheKey(text)

	label, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("[SentimentCache] Lookup failed", slog.String("error", err.Error()))
	}
	if ok {
		if threat, valid := models.ParseThreatType(label); valid {
			return threat, nil
		}
	}

	threat, err := c.next.Classify(ctx, text)
	if err != nil {
		return threat, err
	}

	if c.ttl <= 0 {
		return threat, nil
	}
	if err := c.cache.Set(ctx, key, threat.String(), c.ttl); err != nil {
		slog.Warn("[SentimentCache] Store failed", slog.String("error", err.Error()))
	}
	return threat, nil
}

// HealthCheck delegates to the wrapped classifier when it has one.
func (c *Cached) HealthCheck(ctx context.Context) bool {
	if hc, ok := c.next.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return true
}
