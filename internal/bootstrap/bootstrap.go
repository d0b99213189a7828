// Package bootstrap assembles the store, classifier and pipeline from the
// process configuration.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spacesedan/threatwatch/config"
	"github.com/spacesedan/threatwatch/internal/clients"
	"github.com/spacesedan/threatwatch/internal/db"
	"github.com/spacesedan/threatwatch/internal/geofence"
	"github.com/spacesedan/threatwatch/internal/metrics"
	"github.com/spacesedan/threatwatch/internal/pipeline"
	"github.com/spacesedan/threatwatch/internal/relevance"
	"github.com/spacesedan/threatwatch/internal/sentiment"
)

// App holds the wired components of a process.
type App struct {
	Store      db.Store
	Classifier sentiment.Classifier
	Service    *pipeline.Service

	closers []func()
}

// New opens the configured store, builds the classifier chain and the
// pipeline service. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*App, error) {
	app := &App{}

	store, err := app.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	classifier, err := app.buildClassifier(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Classifier = classifier

	fence, err := geofence.New(cfg.Facilities)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("facilities: %w", err)
	}
	rel, err := relevance.New(cfg.Entity)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("entity: %w", err)
	}

	app.Service = pipeline.NewService(store, fence, rel, classifier, pipeline.WithMetrics(m))
	slog.Info("[Bootstrap] Pipeline ready",
		slog.String("store", cfg.StoreBackend),
		slog.String("classifier", cfg.Classifier.Backend),
		slog.String("entity", rel.EntityName()),
		slog.Int("facilities", len(fence.Facilities())))
	return app, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		slog.Warn("[Bootstrap] Using in-memory store, records are lost on exit")
		return db.NewMemory(), nil
	}

	dsn := cfg.Postgres.ConnString()
	if err := db.Migrate(dsn, "up"); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pool, err := clients.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	store := db.NewPostgres(pool)
	a.closers = append(a.closers, store.Close)
	return store, nil
}

func (a *App) buildClassifier(cfg *config.Config) (sentiment.Classifier, error) {
	base, err := sentiment.New(cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if closer, ok := base.(io.Closer); ok {
		a.closers = append(a.closers, func() {
			if err := closer.Close(); err != nil {
				slog.Warn("[Bootstrap] Failed to close classifier", slog.String("error", err.Error()))
			}
		})
	}

	classifier := sentiment.WithTimeout(base, cfg.Classifier.Timeout)
	if cfg.Valkey.Address == "" || cfg.CacheTTL <= 0 {
		return classifier, nil
	}

	vc, err := clients.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("[Bootstrap] Sentiment cache unavailable, classifying without it",
			slog.String("error", err.Error()))
		return classifier, nil
	}
	a.closers = append(a.closers, vc.Close)
	return sentiment.NewCached(classifier, vc, cfg.CacheTTL), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
