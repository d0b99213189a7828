package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/threatwatch/internal/metrics"
	"github.com/spacesedan/threatwatch/internal/sentiment"
)

const DefaultInterval = 15 * time.Second

// ClassifierStatus is the last known health of the sentiment backend.
type ClassifierStatus struct {
	healthy atomic.Bool
	checked atomic.Bool
}

// String renders the status for the health endpoint.
func (s *ClassifierStatus) String() string {
	switch {
	case !s.checked.Load():
		return "Unknown"
	case s.healthy.Load():
		return "Healthy"
	default:
		return "Unhealthy"
	}
}

func (s *ClassifierStatus) Healthy() bool {
	return s.healthy.Load()
}

func (s *ClassifierStatus) set(healthy bool) {
	s.healthy.Store(healthy)
	s.checked.Store(true)
}

// MonitorClassifierHealth probes classifier every interval until ctx ends.
// Backends without an external dependency are always healthy.
func MonitorClassifierHealth(ctx context.Context, classifier sentiment.Classifier, interval time.Duration, status *ClassifierStatus, m *metrics.Metrics) {
	checker, ok := classifier.(sentiment.HealthChecker)
	if !ok {
		status.set(true)
		m.SetClassifierUp(true)
		return
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		isHealthy := checker.HealthCheck(probeCtx)
		status.set(isHealthy)
		m.SetClassifierUp(isHealthy)
		if !isHealthy {
			slog.Warn("[HealthCheck] Classifier is unhealthy")
		}
	}

	probe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
