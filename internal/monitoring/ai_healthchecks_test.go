package monitoring

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spacesedan/threatwatch/internal/models"
	"github.com/spacesedan/threatwatch/internal/sentiment"
)

type probedClassifier struct {
	healthy atomic.Bool
	probes  atomic.Int32
}

func (p *probedClassifier) Classify(context.Context, string) (models.ThreatType, error) {
	return models.ThreatNonNegative, nil
}

func (p *probedClassifier) HealthCheck(context.Context) bool {
	p.probes.Add(1)
	return p.healthy.Load()
}

func TestMonitorClassifierHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &probedClassifier{}
	var status ClassifierStatus
	assert.Equal(t, "Unknown", status.String())

	done := make(chan struct{})
	go func() {
		MonitorClassifierHealth(ctx, c, 5*time.Millisecond, &status, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return status.String() == "Unhealthy" }, time.Second, time.Millisecond)

	c.healthy.Store(true)
	assert.Eventually(t, func() bool { return status.Healthy() }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
	assert.GreaterOrEqual(t, c.probes.Load(), int32(2))
}

func TestMonitorWithoutHealthCheck(t *testing.T) {
	var status ClassifierStatus
	MonitorClassifierHealth(context.Background(), sentiment.NewVader(), time.Second, &status, nil)
	assert.Equal(t, "Healthy", status.String())
}
