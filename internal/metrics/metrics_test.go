package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RawSubmitted("added")
	m.RawSubmitted("added")
	m.RawSubmitted("duplicate")
	m.ClassificationOutcome("threat")
	m.BatchRow("invalid")
	m.Classified(10*time.Millisecond, nil)
	m.Classified(10*time.Millisecond, errors.New("timeout"))
	m.SetClassifierUp(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RawSubmissions.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RawSubmissions.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InstantResults.WithLabelValues("threat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchRows.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClassifyFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClassifierUp))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RawSubmitted("added")
		m.ClassificationOutcome("threat")
		m.BatchRow("added")
		m.Classified(time.Second, nil)
		m.SetClassifierUp(false)
		m.ObserveRequest("GET", "/healthstatus", "200", time.Millisecond)
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RawSubmitted("added")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `threatwatch_raw_submissions_total{result="added"} 1`)
}
