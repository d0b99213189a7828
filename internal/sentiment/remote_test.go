package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/threatwatch/internal/models"
)

func newSentimentServer(t *testing.T, failures int32, label string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/analyze_batch", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if n <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var req models.SentimentAnalysisBatchRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_ = json.NewEncoder(w).Encode(models.SentimentAnalysisBatchResponse{{
			ContentID:      req[0].ContentID,
			SentimentLabel: label,
			SentimentScore: -0.9,
			Confidence:     0.97,
		}})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !assert.True(t, ok) || !assert.Equal(t, "threatwatch", id) || !assert.Equal(t, "s3cret", secret) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"secret","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRemoteClassify(t *testing.T) {
	srv, calls := newSentimentServer(t, 0, "negative")

	r, err := NewRemote(RemoteConfig{URL: srv.URL + "/analyze_batch", Token: "secret", Timeout: time.Second})
	require.NoError(t, err)

	got, err := r.Classify(context.Background(), "I hate Merck")
	require.NoError(t, err)
	assert.Equal(t, models.ThreatNegative, got)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, r.HealthCheck(context.Background()))
}

func TestRemoteClientCredentials(t *testing.T) {
	srv, calls := newSentimentServer(t, 0, "positive")

	r, err := NewRemote(RemoteConfig{
		URL:          srv.URL + "/analyze_batch",
		ClientID:     "threatwatch",
		ClientSecret: "s3cret",
		TokenURL:     srv.URL + "/token",
		Timeout:      time.Second,
	})
	require.NoError(t, err)

	got, err := r.Classify(context.Background(), "I love Merck")
	require.NoError(t, err)
	assert.Equal(t, models.ThreatNonNegative, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemoteRetriesServerErrors(t *testing.T) {
	srv, calls := newSentimentServer(t, 2, "positive")

	r, err := NewRemote(RemoteConfig{
		URL:            srv.URL + "/analyze_batch",
		Token:          "secret",
		Timeout:        time.Second,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, err)

	got, err := r.Classify(context.Background(), "I love Merck")
	require.NoError(t, err)
	assert.Equal(t, models.ThreatNonNegative, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRemoteGivesUp(t *testing.T) {
	srv, calls := newSentimentServer(t, 10, "negative")

	r, err := NewRemote(RemoteConfig{
		URL:            srv.URL + "/analyze_batch",
		Token:          "secret",
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, err)

	_, err = r.Classify(context.Background(), "I hate Merck")
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemoteRequiresURL(t *testing.T) {
	_, err := NewRemote(RemoteConfig{})
	assert.Error(t, err)
}
