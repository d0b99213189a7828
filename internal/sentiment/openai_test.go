package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/threatwatch/internal/models"
)

func newChatServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClassify(t *testing.T) {
	tests := []struct {
		answer string
		want   models.ThreatType
	}{
		{"NEGATIVE", models.ThreatNegative},
		{"nonnegative.", models.ThreatNonNegative},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			srv := newChatServer(t, tt.answer)
			o, err := NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: srv.URL + "/v1", Timeout: time.Second})
			require.NoError(t, err)

			got, err := o.Classify(context.Background(), "I hate Merck")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenAIUnexpectedAnswer(t *testing.T) {
	srv := newChatServer(t, "maybe")
	o, err := NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = o.Classify(context.Background(), "I hate Merck")
	assert.Error(t, err)
}

func TestOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)
}
