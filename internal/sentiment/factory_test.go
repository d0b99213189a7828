package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/threatwatch/internal/models"
)

func TestNewBackends(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	assert.IsType(t, &Vader{}, c)

	c, err = New(Options{Backend: BackendRemote, Remote: RemoteConfig{URL: "http://localhost:9/analyze"}})
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, c)

	_, err = New(Options{Backend: BackendOpenAI})
	assert.Error(t, err)

	_, err = New(Options{Backend: "crystal-ball"})
	assert.Error(t, err)
}

type slowClassifier struct{}

func (slowClassifier) Classify(ctx context.Context, _ string) (models.ThreatType, error) {
	select {
	case <-ctx.Done():
		return models.ThreatUnknown, ctx.Err()
	case <-time.After(time.Second):
		return models.ThreatNegative, nil
	}
}

func TestWithTimeout(t *testing.T) {
	c := WithTimeout(slowClassifier{}, 10*time.Millisecond)

	_, err := c.Classify(context.Background(), "I hate Merck")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, slowClassifier{}, WithTimeout(slowClassifier{}, 0))
}
