package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/spacesedan/threatwatch/internal/models"
)

const (
	BackendVader       = "vader"
	BackendRemote      = "remote"
	BackendOpenAI      = "openai"
	BackendTransformer = "transformer"
)

// Options selects and configures a classifier backend.
type Options struct {
	Backend  string
	Timeout  time.Duration
	Remote   RemoteConfig
	OpenAI   OpenAIConfig
	Model    string
	ModelDir string
}

// New builds the configured backend.
func New(opts Options) (Classifier, error) {
	switch opts.Backend {
	case "", BackendVader:
		return NewVader(), nil
	case BackendRemote:
		cfg := opts.Remote
		if cfg.Timeout == 0 {
			cfg.Timeout = opts.Timeout
		}
		return NewRemote(cfg)
	case BackendOpenAI:
		cfg := opts.OpenAI
		if cfg.Timeout == 0 {
			cfg.Timeout = opts.Timeout
		}
		return NewOpenAI(cfg)
	case BackendTransformer:
		return NewTransformer(opts.Model, opts.ModelDir)
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", opts.Backend)
	}
}

// Bounded limits every call of the wrapped classifier to a timeout.
type Bounded struct {
	next    Classifier
	timeout time.Duration
}

func WithTimeout(next Classifier, timeout time.Duration) Classifier {
	if timeout <= 0 {
		return next
	}
	return &Bounded{next: next, timeout: timeout}
}

func (b *Bounded) Classify(ctx context.Context, text string) (models.ThreatType, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.Classify(ctx, text)
}

func (b *Bounded) HealthCheck(ctx context.Context) bool {
	if hc, ok := b.next.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return true
}
