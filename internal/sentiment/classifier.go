// Package sentiment decides whether a text expresses a negative, threatening
// sentiment.
package sentiment

import (
	"context"

	"github.com/spacesedan/threatwatch/internal/models"
)

// Classifier labels a text NEGATIVE or NONNEGATIVE.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.ThreatType, error)
}

// HealthChecker is implemented by backends that depend on an external
// service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// FromLabel maps a backend sentiment label to a threat type. Only a
// negative label is a threat.
func FromLabel(label string) models.ThreatType {
	switch normalizeLabel(label) {
	case "negative", "neg":
		return models.ThreatNegative
	default:
		return models.ThreatNonNegative
	}
}
