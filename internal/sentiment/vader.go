package sentiment

import (
	"context"

	"github.com/jonreiter/govader"

	"github.com/spacesedan/threatwatch/internal/models"
)

// NegativeThreshold is the compound score at or below which a text is
// NEGATIVE.
const NegativeThreshold = -0.20

// Vader scores text with the VADER lexicon. It needs no external service.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the VADER compound score of text after markdown cleanup.
func (v *Vader) Score(text string) float64 {
	return v.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound
}

func (v *Vader) Classify(ctx context.Context, text string) (models.ThreatType, error) {
	if err := ctx.Err(); err != nil {
		return models.ThreatUnknown, err
	}
	if v.Score(text) <= NegativeThreshold {
		return models.ThreatNegative, nil
	}
	return models.ThreatNonNegative, nil
}

// Label buckets a compound score into positive, neutral or negative.
func Label(score float64) string {
	switch {
	case score >= -NegativeThreshold:
		return "positive"
	case score <= NegativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}
