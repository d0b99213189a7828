package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/threatwatch/internal/models"
)

const DefaultTransformerModel = "KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"

// Transformer runs a local ONNX text classification model through hugot.
type Transformer struct {
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// NewTransformer loads model from modelDir, downloading it from the Hugging
// Face hub when it is not there yet.
func NewTransformer(model, modelDir string) (*Transformer, error) {
	if model == "" {
		model = DefaultTransformerModel
	}

	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}

	modelPath := filepath.Join(modelDir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		slog.Info("[TransformerClassifier] Model not found, downloading...", slog.String("model", model))
		modelPath, err = hugot.DownloadModel(model, modelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("download model %s: %w", model, err)
		}
		slog.Info("[TransformerClassifier] Model downloaded successfully", slog.String("path", modelPath))
	} else {
		slog.Info("[TransformerClassifier] Using existing model", slog.String("path", modelPath))
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "threatSentimentPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("initialize sentiment pipeline: %w", err)
	}

	return &Transformer{session: session, pipeline: pipeline}, nil
}

func (t *Transformer) Classify(ctx context.Context, text string) (models.ThreatType, error) {
	if err := ctx.Err(); err != nil {
		return models.ThreatUnknown, err
	}

	t.mu.Lock()
	output, err := t.pipeline.RunPipeline([]string{ConvertMarkdownToText(text)})
	t.mu.Unlock()
	if err != nil {
		return models.ThreatUnknown, fmt.Errorf("run sentiment pipeline: %w", err)
	}

	if len(output.ClassificationOutputs) == 0 || len(output.ClassificationOutputs[0]) == 0 {
		return models.ThreatUnknown, errors.New("sentiment pipeline returned no label")
	}
	return FromLabel(output.ClassificationOutputs[0][0].Label), nil
}

func (t *Transformer) Close() error {
	return t.session.Destroy()
}
