package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spacesedan/threatwatch/internal/models"
)

const openAISystemPrompt = `You label short social media posts for a threat monitoring team.
Answer with exactly one word: NEGATIVE if the post expresses negative, hostile or threatening
sentiment, otherwise NONNEGATIVE.`

// OpenAIConfig configures the chat completion backend.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAI asks a chat completion model for a one word label.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	slog.Info("[OpenAIClassifier] OpenAI client initialized",
		slog.String("model", model),
		slog.Duration("timeout", cfg.Timeout))
	return &OpenAI{client: openai.NewClientWithConfig(config), model: model}, nil
}

func (o *OpenAI) Classify(ctx context.Context, text string) (models.ThreatType, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		MaxTokens:   4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: ConvertMarkdownToText(text)},
		},
	})
	if err != nil {
		return models.ThreatUnknown, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.ThreatUnknown, errors.New("chat completion returned no choices")
	}

	answer := strings.ToUpper(strings.Trim(resp.Choices[0].Message.Content, " \t\n.\"'"))
	threat, ok := models.ParseThreatType(answer)
	if !ok {
		return models.ThreatUnknown, fmt.Errorf("unexpected model answer %q", answer)
	}
	return threat, nil
}
