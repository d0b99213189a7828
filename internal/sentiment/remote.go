package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/spacesedan/threatwatch/internal/models"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
	userAgent             = "threatwatch-client/1.0"
)

// RemoteConfig configures an HTTP sentiment service client.
type RemoteConfig struct {
	URL            string
	HealthURL      string
	Token          string
	ClientID       string
	ClientSecret   string
	TokenURL       string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// Remote calls a sentiment analysis service that accepts a batch of
// {content_id, text} items and answers with a label per item.
type Remote struct {
	client         *http.Client
	url            string
	healthURL      string
	maxRetries     int
	initialBackoff time.Duration
}

func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.URL == "" {
		return nil, errors.New("remote classifier url is required")
	}

	client := &http.Client{}
	switch {
	case cfg.ClientID != "" && cfg.TokenURL != "":
		oauthConf := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		client = oauthConf.Client(context.Background())
	case cfg.Token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
		client = oauth2.NewClient(context.Background(), ts)
	}
	client.Timeout = cfg.Timeout

	r := &Remote{
		client:         client,
		url:            cfg.URL,
		healthURL:      cfg.HealthURL,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
	}
	if r.healthURL == "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid remote classifier url: %w", err)
		}
		u.Path, u.RawQuery = "/health", ""
		r.healthURL = u.String()
	}
	if r.maxRetries <= 0 {
		r.maxRetries = defaultMaxRetries
	}
	if r.initialBackoff <= 0 {
		r.initialBackoff = defaultInitialBackoff
	}

	slog.Info("[RemoteClassifier] Initializing Client",
		slog.String("url", r.url),
		slog.Duration("timeout", cfg.Timeout))
	return r, nil
}

func (r *Remote) Classify(ctx context.Context, text string) (models.ThreatType, error) {
	start := time.Now()
	input := models.SentimentAnalysisBatchRequest{{ContentID: "0", Text: text}}

	var result models.SentimentAnalysisBatchResponse
	if err := r.postJSON(ctx, input, &result); err != nil {
		slog.Error("[RemoteClassifier] Sentiment Analysis request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return models.ThreatUnknown, err
	}
	if len(result) == 0 {
		return models.ThreatUnknown, errors.New("sentiment service returned no results")
	}

	slog.Debug("[RemoteClassifier] Sentiment Analysis request successful",
		slog.Duration("elapsed", time.Since(start)),
		slog.String("label", result[0].SentimentLabel))
	return FromLabel(result[0].SentimentLabel), nil
}

// HealthCheck reports whether the service answers its health endpoint.
func (r *Remote) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		slog.Warn("[RemoteClassifier] Health check failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (r *Remote) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var (
		resp *http.Response
		err  error
	)
	backoff := r.initialBackoff

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err = r.client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[RemoteClassifier] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))
		if resp != nil {
			resp.Body.Close()
			err = fmt.Errorf("sentiment service returned status %d", resp.StatusCode)
			resp = nil
		}

		if attempt == r.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, err
}

func (r *Remote) postJSON(ctx context.Context, input, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := r.doWithRetry(ctx, body)
	if err != nil {
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sentiment service returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[RemoteClassifier] Failed to unmarshal response",
			slog.String("error", err.Error()),
			getPreview(respBody))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
