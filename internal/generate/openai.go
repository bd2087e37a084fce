package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"ragagent/internal/domain"
)

// OpenAI is a chat-completions client for any OpenAI-compatible endpoint
// (Groq, OpenAI, Ollama, vLLM).
type OpenAI struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxRetries  uint64
	client      *http.Client
	log         zerolog.Logger
}

// NewOpenAI creates a chat-completions generator.
func NewOpenAI(cfg Config, log zerolog.Logger) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing API key for openai provider")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &OpenAI{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		client:      &http.Client{Timeout: cfg.Timeout},
		log:         log,
	}, nil
}

// Name returns the identifier of this generator.
func (c *OpenAI) Name() string { return string(ProviderOpenAI) }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model to answer query from sections. Rate limits and
// server errors are retried with capped exponential backoff.
func (c *OpenAI) Generate(ctx context.Context, query string, sections []domain.ContextSection) (string, error) {
	p := BuildPrompt(query, sections)
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.WithCappedDuration(5*time.Second, retry.NewExponential(200*time.Millisecond)))

	var answer string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := c.complete(ctx, body)
		if err != nil {
			var re *retryableStatus
			if errors.As(err, &re) {
				c.log.Warn().Err(err).Int("attempt", attempt).Msg("chat completion failed, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		answer = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

type retryableStatus struct {
	status string
}

func (e *retryableStatus) Error() string { return "chat completion failed: " + e.status }

func (c *OpenAI) complete(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close response body")
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &retryableStatus{status: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e apiError
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error.Message != "" {
			return "", fmt.Errorf("chat completion failed: %s: %s", resp.Status, e.Error.Message)
		}
		return "", fmt.Errorf("chat completion failed: %s", resp.Status)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
