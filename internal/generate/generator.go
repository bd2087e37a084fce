// Package generate turns a question and its retrieved context into a
// natural-language answer. Remote chat models and an offline extractive
// fallback sit behind the same domain.Generator interface.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ragagent/internal/domain"
)

// Provider selects a generation backend.
type Provider string

const (
	// ProviderAuto picks openai when an API key is configured and
	// extractive otherwise.
	ProviderAuto       Provider = ""
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderExtractive Provider = "extractive"
)

// Defaults for the OpenAI-compatible backend, pointed at Groq.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama3-8b-8192"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultTemperature = 0.2
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
)

// ErrNoContext is returned by the extractive generator when there is
// nothing to answer from.
var ErrNoContext = errors.New("no context to answer from")

// Config configures a generator.
type Config struct {
	Provider    Provider
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  uint64
	// Sentences bounds the extractive answer length.
	Sentences int
}

// New creates the generator selected by cfg.Provider.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (domain.Generator, error) {
	provider := cfg.Provider
	if provider == ProviderAuto {
		provider = ProviderExtractive
		if strings.TrimSpace(cfg.APIKey) != "" {
			provider = ProviderOpenAI
		}
	}
	log = log.With().Str("component", "generate").Str("provider", string(provider)).Logger()

	switch provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg, log)
	case ProviderGemini:
		return NewGemini(ctx, cfg, log)
	case ProviderExtractive:
		return NewExtractive(cfg.Sentences), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
