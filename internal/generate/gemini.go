package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"ragagent/internal/domain"
)

// Gemini generates answers with the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	temp   float32
	log    zerolog.Logger
}

// NewGemini creates a Gemini API generator. BaseURL, when set, overrides
// the API endpoint.
func NewGemini(ctx context.Context, cfg Config, log zerolog.Logger) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing API key for gemini provider")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	cc := genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}
	client, err := genai.NewClient(ctx, &cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, temp: float32(cfg.Temperature), log: log}, nil
}

// Name returns the identifier of this generator.
func (g *Gemini) Name() string { return string(ProviderGemini) }

// Generate asks Gemini to answer query from sections.
func (g *Gemini) Generate(ctx context.Context, query string, sections []domain.ContextSection) (string, error) {
	p := BuildPrompt(query, sections)
	temp := g.temp
	cfg := genai.GenerateContentConfig{
		Temperature:       &temp,
		SystemInstruction: genai.Text(p.System)[0],
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.User), &cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		g.log.Debug().Str("model", g.model).Msg("gemini returned no candidates")
		return "", errors.New("no answer returned")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
