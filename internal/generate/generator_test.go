package generate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr string
	}{
		{name: "auto without key", cfg: Config{}, want: "extractive"},
		{name: "auto with key", cfg: Config{APIKey: "k"}, want: "openai"},
		{name: "explicit extractive", cfg: Config{Provider: ProviderExtractive, APIKey: "k"}, want: "extractive"},
		{name: "gemini", cfg: Config{Provider: ProviderGemini, APIKey: "k"}, want: "gemini"},
		{name: "openai without key", cfg: Config{Provider: ProviderOpenAI}, wantErr: "missing API key"},
		{name: "gemini without key", cfg: Config{Provider: ProviderGemini}, wantErr: "missing API key"},
		{name: "unknown", cfg: Config{Provider: "bard"}, wantErr: "unsupported provider: bard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(context.Background(), tt.cfg, zerolog.Nop())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Name())
		})
	}
}

func TestGeminiGenerate(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		buf := new(strings.Builder)
		_, _ = buf.ReadFrom(r.Body)
		body = buf.String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"RAGent "},{"text":"Search. "}]}}]}`))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), Config{APIKey: "k", BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), "What is the product?", nil)
	require.NoError(t, err)
	assert.Equal(t, "RAGent Search.", answer)
	assert.Contains(t, path, DefaultGeminiModel+":generateContent")
	assert.Contains(t, body, "Question: What is the product?")
}

func TestGeminiNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), Config{APIKey: "k", BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "q", nil)
	assert.EqualError(t, err, "no answer returned")
}
