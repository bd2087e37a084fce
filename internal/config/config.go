// Package config loads application settings. Sources are layered:
// defaults < YAML file < environment (RAGAGENT_*) < command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RAGAGENT"

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	ChunkSize         int    `yaml:"chunk_size" split_words:"true"`
	ChunkOverlap      int    `yaml:"chunk_overlap" split_words:"true"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk" split_words:"true"`
	OverlapSentences  int    `yaml:"overlap_sentences" split_words:"true"`
}

// CorpusConfig locates the knowledge base.
type CorpusConfig struct {
	Dir     string        `yaml:"dir"`
	Chunker ChunkerConfig `yaml:"chunker"`
	// SummarySentences sizes the corpus overview shown by the TUI.
	SummarySentences int `yaml:"summary_sentences" split_words:"true"`
}

// IndexConfig configures retrieval and entity boosting.
type IndexConfig struct {
	TopK           int     `yaml:"top_k" split_words:"true"`
	Stopwords      bool    `yaml:"stopwords"`
	ProductPattern string  `yaml:"product_pattern" split_words:"true"`
	CompanyPattern string  `yaml:"company_pattern" split_words:"true"`
	ProductBoost   float64 `yaml:"product_boost" split_words:"true"`
	CompanyBoost   float64 `yaml:"company_boost" split_words:"true"`
}

// RouterConfig configures query routing.
type RouterConfig struct {
	MixedWordThreshold int `yaml:"mixed_word_threshold" split_words:"true"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url" split_words:"true"`
	APIKey      string        `yaml:"api_key" split_words:"true"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries" split_words:"true"`
	Sentences   int           `yaml:"sentences"`
}

// DictionaryConfig configures the dictionary tool.
type DictionaryConfig struct {
	BaseURL string        `yaml:"base_url" split_words:"true"`
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig configures the question log. An empty path disables it.
type HistoryConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Index      IndexConfig      `yaml:"index"`
	Router     RouterConfig     `yaml:"router"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	History    HistoryConfig    `yaml:"history"`
	Server     ServerConfig     `yaml:"server"`
	LogLevel   string           `yaml:"log_level" split_words:"true"`
	Watch      bool             `yaml:"watch"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Corpus: CorpusConfig{
			Dir:              "data",
			Chunker:          ChunkerConfig{Type: "char", ChunkSize: 500, ChunkOverlap: 50, SentencesPerChunk: 5, OverlapSentences: 1},
			SummarySentences: 5,
		},
		Index: IndexConfig{
			TopK:           5,
			ProductPattern: `\b(RAGent\s+(?:Search|Assistant|Analytics|Connect))\b`,
			CompanyPattern: `\b(RAGent\s*AI|RAGent)\b`,
			ProductBoost:   0.20,
			CompanyBoost:   0.30,
		},
		Router: RouterConfig{MixedWordThreshold: 6},
		Generator: GeneratorConfig{
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			MaxRetries:  3,
			Sentences:   3,
		},
		Dictionary: DictionaryConfig{
			BaseURL: "https://api.dictionaryapi.dev/api/v2/entries/en/",
			Timeout: 10 * time.Second,
		},
		History:  HistoryConfig{Limit: 20},
		Server:   ServerConfig{Addr: ":8080"},
		LogLevel: "info",
	}
}

// Load reads a config from path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault looks for $RAGAGENT_CONFIG, then ./config.yaml, then
// ~/.config/ragagent/config.yaml, and returns the defaults when none exists.
// The returned path is empty in that case.
func LoadDefault() (*AppConfig, string, error) {
	candidates := []string{os.Getenv(envPrefix + "_CONFIG"), "config.yaml"}
	if userPath, err := DefaultUserConfigPath(); err == nil {
		candidates = append(candidates, userPath)
	}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return Default(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath is the per-user config location.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragagent", "config.yaml"), nil
}

// Resolve builds the effective configuration: the file named by --config
// (or the discovered one), then RAGAGENT_* environment variables, then the
// flags in fs that were set explicitly.
func Resolve(fs *pflag.FlagSet) (*AppConfig, error) {
	var (
		cfg *AppConfig
		err error
	)
	path, _ := fs.GetString("config")
	if path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		cfg, err = Load(path)
	} else {
		cfg, _, err = LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}
	applyChangedFlags(fs, cfg)
	applyKeyFallbacks(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyKeyFallbacks reads the provider's conventional API key variable when
// no key was configured.
func applyKeyFallbacks(cfg *AppConfig) {
	if cfg.Generator.APIKey != "" {
		return
	}
	switch strings.ToLower(cfg.Generator.Provider) {
	case "gemini":
		cfg.Generator.APIKey = os.Getenv("GEMINI_API_KEY")
	case "", "openai":
		cfg.Generator.APIKey = os.Getenv("GROQ_API_KEY")
	}
}

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Corpus.Dir) == "" {
		return errors.New("corpus.dir is required")
	}
	switch c.Corpus.Chunker.Type {
	case "", "char", "sentence":
	default:
		return fmt.Errorf("unknown chunker: %s", c.Corpus.Chunker.Type)
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("index.top_k must be positive, got %d", c.Index.TopK)
	}
	if c.Index.ProductBoost < 0 || c.Index.CompanyBoost < 0 {
		return errors.New("index boosts must not be negative")
	}
	switch strings.ToLower(c.Generator.Provider) {
	case "", "openai", "gemini", "extractive":
	default:
		return fmt.Errorf("unsupported provider: %s", c.Generator.Provider)
	}
	if c.Generator.MaxRetries < 0 {
		return errors.New("generator.max_retries must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}
