package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the command-line overrides on fs. Only flags the user
// sets take effect, so their defaults are informational.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("config", "", "Path to YAML config file (default: $RAGAGENT_CONFIG, ./config.yaml, ~/.config/ragagent/config.yaml)")

	fs.String("corpus", d.Corpus.Dir, "Directory of .txt documents")
	fs.String("chunker", d.Corpus.Chunker.Type, "Chunker type (char|sentence)")
	fs.Int("chunk-size", d.Corpus.Chunker.ChunkSize, "Character chunk size")
	fs.Int("chunk-overlap", d.Corpus.Chunker.ChunkOverlap, "Character chunk overlap")

	fs.Int("top-k", d.Index.TopK, "Chunks retrieved per question")
	fs.Bool("stopwords", d.Index.Stopwords, "Drop English stopwords when indexing")
	fs.Int("mixed-word-threshold", d.Router.MixedWordThreshold, "Words a question must exceed to be treated as mixed")

	fs.String("provider", d.Generator.Provider, "Generator (openai|gemini|extractive); empty picks openai when a key is set")
	fs.String("base-url", d.Generator.BaseURL, "OpenAI-compatible API base URL")
	fs.String("api-key", d.Generator.APIKey, "Generator API key")
	fs.String("model", d.Generator.Model, "Generator model")
	fs.Duration("generate-timeout", d.Generator.Timeout, "Timeout for one generation call")

	fs.String("history", d.History.Path, "SQLite history file (empty disables history)")
	fs.String("addr", d.Server.Addr, "HTTP listen address")
	fs.String("log-level", d.LogLevel, "Log level (debug|info|warn|error)")
	fs.Bool("watch", d.Watch, "Rebuild the index when the corpus changes")
}

func applyChangedFlags(fs *pflag.FlagSet, c *AppConfig) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			*dst = v
		}
	}

	setStr("corpus", &c.Corpus.Dir)
	setStr("chunker", &c.Corpus.Chunker.Type)
	setInt("chunk-size", &c.Corpus.Chunker.ChunkSize)
	setInt("chunk-overlap", &c.Corpus.Chunker.ChunkOverlap)

	setInt("top-k", &c.Index.TopK)
	setBool("stopwords", &c.Index.Stopwords)
	setInt("mixed-word-threshold", &c.Router.MixedWordThreshold)

	setStr("provider", &c.Generator.Provider)
	setStr("base-url", &c.Generator.BaseURL)
	setStr("api-key", &c.Generator.APIKey)
	setStr("model", &c.Generator.Model)
	if fs.Changed("generate-timeout") {
		c.Generator.Timeout, _ = fs.GetDuration("generate-timeout")
	}

	setStr("history", &c.History.Path)
	setStr("addr", &c.Server.Addr)
	setStr("log-level", &c.LogLevel)
	setBool("watch", &c.Watch)
}
