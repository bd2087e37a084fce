package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"ragagent/internal/config"
	"ragagent/internal/domain"
	"ragagent/internal/generate"
	"ragagent/internal/history"
	"ragagent/internal/index"
	"ragagent/internal/ingest"
	"ragagent/internal/orchestrator"
	"ragagent/internal/router"
	"ragagent/internal/summarizer"
	"ragagent/internal/tools"
	"ragagent/internal/watcher"
)

// app holds the assembled pipeline shared by every command.
type app struct {
	cfg     *config.AppConfig
	log     zerolog.Logger
	index   *index.Index
	chunker domain.Chunker
	orch    *orchestrator.Orchestrator
	history *history.Store

	mu      sync.RWMutex
	summary string
}

func newApp(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*app, error) {
	idx, err := index.New(index.Options{
		Boost: index.BoostConfig{
			ProductPattern: cfg.Index.ProductPattern,
			CompanyPattern: cfg.Index.CompanyPattern,
			ProductBoost:   cfg.Index.ProductBoost,
			CompanyBoost:   cfg.Index.CompanyBoost,
		},
		Stopwords: cfg.Index.Stopwords,
	})
	if err != nil {
		return nil, fmt.Errorf("index init failed: %w", err)
	}

	ch, err := ingest.NewChunker(ingest.ChunkerConfig{
		Type:              cfg.Corpus.Chunker.Type,
		ChunkSize:         cfg.Corpus.Chunker.ChunkSize,
		ChunkOverlap:      cfg.Corpus.Chunker.ChunkOverlap,
		SentencesPerChunk: cfg.Corpus.Chunker.SentencesPerChunk,
		OverlapSentences:  cfg.Corpus.Chunker.OverlapSentences,
	})
	if err != nil {
		return nil, err
	}

	gen, err := generate.New(ctx, generate.Config{
		Provider:    generate.Provider(strings.ToLower(cfg.Generator.Provider)),
		BaseURL:     cfg.Generator.BaseURL,
		APIKey:      cfg.Generator.APIKey,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		Timeout:     cfg.Generator.Timeout,
		MaxRetries:  uint64(cfg.Generator.MaxRetries),
		Sentences:   cfg.Generator.Sentences,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("generator init failed: %w", err)
	}

	a := &app{cfg: cfg, log: log, index: idx, chunker: ch}

	if cfg.History.Path != "" {
		if a.history, err = history.Open(cfg.History.Path); err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
	}

	if err := a.reload(ctx); err != nil {
		a.Close()
		return nil, err
	}

	toolset := []domain.Tool{
		tools.NewCalculator(nil),
		tools.NewDictionary(tools.DictionaryConfig{BaseURL: cfg.Dictionary.BaseURL, Timeout: cfg.Dictionary.Timeout}, log),
	}
	opts := orchestrator.Options{TopK: cfg.Index.TopK, GenerateTimeout: cfg.Generator.Timeout}
	if a.history != nil {
		opts.History = a.history
	}
	a.orch = orchestrator.New(router.New(router.Options{MixedWordThreshold: cfg.Router.MixedWordThreshold}), idx, gen, toolset, opts, log)

	log.Info().
		Str("corpus", cfg.Corpus.Dir).
		Int("chunks", idx.Len()).
		Str("generator", gen.Name()).
		Msg("pipeline ready")
	return a, nil
}

// reload reads the corpus, rebuilds the index and refreshes the summary.
// It has the watcher.RebuildFunc signature.
func (a *app) reload(_ context.Context) error {
	docs, err := ingest.LoadDir(a.cfg.Corpus.Dir)
	if err != nil {
		return err
	}
	chunks, err := ingest.Chunks(docs, a.chunker)
	if err != nil {
		return err
	}
	if err := a.index.Build(chunks); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	summary, err := summarizer.NewFrequency().Summarize(strings.Join(texts, "\n"), a.cfg.Corpus.SummarySentences)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.summary = summary
	a.mu.Unlock()
	a.log.Info().Int("documents", len(docs)).Int("chunks", len(chunks)).Msg("corpus indexed")
	return nil
}

// Summary returns the overview of the most recently loaded corpus.
func (a *app) Summary() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summary
}

func (a *app) Len() int          { return a.index.Len() }
func (a *app) Sources() []string { return a.index.Sources() }

func (a *app) watcher() *watcher.Watcher {
	return watcher.New(a.cfg.Corpus.Dir, watcher.DefaultDebounce, a.reload, a.log)
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close history")
		}
	}
}
