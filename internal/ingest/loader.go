// Package ingest loads the text corpus from disk and cuts it into chunks
// for the lexical index.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"

	"ragagent/internal/domain"
)

// ErrNoDocuments is returned when a corpus directory holds no .txt files.
var ErrNoDocuments = errors.New("no .txt documents found")

// IsCorpusFile reports whether path names a file that belongs to the corpus.
func IsCorpusFile(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".txt") && !strings.HasPrefix(base, ".")
}

// LoadDir reads every .txt file below dir, sorted by path. A document's
// Source is its slash-separated path relative to dir, which is the bare
// file name for top-level files.
func LoadDir(dir string) ([]domain.Document, error) {
	var docs []domain.Document
	err := godirwalk.Walk(dir, &godirwalk.Options{
		FollowSymbolicLinks: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !IsCorpusFile(path) {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				rel = filepath.Base(path)
			}
			docs = append(docs, domain.Document{Path: path, Source: filepath.ToSlash(rel), Content: string(data)})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus %s: %w", dir, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoDocuments)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Chunks splits every document with chunker, preserving document order.
func Chunks(docs []domain.Document, chunker domain.Chunker) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, d := range docs {
		chunks, err := chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Source, err)
		}
		out = append(out, chunks...)
	}
	return out, nil
}

// Chunker kinds accepted by NewChunker.
const (
	ChunkerChar     = "char"
	ChunkerSentence = "sentence"
)

// ChunkerConfig selects and sizes a chunker.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	ChunkSize         int    `yaml:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// NewChunker builds the chunker described by cfg. An empty type means char.
func NewChunker(cfg ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "", ChunkerChar:
		return NewCharChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case ChunkerSentence:
		return NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker type %q", cfg.Type)
	}
}
