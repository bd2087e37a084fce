package ingest

import (
	"strings"
	"unicode/utf8"

	"ragagent/internal/domain"
)

// Default character chunking parameters.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// DefaultSeparators are tried in order; the empty separator splits between
// characters and always applies.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

// CharChunker splits text recursively on a list of separators until every
// piece fits in size characters, then packs pieces into chunks that share up
// to overlap characters with their predecessor. Lengths are counted in
// runes. Separators stay attached to the start of the piece that follows
// them.
type CharChunker struct {
	size       int
	overlap    int
	separators []string
}

// NewCharChunker creates a character chunker. Non-positive size defaults to
// DefaultChunkSize and overlap is clamped below size.
func NewCharChunker(size, overlap int) *CharChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &CharChunker{size: size, overlap: overlap, separators: DefaultSeparators}
}

// Chunk splits doc into character-bounded chunks.
func (c *CharChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	pieces := c.split(doc.Content, c.separators)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, newChunk(p, doc.Source))
		}
	}
	return chunks, nil
}

func (c *CharChunker) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			if s != "" {
				rest = separators[i+1:]
			}
			break
		}
	}

	var out, fitting []string
	for _, piece := range splitKeep(text, sep) {
		if utf8.RuneCountInString(piece) < c.size {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, c.merge(fitting)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, c.split(piece, rest)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, c.merge(fitting)...)
	}
	return out
}

// merge packs small pieces into chunks of at most size runes, carrying up to
// overlap runes of trailing pieces into the next chunk.
func (c *CharChunker) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)
	flush := func() {
		if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
			out = append(out, doc)
		}
	}
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n > c.size && len(current) > 0 {
			flush()
			for total > c.overlap || (total+n > c.size && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	flush()
	return out
}

// splitKeep splits text on sep, keeping sep at the start of each following
// piece. Empty pieces are dropped.
func splitKeep(text, sep string) []string {
	var parts []string
	if sep == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for i, p := range strings.Split(text, sep) {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
