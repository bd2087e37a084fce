package ingest

import (
	"regexp"
	"strings"

	"ragagent/internal/domain"
)

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// SentenceChunker groups consecutive sentences into chunks, repeating the
// last overlap sentences of a chunk at the start of the next one.
type SentenceChunker struct {
	perChunk int
	overlap  int
}

// NewSentenceChunker creates a sentence chunker. Non-positive perChunk
// defaults to 5; overlap is clamped to [0, perChunk-1].
func NewSentenceChunker(perChunk, overlap int) *SentenceChunker {
	if perChunk <= 0 {
		perChunk = 5
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= perChunk {
		overlap = perChunk - 1
	}
	return &SentenceChunker{perChunk: perChunk, overlap: overlap}
}

// Chunk splits doc into sentence windows.
func (c *SentenceChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	sentences := splitSentences(doc.Content)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	for start := 0; ; start += c.perChunk - c.overlap {
		end := min(start+c.perChunk, len(sentences))
		chunks = append(chunks, newChunk(strings.Join(sentences[start:end], " "), doc.Source))
		if end == len(sentences) {
			break
		}
	}
	return chunks, nil
}

// splitSentences returns the trimmed sentences of text. Text after the last
// terminator counts as a sentence of its own.
func splitSentences(text string) []string {
	var out []string
	rest := text
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		rest = text[loc[1]:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		out = append(out, s)
	}
	return out
}

func newChunk(content, source string) domain.Chunk {
	return domain.Chunk{Content: content, Metadata: domain.ChunkMetadata{Source: source}}
}
