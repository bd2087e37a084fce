package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragagent/internal/domain"
)

func contents(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestCharChunker(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
		want    []string
	}{
		{"words", 10, 0, "aaaa bbbb cccc", []string{"aaaa bbbb", "cccc"}},
		{"overlap", 10, 5, "aaaa bbbb cccc", []string{"aaaa bbbb", "bbbb cccc"}},
		{"paragraphs", 20, 0, "First para.\n\nSecond para.", []string{"First para.", "Second para."}},
		{"no separators", 4, 0, "abcdefghij", []string{"abcd", "efgh", "ij"}},
		{"runes", 3, 0, "ééééé", []string{"ééé", "éé"}},
		{"fits", 100, 10, "  short text  ", []string{"short text"}},
		{"empty", 10, 0, "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := NewCharChunker(tt.size, tt.overlap).Chunk(domain.Document{Source: "doc.txt", Content: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.want, contents(chunks))
			for _, c := range chunks {
				assert.Equal(t, "doc.txt", c.Metadata.Source)
			}
		})
	}
}

func TestCharChunkerRespectsSize(t *testing.T) {
	text := strings.Repeat("RAGent Search indexes internal documents, fast! Does it scale? Yes.\n", 40) +
		"\n\n" + strings.Repeat("x", 700)
	chunks, err := NewCharChunker(DefaultChunkSize, DefaultChunkOverlap).Chunk(domain.Document{Source: "a.txt", Content: text})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), DefaultChunkSize)
		assert.NotEmpty(t, c.Content)
	}
}

func TestSentenceChunker(t *testing.T) {
	doc := domain.Document{Source: "s.txt", Content: "One. Two! Three? Four"}

	chunks, err := NewSentenceChunker(2, 1).Chunk(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"One. Two!", "Two! Three?", "Three? Four"}, contents(chunks))

	chunks, err = NewSentenceChunker(0, 0).Chunk(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"One. Two! Three? Four"}, contents(chunks))

	chunks, err = NewSentenceChunker(2, 5).Chunk(doc)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	chunks, err = NewSentenceChunker(2, 0).Chunk(domain.Document{Content: "  "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "Bravo.")
	writeFile(t, filepath.Join(dir, "a.txt"), "Alpha.")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "Charlie.")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	writeFile(t, filepath.Join(dir, ".hidden.txt"), "ignored")

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.txt", docs[0].Source)
	assert.Equal(t, "Alpha.", docs[0].Content)
	assert.Equal(t, "b.txt", docs[1].Source)
	assert.Equal(t, "sub/c.txt", docs[2].Source)
	assert.Equal(t, filepath.Join(dir, "sub", "c.txt"), docs[2].Path)
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadDirThenChunk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "One. Two. Three.")
	writeFile(t, filepath.Join(dir, "b.txt"), "Four.")

	chunker, err := NewChunker(ChunkerConfig{Type: ChunkerSentence, SentencesPerChunk: 2})
	require.NoError(t, err)
	docs, err := LoadDir(dir)
	require.NoError(t, err)
	chunks, err := Chunks(docs, chunker)
	require.NoError(t, err)
	assert.Equal(t, []string{"One. Two.", "Three.", "Four."}, contents(chunks))
	assert.Equal(t, "a.txt", chunks[1].Metadata.Source)
	assert.Equal(t, "b.txt", chunks[2].Metadata.Source)
}

func TestNewChunker(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{})
	require.NoError(t, err)
	assert.IsType(t, &CharChunker{}, c)

	_, err = NewChunker(ChunkerConfig{Type: "paragraph"})
	assert.Error(t, err)
}

func TestIsCorpusFile(t *testing.T) {
	assert.True(t, IsCorpusFile("/x/a.txt"))
	assert.True(t, IsCorpusFile("B.TXT"))
	assert.False(t, IsCorpusFile("/x/a.md"))
	assert.False(t, IsCorpusFile("/x/.a.txt"))
}
