package domain

import "context"

// CalculatorSource is the reserved source label for synthetic chunks that
// carry a calculator result into the generation context.
const CalculatorSource = "calculator_tool"

// Document represents a single text file loaded into the system.
type Document struct {
	Path    string
	Source  string
	Content string
}

// ChunkMetadata records where a chunk came from.
type ChunkMetadata struct {
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
}

// Chunk is a bounded span of source text, the unit of retrieval.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a chunk returned by retrieval together with its final score.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// ToolResult is the outcome of a tool run. Output is always readable text,
// failures included.
type ToolResult struct {
	Tool   string `json:"tool"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// QueryResult is the structured answer for one processed query.
type QueryResult struct {
	Query            string        `json:"query"`
	Decision         string        `json:"decision"`
	ToolUsed         *string       `json:"tool_used,omitempty"`
	ToolInput        *string       `json:"tool_input,omitempty"`
	ToolOutput       *string       `json:"tool_output,omitempty"`
	RetrievedContext []ScoredChunk `json:"retrieved_context,omitempty"`
	Answer           string        `json:"answer"`
}

// ContextSection is one piece of context handed to a Generator.
// Score is nil for synthetic sections such as calculator results.
type ContextSection struct {
	Content string
	Source  string
	Score   *float64
}

// Sections converts retrieved chunks into generation context.
func Sections(chunks []ScoredChunk) []ContextSection {
	out := make([]ContextSection, 0, len(chunks))
	for _, c := range chunks {
		score := c.Score
		out = append(out, ContextSection{Content: c.Content, Source: c.Metadata.Source, Score: &score})
	}
	return out
}

// Retriever returns the chunks most relevant to a query.
type Retriever interface {
	Retrieve(query string, topK int) ([]ScoredChunk, error)
}

// Generator produces an answer from a query and its context.
type Generator interface {
	Name() string
	Generate(ctx context.Context, query string, sections []ContextSection) (string, error)
}

// Tool is a callable utility. Run never fails; faults become the output text.
type Tool interface {
	Name() string
	Run(ctx context.Context, input string) ToolResult
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
