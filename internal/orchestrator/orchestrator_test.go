package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragagent/internal/domain"
	"ragagent/internal/index"
	"ragagent/internal/router"
	"ragagent/internal/tools"
)

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	sections []domain.ContextSection
	answer   string
	err      error
	block    bool
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, _ string, sections []domain.ContextSection) (string, error) {
	g.mu.Lock()
	g.calls++
	g.sections = sections
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.answer, g.err
}

type fakeTool struct {
	name   string
	output string
	inputs []string
}

func (t *fakeTool) Name() string { return t.name }

func (t *fakeTool) Run(_ context.Context, input string) domain.ToolResult {
	t.inputs = append(t.inputs, input)
	return domain.ToolResult{Tool: t.name, Input: input, Output: t.output}
}

type memoryRecorder struct {
	results []domain.QueryResult
	ctxErrs []error
	err     error
}

func (m *memoryRecorder) Append(ctx context.Context, r domain.QueryResult) error {
	m.results = append(m.results, r)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	return m.err
}

var corpus = []domain.Chunk{
	{Content: "RAGent AI was founded in 2020 and builds retrieval products.", Metadata: domain.ChunkMetadata{Source: "company.txt"}},
	{Content: "RAGent Search is the main product of RAGent AI.", Metadata: domain.ChunkMetadata{Source: "products.txt"}},
	{Content: "A transformer uses attention to model sequences.", Metadata: domain.ChunkMetadata{Source: "ai.txt"}},
}

type fixture struct {
	orch  *Orchestrator
	gen   *fakeGenerator
	dict  *fakeTool
	index *index.Index
	hist  *memoryRecorder
}

func newFixture(t *testing.T, build bool) *fixture {
	t.Helper()
	idx, err := index.New(index.Options{Boost: index.DefaultBoostConfig()})
	require.NoError(t, err)
	if build {
		require.NoError(t, idx.Build(corpus))
	}
	gen := &fakeGenerator{answer: "generated answer"}
	dict := &fakeTool{name: tools.DictionaryName, output: "Lasting for a very short time."}
	hist := &memoryRecorder{}
	calc := tools.NewCalculator(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) })
	orch := New(router.New(router.Options{}), idx, gen, []domain.Tool{calc, dict},
		Options{TopK: 2, GenerateTimeout: 100 * time.Millisecond, History: hist}, zerolog.Nop())
	return &fixture{orch: orch, gen: gen, dict: dict, index: idx, hist: hist}
}

func TestProcessMixed(t *testing.T) {
	f := newFixture(t, true)

	res := f.orch.Process(context.Background(), "If I calculate the square root of 144, what is RAGent AI's main product?")
	assert.Equal(t, DecisionMixed, res.Decision)
	require.NotNil(t, res.ToolUsed)
	assert.Equal(t, ToolMixed, *res.ToolUsed)
	require.NotNil(t, res.ToolInput)
	assert.Equal(t, "square root of 144", *res.ToolInput)
	require.NotNil(t, res.ToolOutput)
	assert.Equal(t, "The square root of 144.0 is 12.000000", *res.ToolOutput)
	assert.Len(t, res.RetrievedContext, 2)
	assert.Equal(t, "generated answer", res.Answer)

	require.Len(t, f.gen.sections, 3)
	last := f.gen.sections[2]
	assert.Equal(t, domain.CalculatorSource, last.Source)
	assert.Equal(t, "Calculation result: square root of 144 = The square root of 144.0 is 12.000000", last.Content)
	assert.Nil(t, last.Score)
}

func TestProcessToolOnly(t *testing.T) {
	f := newFixture(t, true)

	res := f.orch.Process(context.Background(), "calculate 2 + 2")
	assert.Equal(t, "Used calculator tool", res.Decision)
	require.NotNil(t, res.ToolUsed)
	assert.Equal(t, tools.CalculatorName, *res.ToolUsed)
	assert.Equal(t, "2 + 2", *res.ToolInput)
	assert.Equal(t, "4", *res.ToolOutput)
	assert.Equal(t, "4", res.Answer)
	assert.Empty(t, res.RetrievedContext)

	res = f.orch.Process(context.Background(), "How old am I if I was born in 1990")
	assert.Equal(t, "If you were born in 1990, you would be approximately 35 years old in 2025.", res.Answer)

	res = f.orch.Process(context.Background(), "define ephemeral")
	assert.Equal(t, "Used dictionary tool", res.Decision)
	assert.Equal(t, "ephemeral", *res.ToolInput)
	assert.Equal(t, "Lasting for a very short time.", res.Answer)
	assert.Equal(t, []string{"ephemeral"}, f.dict.inputs)

	assert.Zero(t, f.gen.calls)
}

func TestProcessRetrieval(t *testing.T) {
	f := newFixture(t, true)

	res := f.orch.Process(context.Background(), "define transformer")
	assert.Equal(t, DecisionRetrieval, res.Decision)
	assert.Nil(t, res.ToolUsed)
	assert.Nil(t, res.ToolInput)
	assert.Nil(t, res.ToolOutput)
	require.Len(t, res.RetrievedContext, 2)
	assert.Equal(t, "ai.txt", res.RetrievedContext[0].Metadata.Source)
	assert.Equal(t, "generated answer", res.Answer)
	assert.Equal(t, 1, f.gen.calls)
	require.Len(t, f.gen.sections, 2)
	assert.NotNil(t, f.gen.sections[0].Score)
	assert.Empty(t, f.dict.inputs)
}

func TestProcessIndexNotBuilt(t *testing.T) {
	f := newFixture(t, false)

	res := f.orch.Process(context.Background(), "What is RAGent AI?")
	assert.Equal(t, DecisionRetrieval, res.Decision)
	assert.Equal(t, DegradedPrefix+index.ErrIndexNotBuilt.Error(), res.Answer)
	assert.Zero(t, f.gen.calls)

	res = f.orch.Process(context.Background(), "If I calculate the square root of 144, what is RAGent AI's main product?")
	assert.Equal(t, DecisionMixed, res.Decision)
	assert.Equal(t, "The square root of 144.0 is 12.000000", *res.ToolOutput)
	assert.Equal(t, DegradedPrefix+index.ErrIndexNotBuilt.Error(), res.Answer)
}

func TestProcessGenerationFailure(t *testing.T) {
	f := newFixture(t, true)
	f.gen.err = errors.New("rate limited")

	res := f.orch.Process(context.Background(), "What is RAGent AI?")
	assert.Equal(t, DegradedPrefix+"rate limited", res.Answer)
	assert.Len(t, res.RetrievedContext, 2)
}

func TestProcessGenerationTimeout(t *testing.T) {
	f := newFixture(t, true)
	f.gen.block = true

	start := time.Now()
	res := f.orch.Process(context.Background(), "What is RAGent AI?")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, DegradedPrefix+context.DeadlineExceeded.Error(), res.Answer)
}

func TestProcessRecordsHistory(t *testing.T) {
	f := newFixture(t, true)
	f.hist.err = errors.New("disk full")

	a := f.orch.Process(context.Background(), "calculate 2 + 2")
	b := f.orch.Process(context.Background(), "What is RAGent AI?")
	require.Len(t, f.hist.results, 2)
	assert.Equal(t, a, f.hist.results[0])
	assert.Equal(t, b, f.hist.results[1])
}

func TestProcessRecordsHistoryAfterCallerCancels(t *testing.T) {
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.orch.Process(ctx, "calculate 2 + 2")
	assert.Equal(t, "4", res.Answer)
	require.Len(t, f.hist.results, 1)
	assert.Equal(t, res, f.hist.results[0])
	assert.NoError(t, f.hist.ctxErrs[0])
}

func TestProcessMissingTool(t *testing.T) {
	idx, err := index.New(index.Options{})
	require.NoError(t, err)
	orch := New(router.New(router.Options{}), idx, &fakeGenerator{}, nil, Options{}, zerolog.Nop())

	res := orch.Process(context.Background(), "define ephemeral")
	assert.Equal(t, `Error: tool "dictionary" is not available`, res.Answer)
}
