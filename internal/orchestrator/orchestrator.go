// Package orchestrator answers a question end to end: it routes the query,
// runs tools or retrieval, calls the generator and assembles the structured
// result.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ragagent/internal/domain"
	"ragagent/internal/index"
	"ragagent/internal/router"
)

// CalculatorChunkID is the chunk id given to the synthetic calculator chunk
// of a mixed query.
const CalculatorChunkID = 999

// Decision texts reported in QueryResult.Decision.
const (
	DecisionMixed     = "Used mixed approach: calculator + RAG"
	DecisionRetrieval = "Used RAG pipeline"
	// ToolMixed is reported as the tool of a mixed query.
	ToolMixed = "mixed"
)

// DefaultGenerateTimeout bounds a single generation call.
const DefaultGenerateTimeout = 60 * time.Second

// Recorder persists processed results.
type Recorder interface {
	Append(ctx context.Context, result domain.QueryResult) error
}

// Options configures an Orchestrator.
type Options struct {
	TopK            int
	GenerateTimeout time.Duration
	// History is optional.
	History Recorder
}

// Orchestrator is safe for concurrent use as long as its collaborators are.
type Orchestrator struct {
	router    *router.Router
	retriever domain.Retriever
	generator domain.Generator
	tools     map[string]domain.Tool
	history   Recorder
	topK      int
	timeout   time.Duration
	log       zerolog.Logger
}

// New wires an orchestrator.
func New(r *router.Router, retriever domain.Retriever, generator domain.Generator, tools []domain.Tool, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = index.DefaultTopK
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = DefaultGenerateTimeout
	}
	byName := make(map[string]domain.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &Orchestrator{
		router:    r,
		retriever: retriever,
		generator: generator,
		tools:     byName,
		history:   opts.History,
		topK:      opts.TopK,
		timeout:   opts.GenerateTimeout,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

// Process answers query. It never fails: retrieval and generation faults
// become a degraded answer inside an otherwise complete result.
func (o *Orchestrator) Process(ctx context.Context, query string) domain.QueryResult {
	start := time.Now()
	d := o.router.Route(query)

	var res domain.QueryResult
	switch d.Kind {
	case router.RouteMixed:
		res = o.mixed(ctx, query, d)
	case router.RouteCalculator, router.RouteDictionary:
		res = o.toolOnly(ctx, query, d)
	default:
		res = o.retrieval(ctx, query)
	}

	o.log.Info().
		Str("decision", d.Kind.String()).
		Str("rule", d.Rule).
		Str("tool", d.Tool).
		Dur("elapsed", time.Since(start)).
		Msg(res.Decision)

	if o.history != nil {
		// The answer was already produced; record it even if the caller left.
		if err := o.history.Append(context.WithoutCancel(ctx), res); err != nil {
			o.log.Warn().Err(err).Msg("failed to record history")
		}
	}
	return res
}

func (o *Orchestrator) mixed(ctx context.Context, query string, d router.RouteDecision) domain.QueryResult {
	calc := o.runTool(ctx, d.Tool, d.ToolInput)
	res := domain.QueryResult{
		Query:      query,
		Decision:   DecisionMixed,
		ToolUsed:   ptr(ToolMixed),
		ToolInput:  ptr(d.ToolInput),
		ToolOutput: ptr(calc.Output),
	}

	retrieved, err := o.retriever.Retrieve(query, o.topK)
	if err != nil {
		res.Answer = degraded(err)
		return res
	}
	res.RetrievedContext = retrieved

	sections := append(domain.Sections(retrieved), domain.ContextSection{
		Content: fmt.Sprintf("Calculation result: %s = %s", d.ToolInput, calc.Output),
		Source:  domain.CalculatorSource,
	})
	res.Answer = o.generate(ctx, query, sections)
	return res
}

func (o *Orchestrator) toolOnly(ctx context.Context, query string, d router.RouteDecision) domain.QueryResult {
	out := o.runTool(ctx, d.Tool, d.ToolInput)
	return domain.QueryResult{
		Query:      query,
		Decision:   fmt.Sprintf("Used %s tool", d.Tool),
		ToolUsed:   ptr(d.Tool),
		ToolInput:  ptr(d.ToolInput),
		ToolOutput: ptr(out.Output),
		Answer:     out.Output,
	}
}

func (o *Orchestrator) retrieval(ctx context.Context, query string) domain.QueryResult {
	res := domain.QueryResult{Query: query, Decision: DecisionRetrieval}
	retrieved, err := o.retriever.Retrieve(query, o.topK)
	if err != nil {
		res.Answer = degraded(err)
		return res
	}
	res.RetrievedContext = retrieved
	res.Answer = o.generate(ctx, query, domain.Sections(retrieved))
	return res
}

func (o *Orchestrator) runTool(ctx context.Context, name, input string) domain.ToolResult {
	t, ok := o.tools[name]
	if !ok {
		return domain.ToolResult{Tool: name, Input: input, Output: fmt.Sprintf("Error: tool %q is not available", name)}
	}
	return t.Run(ctx, input)
}

func (o *Orchestrator) generate(ctx context.Context, query string, sections []domain.ContextSection) string {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	answer, err := o.generator.Generate(ctx, query, sections)
	if err != nil {
		o.log.Warn().Err(err).Str("generator", o.generator.Name()).Msg("generation failed")
		return degraded(err)
	}
	return answer
}

// DegradedPrefix starts every answer produced after a retrieval or
// generation failure.
const DegradedPrefix = "Sorry, I couldn't generate an answer: "

func degraded(err error) string {
	return DegradedPrefix + err.Error()
}

func ptr(s string) *string { return &s }
