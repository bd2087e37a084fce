// Package router classifies incoming questions into the subsystem that
// should answer them.
//
// Classification is a pure function of the query text: an ordered rule
// table is evaluated top-to-bottom over the lowercased query and the first
// matching rule wins. Rules, in order:
//  1. mixed: an embedded arithmetic span inside a longer question
//  2. ai-override: AI/ML vocabulary is answered from the knowledge base
//  3. ai-term-definition: "define <glossary term>" is answered from the knowledge base
//  4. system-terms: company, product and architecture questions
//  5. calculator: arithmetic, age and square-root phrasing
//  6. dictionary: definition requests not scoped to AI
//
// Anything else falls through to retrieval.
package router

// Decision is the subsystem chosen for a query.
type Decision int

const (
	// RouteRetrieval answers with retrieval-augmented generation.
	RouteRetrieval Decision = iota
	// RouteCalculator answers with the calculator tool alone.
	RouteCalculator
	// RouteDictionary answers with the dictionary tool alone.
	RouteDictionary
	// RouteMixed runs the calculator on an embedded span and feeds its
	// result into retrieval-augmented generation.
	RouteMixed
)

// String returns the human-readable name of the decision.
func (d Decision) String() string {
	switch d {
	case RouteRetrieval:
		return "retrieval"
	case RouteCalculator:
		return "calculator"
	case RouteDictionary:
		return "dictionary"
	case RouteMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// RouteDecision is the router's output for one query.
type RouteDecision struct {
	Kind Decision
	// Tool is the tool to run, empty for plain retrieval.
	Tool string
	// ToolInput is the operand extracted for Tool. For RouteMixed it is the
	// arithmetic span found in the query.
	ToolInput string
	// Rule names the rule that produced the decision.
	Rule string
}
