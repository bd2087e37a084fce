package router

import (
	"regexp"
	"strings"

	"ragagent/internal/tools"
)

// DefaultMixedWordThreshold is the word count a query must exceed before an
// embedded arithmetic span turns it into a mixed query.
const DefaultMixedWordThreshold = 6

// Options configures a Router.
type Options struct {
	MixedWordThreshold int
}

// Router holds the ordered routing table. It has no mutable state and is
// safe for concurrent use.
type Router struct {
	rules []Rule
}

// New creates a router with the default rule table.
func New(opts Options) *Router {
	if opts.MixedWordThreshold <= 0 {
		opts.MixedWordThreshold = DefaultMixedWordThreshold
	}
	return &Router{rules: defaultRules(opts.MixedWordThreshold)}
}

// Rules returns a copy of the routing table in evaluation order.
func (r *Router) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Route classifies query.
func (r *Router) Route(query string) RouteDecision {
	q := strings.ToLower(query)
	for _, rule := range r.rules {
		span, ok := rule.Match(q)
		if !ok {
			continue
		}
		d := RouteDecision{Kind: rule.Kind, Rule: rule.Name}
		switch rule.Kind {
		case RouteMixed:
			d.Tool = tools.CalculatorName
			d.ToolInput = span
		case RouteCalculator:
			d.Tool = tools.CalculatorName
			d.ToolInput = ExtractToolInput(query, d.Tool)
		case RouteDictionary:
			d.Tool = tools.DictionaryName
			d.ToolInput = ExtractToolInput(query, d.Tool)
		}
		return d
	}
	return RouteDecision{Kind: RouteRetrieval, Rule: RuleDefault}
}

var extractPatterns = map[string][]*regexp.Regexp{
	tools.CalculatorName: compileAll(
		`calculate\s+(.*)`,
		`compute\s+(.*)`,
		`evaluate\s+(.*)`,
		`solve\s+(.*)`,
		`what is\s+(.*)`,
		`find the value of\s+(.*)`,
	),
	tools.DictionaryName: compileAll(
		`define\s+(.*)`,
		`definition of\s+(.*)`,
		`meaning of\s+(.*)`,
		`what does\s+(.*?)\s+mean`,
	),
}

// ExtractToolInput returns the operand of a tool request: the first capture
// of the tool's prefix patterns over the lowercased query, without trailing
// sentence punctuation. When no pattern applies the query is returned
// unchanged.
func ExtractToolInput(query, tool string) string {
	q := strings.ToLower(query)
	for _, re := range extractPatterns[tool] {
		if m := re.FindStringSubmatch(q); m != nil {
			return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), "?!."))
		}
	}
	return query
}
