package router

import (
	"regexp"
	"strings"
)

// Rule is one entry of the routing table. Match receives the lowercased
// query and reports whether the rule applies, plus an optional span of the
// query the rule recognised.
type Rule struct {
	Name  string
	Kind  Decision
	Match func(q string) (span string, ok bool)
}

// Rule names.
const (
	RuleMixed            = "mixed"
	RuleAIOverride       = "ai-override"
	RuleAITermDefinition = "ai-term-definition"
	RuleSystemTerms      = "system-terms"
	RuleCalculator       = "calculator"
	RuleDictionary       = "dictionary"
	RuleDefault          = "default"
)

var (
	mathSpanRe = regexp.MustCompile(`square root of \d+(?:\.\d+)?|sqrt\s*\(?\s*\d+(?:\.\d+)?\s*\)?|\d+\s*[+\-*/^]\s*\d+`)

	aiOverridePatterns = compileAll(
		`\b(ai|artificial intelligence|machine learning|neural network|llm|large language model)\b`,
		`\bhallucination\b`,
		`\brag\b`,
		`\bretrieval augmented generation\b`,
		`\bwhat\s+is\s+the\s+meaning\s+of\s+\w+\s+in\s+ai\b`,
		`\bwhat\s+does\s+\w+\s+mean\s+in\s+ai\b`,
		`\bdefine\s+["']?\w+\s+in\s+ai["']?\b`,
	)

	systemPatterns = compileAll(
		`\b(ragent|rag agent|company|product|headquarter|employee|technology)\b`,
		`\b(agentic|routing|workflow|pipeline|architecture|vector store|llm service)\b`,
		`\b(this system|the system|our system)\b`,
		`\bhow\s+\w+\s+works\s+in\s+this\s+system\b`,
		`\bdefine\s+["']?\w+\s+routing["']?\b`,
	)

	calculatorRe = regexp.MustCompile(`\b(calculate|compute|evaluate|solve|find the value of|math|age|born in|how old|years old|square root|sqrt|\d+\s*\+|\d+\s*-|\d+\s*\*|\d+\s*/|\d+\s*\^)\b|\b(what is\s+[\d+\-*/()]+)\b`)

	dictionaryRe = regexp.MustCompile(`\b(define|definition of|meaning of|what does .* mean)\b`)
	inAIRe       = regexp.MustCompile(`\bin (ai|artificial intelligence)\b`)
)

// AITerms is the glossary of AI/ML vocabulary whose definitions come from
// the curated corpus rather than a general dictionary.
var AITerms = []string{
	"artificial intelligence", "machine learning", "deep learning", "neural network",
	"transformer", "llm", "large language model", "retrieval augmented generation", "rag",
	"vector database", "embedding", "fine-tuning", "prompt engineering", "attention mechanism",
	"tokenization", "nlp", "natural language processing", "generative ai", "hallucination",
	"ai alignment", "bias", "explainable ai", "ai safety", "responsible ai", "ai governance",
	"multimodal ai", "diffusion model", "foundation model", "agent", "agentic workflow",
	"agentic routing", "tool use", "in-context learning", "parameter-efficient fine-tuning",
	"quantization", "perplexity", "context window", "token",
}

var aiTermPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(AITerms))
	for i, term := range AITerms {
		out[i] = regexp.MustCompile(`\bdefine\s+["']?` + regexp.QuoteMeta(term) + `["']?\b`)
	}
	return out
}()

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func anyOf(patterns []*regexp.Regexp) func(string) (string, bool) {
	return func(q string) (string, bool) {
		for _, re := range patterns {
			if m := re.FindString(q); m != "" {
				return m, true
			}
		}
		return "", false
	}
}

// mixedRule matches an arithmetic span inside a query longer than
// wordThreshold words.
func mixedRule(wordThreshold int) func(string) (string, bool) {
	return func(q string) (string, bool) {
		span := mathSpanRe.FindString(q)
		if span == "" || len(strings.Fields(q)) <= wordThreshold {
			return "", false
		}
		return span, true
	}
}

func matchCalculator(q string) (string, bool) {
	m := calculatorRe.FindString(q)
	return m, m != ""
}

// matchDictionary accepts a definition trigger unless every occurrence is
// followed by "in ai" or "in artificial intelligence".
func matchDictionary(q string) (string, bool) {
	for _, loc := range dictionaryRe.FindAllStringIndex(q, -1) {
		if !inAIRe.MatchString(q[loc[1]:]) {
			return q[loc[0]:loc[1]], true
		}
	}
	return "", false
}

func defaultRules(mixedWordThreshold int) []Rule {
	return []Rule{
		{Name: RuleMixed, Kind: RouteMixed, Match: mixedRule(mixedWordThreshold)},
		{Name: RuleAIOverride, Kind: RouteRetrieval, Match: anyOf(aiOverridePatterns)},
		{Name: RuleAITermDefinition, Kind: RouteRetrieval, Match: anyOf(aiTermPatterns)},
		{Name: RuleSystemTerms, Kind: RouteRetrieval, Match: anyOf(systemPatterns)},
		{Name: RuleCalculator, Kind: RouteCalculator, Match: matchCalculator},
		{Name: RuleDictionary, Kind: RouteDictionary, Match: matchDictionary},
	}
}
