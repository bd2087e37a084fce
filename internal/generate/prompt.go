package generate

import (
	"fmt"
	"strings"

	"ragagent/internal/domain"
)

const systemPrompt = "You are a helpful assistant that answers questions based on the provided context. " +
	"If the answer cannot be found in the context, provide a direct and concise response stating that the information is not in the context. " +
	"For example, if asked about multilingual support and there's no mention of it, say 'There is no mention of multilingual support in the context. The system appears to be designed primarily for English queries based on the available information.' " +
	"Be direct and concise - don't apologize or be overly verbose when information is missing. " +
	"Do not make up information that is not in the context. " +
	"If the query contains multiple questions or parts, make sure to address all of them in your answer. " +
	"When answering questions about specific products or features, be sure to include all relevant details from the context. " +
	"For product-specific questions, focus on the product's features, benefits, use cases, and unique selling points. " +
	"When answering questions about RAGent AI (the company), be thorough and include key information about its history, products, and other relevant details from the context. " +
	"Pay special attention to company-related queries like 'What is RAGent AI?' and ensure you provide complete information from the context."

const companyNotice = "IMPORTANT: This query is about RAGent AI. If information about RAGent AI is in the context, be sure to include it in your answer.\n\n"

const sectionSeparator = "\n\n---\n\n"

// Prompt is a rendered chat prompt.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders query and its context into the system and user
// messages sent to a chat model. Calculator sections are lifted out of the
// document list into a dedicated "Calculation Result" line; documents keep
// their 1-based position in sections.
func BuildPrompt(query string, sections []domain.ContextSection) Prompt {
	var (
		docs        []string
		calculation string
	)
	for i, s := range sections {
		if s.Source == domain.CalculatorSource {
			calculation = s.Content
			continue
		}
		score := 0.0
		if s.Score != nil {
			score = *s.Score
		}
		docs = append(docs, fmt.Sprintf("[Document %d] From %s (Relevance: %.2f):\n%s", i+1, s.Source, score, s.Content))
	}

	contextText := strings.Join(docs, sectionSeparator)
	if strings.Contains(strings.ToLower(query), "ragent ai") {
		contextText = companyNotice + contextText
	}

	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\n")
	if calculation != "" {
		fmt.Fprintf(&b, "Calculation Result: %s\n\n", calculation)
	}
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	b.WriteString("Answer the question based on the provided context and calculation result (if any). Make sure to address all parts of the question.")

	return Prompt{System: systemPrompt, User: b.String()}
}
