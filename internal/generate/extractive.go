package generate

import (
	"context"
	"fmt"
	"strings"

	"ragagent/internal/domain"
	"ragagent/internal/summarizer"
)

// DefaultExtractiveSentences bounds the length of an extractive answer.
const DefaultExtractiveSentences = 3

// Extractive answers offline by summarizing the retrieved context. It never
// invents text: every sentence of the answer comes from a context section.
type Extractive struct {
	summarizer domain.Summarizer
	sentences  int
}

// NewExtractive creates an extractive generator returning at most
// sentences sentences.
func NewExtractive(sentences int) *Extractive {
	if sentences <= 0 {
		sentences = DefaultExtractiveSentences
	}
	return &Extractive{summarizer: summarizer.NewFrequency(), sentences: sentences}
}

// Name returns the identifier of this generator.
func (e *Extractive) Name() string { return string(ProviderExtractive) }

// Generate summarizes the document sections and prefixes any calculator
// result.
func (e *Extractive) Generate(ctx context.Context, _ string, sections []domain.ContextSection) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		texts       []string
		sources     []string
		seen        = map[string]bool{}
		calculation string
	)
	for _, s := range sections {
		if s.Source == domain.CalculatorSource {
			calculation = s.Content
			continue
		}
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		texts = append(texts, strings.TrimSpace(s.Content))
		if !seen[s.Source] {
			seen[s.Source] = true
			sources = append(sources, s.Source)
		}
	}
	if len(texts) == 0 && calculation == "" {
		return "", ErrNoContext
	}

	var b strings.Builder
	if calculation != "" {
		b.WriteString(calculation)
	}
	if len(texts) > 0 {
		summary, err := e.summarizer.Summarize(strings.Join(texts, "\n"), e.sentences)
		if err != nil {
			return "", fmt.Errorf("summarize context: %w", err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(summary)
		fmt.Fprintf(&b, "\n\nSources: %s", strings.Join(sources, ", "))
	}
	return b.String(), nil
}
