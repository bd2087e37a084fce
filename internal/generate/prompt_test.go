package generate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ragagent/internal/domain"
)

func score(v float64) *float64 { return &v }

func TestBuildPrompt(t *testing.T) {
	sections := []domain.ContextSection{
		{Content: "RAGent Search is the flagship product.", Source: "products.txt", Score: score(0.734)},
		{Content: "Founded in 2020.", Source: "company.txt", Score: score(0.5)},
	}

	p := BuildPrompt("What is the flagship product?", sections)
	assert.Equal(t, systemPrompt, p.System)
	assert.Equal(t, "Context:\n"+
		"[Document 1] From products.txt (Relevance: 0.73):\nRAGent Search is the flagship product."+
		"\n\n---\n\n"+
		"[Document 2] From company.txt (Relevance: 0.50):\nFounded in 2020."+
		"\n\n"+
		"Question: What is the flagship product?\n\n"+
		"Answer the question based on the provided context and calculation result (if any). Make sure to address all parts of the question.",
		p.User)
}

func TestBuildPromptCalculation(t *testing.T) {
	sections := []domain.ContextSection{
		{Content: "RAGent Search is the flagship product.", Source: "products.txt", Score: score(0.9)},
		{Content: "Calculation result: square root of 144 = The square root of 144.0 is 12.000000", Source: domain.CalculatorSource},
	}

	p := BuildPrompt("If I calculate the square root of 144, what is RAGent AI's main product?", sections)
	assert.True(t, strings.HasPrefix(p.User, "Context:\n"+companyNotice+"[Document 1] From products.txt (Relevance: 0.90)"))
	assert.Contains(t, p.User, "\n\nCalculation Result: Calculation result: square root of 144 = The square root of 144.0 is 12.000000\n\nQuestion: ")
	assert.NotContains(t, p.User, "[Document 2]")
}

func TestBuildPromptEmptyContext(t *testing.T) {
	p := BuildPrompt("anything", nil)
	assert.True(t, strings.HasPrefix(p.User, "Context:\n\n\nQuestion: anything\n\n"))
}
