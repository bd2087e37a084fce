// Package summarizer picks the most representative sentences of a text.
// It backs the offline answer generator and the corpus overview in the TUI.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultSentences is used when a caller asks for zero or fewer sentences.
const DefaultSentences = 5

var (
	sentenceRe = regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|\n|$)`)
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// Frequency ranks sentences by the normalised frequency of their content
// words and returns the top ones in their original order.
type Frequency struct {
	stopwords map[string]struct{}
}

// NewFrequency creates a frequency summarizer with the built-in stopword list.
func NewFrequency() *Frequency {
	return &Frequency{stopwords: stopwords()}
}

type sentence struct {
	pos   int
	text  string
	words []string
	score float64
}

// Summarize returns at most maxSentences sentences of text.
func (f *Frequency) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultSentences
	}
	sents := f.split(text)
	if len(sents) == 0 {
		return strings.TrimSpace(text), nil
	}

	freq := map[string]float64{}
	top := 0.0
	for _, s := range sents {
		for _, w := range s.words {
			if _, stop := f.stopwords[w]; stop {
				continue
			}
			freq[w]++
			top = math.Max(top, freq[w])
		}
	}

	for i := range sents {
		s := &sents[i]
		if len(s.words) == 0 || top == 0 {
			continue
		}
		for _, w := range s.words {
			s.score += freq[w] / top
		}
		s.score /= math.Sqrt(float64(len(s.words)))
	}

	ranked := make([]sentence, len(sents))
	copy(ranked, sents)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if maxSentences < len(ranked) {
		ranked = ranked[:maxSentences]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].pos < ranked[j].pos })

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.text
	}
	return strings.Join(out, " "), nil
}

func (f *Frequency) split(text string) []sentence {
	var out []sentence
	for _, raw := range sentenceRe.FindAllString(text, -1) {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		out = append(out, sentence{
			pos:   len(out),
			text:  t,
			words: wordRe.FindAllString(strings.ToLower(t), -1),
		})
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off",
		"own", "same", "too", "very", "can", "will", "just", "should", "now", "we", "our", "you", "your",
		"they", "their", "has", "have", "had", "do", "does", "did", "not", "no", "which", "who", "what",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
