package index

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

type term struct {
	id     int
	weight float64
}

// sparseVector holds the non-zero weights of a vector sorted by term id, so
// sums over it are computed in a fixed order.
type sparseVector []term

// Vectorizer is a TF-IDF vectorizer over a fitted vocabulary.
// Term weight is raw count times smoothed IDF, and vectors are L2-normalized.
type Vectorizer struct {
	vocabulary   map[string]int
	idf          []float64
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewVectorizer creates an unfitted vectorizer. When useStopwords is set the
// built-in English stopword list is dropped from both corpus and queries.
func NewVectorizer(useStopwords bool) *Vectorizer {
	v := &Vectorizer{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}_]{2,}`),
	}
	if useStopwords {
		v.stopwords = defaultStopwords()
	}
	return v
}

// Fit builds the vocabulary and IDF values from the corpus.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF fit")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range v.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return nil
}

// Transform computes the TF-IDF vector of text. Terms outside the fitted
// vocabulary are ignored.
func (v *Vectorizer) Transform(text string) sparseVector {
	tf := make(map[int]int)
	for _, tok := range v.tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			tf[idx]++
		}
	}
	vec := make(sparseVector, 0, len(tf))
	for idx, count := range tf {
		vec = append(vec, term{id: idx, weight: float64(count) * v.idf[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].id < vec[j].id })
	norm := 0.0
	for _, t := range vec {
		norm += t.weight * t.weight
	}
	// L2 normalize
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i].weight /= norm
		}
	}
	return vec
}

func (v sparseVector) lookup() map[int]float64 {
	m := make(map[int]float64, len(v))
	for _, t := range v {
		m[t.id] = t.weight
	}
	return m
}

func (v *Vectorizer) tokenize(text string) []string {
	raw := v.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 || len(v.stopwords) == 0 {
		return raw
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := v.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// dot is the cosine similarity between a stored unit vector and a query
// unit vector.
func dot(stored map[int]float64, query sparseVector) float64 {
	sum := 0.0
	for _, t := range query {
		sum += t.weight * stored[t.id]
	}
	return sum
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
