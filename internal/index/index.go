// Package index implements the lexical TF-IDF index with query-time entity
// boosting.
//
// An Index is built once per corpus version and is read-only afterwards.
// Build publishes a new immutable snapshot by atomic pointer swap, so
// Retrieve calls running concurrently with a rebuild finish against the
// snapshot they started with.
package index

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"ragagent/internal/domain"
)

// ErrIndexNotBuilt is returned by Retrieve before the first successful Build.
var ErrIndexNotBuilt = errors.New("index has not been built")

// DefaultTopK is used when Retrieve is called with topK <= 0.
const DefaultTopK = 5

// Options configures an Index.
type Options struct {
	Boost     BoostConfig
	Stopwords bool
}

// Index is a brute-force cosine similarity index over TF-IDF vectors.
type Index struct {
	buildMu   sync.Mutex
	current   atomic.Pointer[snapshot]
	boost     *booster
	stopwords bool
}

type snapshot struct {
	vectorizer *Vectorizer
	chunks     []domain.Chunk
	vectors    []map[int]float64
	lowered    []string
}

// New creates an empty index. Retrieve fails with ErrIndexNotBuilt until
// Build succeeds.
func New(opts Options) (*Index, error) {
	b, err := newBooster(opts.Boost)
	if err != nil {
		return nil, err
	}
	return &Index{boost: b, stopwords: opts.Stopwords}, nil
}

// Build fits a fresh vocabulary over chunks and replaces the current index.
// Chunk ids are reassigned 0..n-1 in input order. On error the previous
// index stays in place.
func (x *Index) Build(chunks []domain.Chunk) error {
	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vz := NewVectorizer(x.stopwords)
	if err := vz.Fit(texts); err != nil {
		return err
	}
	snap := &snapshot{
		vectorizer: vz,
		chunks:     make([]domain.Chunk, len(chunks)),
		vectors:    make([]map[int]float64, len(chunks)),
		lowered:    make([]string, len(chunks)),
	}
	for i, ch := range chunks {
		ch.Metadata.ChunkID = i
		snap.chunks[i] = ch
		snap.vectors[i] = vz.Transform(ch.Content).lookup()
		snap.lowered[i] = strings.ToLower(ch.Content)
	}
	x.current.Store(snap)
	return nil
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	snap := x.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.chunks)
}

// Sources returns the distinct chunk sources in index order.
func (x *Index) Sources() []string {
	snap := x.current.Load()
	if snap == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, ch := range snap.chunks {
		if _, ok := seen[ch.Metadata.Source]; ok {
			continue
		}
		seen[ch.Metadata.Source] = struct{}{}
		out = append(out, ch.Metadata.Source)
	}
	return out
}

// Retrieve returns up to topK chunks ordered by descending score. Equal
// scores keep index order.
func (x *Index) Retrieve(query string, topK int) ([]domain.ScoredChunk, error) {
	snap := x.current.Load()
	if snap == nil {
		return nil, ErrIndexNotBuilt
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	matches := x.boost.match(query)
	qvec := snap.vectorizer.Transform(x.boost.expand(query, matches))

	scores := make([]float64, len(snap.vectors))
	for i := range snap.vectors {
		scores[i] = dot(snap.vectors[i], qvec)
	}
	x.boost.apply(scores, snap.lowered, matches)

	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.ScoredChunk, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.ScoredChunk{Chunk: snap.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
