// Package retrieval ranks stored chunks by semantic similarity to a query.
package retrieval

import (
	"math"
	"sort"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/store"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Result is a retrieved chunk with its relevance score, clamped to [0,1].
type Result struct {
	Chunk *models.Chunk
	Score float64
}

// Retriever runs brute-force cosine search over the store's committed chunk
// pool. At corpus sizes this system targets an exhaustive scan is fast enough;
// the contract (descending score, document-creation-then-sequence tie-break)
// is what callers depend on, not the scan itself.
type Retriever struct {
	store *store.Store
}

// New creates a retriever reading from the given store.
func New(s *store.Store) *Retriever {
	return &Retriever{store: s}
}

// Search returns the top k chunks by cosine similarity to queryEmbedding,
// in descending score order. Exact ties keep document creation order, then
// ascending sequence index, so identical inputs always produce identical
// output. An empty store yields an empty result, not an error.
func (r *Retriever) Search(queryEmbedding []float32, k int) []Result {
	pool := r.store.Snapshot()
	if len(pool) == 0 || k <= 0 {
		return nil
	}

	scored := make([]Result, len(pool))
	for i, ch := range pool {
		scored[i] = Result{Chunk: ch, Score: Cosine(queryEmbedding, ch.Embedding)}
	}
	// The pool is ordered by document creation then sequence index, so a
	// stable sort by score alone yields the documented tie-break.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if k > len(scored) {
		k = len(scored)
	}
	out := scored[:k:k]
	for i := range out {
		out[i].Score = utils.Clamp01(out[i].Score)
	}
	return out
}

// Cosine returns the cosine similarity of a and b in [-1,1]. Mismatched or
// zero-length vectors, and vectors with zero norm, score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
