package kb

import (
	"math"
	"sort"
	"sync"

	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
)

// Index is an in-memory cosine-similarity index over chunk embeddings.
// Vectors are L2-normalized on insert so scoring reduces to a dot
// product. The index is rebuilt from the store at startup and updated
// on ingest; it is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries []indexEntry
}

type indexEntry struct {
	chunk  Chunk
	vector []float32
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add inserts chunks into the index. Chunks without embeddings are skipped.
func (ix *Index) Add(chunks []Chunk) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		ix.entries = append(ix.entries, indexEntry{
			chunk:  c,
			vector: normalizeVector(c.Embedding),
		})
	}
	metrics.KBChunksIndexed.Set(float64(len(ix.entries)))
}

// Reset replaces the index contents.
func (ix *Index) Reset(chunks []Chunk) {
	ix.mu.Lock()
	ix.entries = ix.entries[:0]
	ix.mu.Unlock()
	ix.Add(chunks)
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search returns the k most similar chunks to the query vector, highest
// score first. Returns an empty slice when the index is empty.
func (ix *Index) Search(query []float32, k int) []ScoredChunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 || k <= 0 {
		return []ScoredChunk{}
	}

	q := normalizeVector(query)

	scored := make([]ScoredChunk, 0, len(ix.entries))
	for _, e := range ix.entries {
		scored = append(scored, ScoredChunk{
			Chunk: e.chunk,
			Score: dot(q, e.vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
