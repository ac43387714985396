package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_EmptySearch(t *testing.T) {
	ix := NewIndex()

	result := ix.Search([]float32{1, 0, 0}, 5)
	assert.Empty(t, result)
	assert.Equal(t, 0, ix.Size())
}

func TestIndex_SkipsChunksWithoutEmbedding(t *testing.T) {
	ix := NewIndex()
	ix.Add([]Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b"},
	})

	assert.Equal(t, 1, ix.Size())
}

func TestIndex_SearchRanksBySimilarity(t *testing.T) {
	ix := NewIndex()
	ix.Add([]Chunk{
		{ID: "x-axis", Embedding: []float32{1, 0, 0}},
		{ID: "y-axis", Embedding: []float32{0, 1, 0}},
		{ID: "diagonal", Embedding: []float32{1, 1, 0}},
	})

	result := ix.Search([]float32{1, 0, 0}, 3)
	require.Len(t, result, 3)

	assert.Equal(t, "x-axis", result[0].ID)
	assert.InDelta(t, 1.0, result[0].Score, 1e-6)
	assert.Equal(t, "diagonal", result[1].ID)
	assert.Equal(t, "y-axis", result[2].ID)
	assert.InDelta(t, 0.0, result[2].Score, 1e-6)
}

func TestIndex_SearchTruncatesToK(t *testing.T) {
	ix := NewIndex()
	ix.Add([]Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0.9, 0.1}},
		{ID: "c", Embedding: []float32{0, 1}},
	})

	result := ix.Search([]float32{1, 0}, 2)
	require.Len(t, result, 2)
	assert.Equal(t, "a", result[0].ID)
	assert.Equal(t, "b", result[1].ID)
}

func TestIndex_ScaleInvariance(t *testing.T) {
	ix := NewIndex()
	ix.Add([]Chunk{
		{ID: "small", Embedding: []float32{0.001, 0}},
		{ID: "large", Embedding: []float32{1000, 0}},
	})

	// Normalization makes magnitude irrelevant; both score identically.
	result := ix.Search([]float32{5, 0}, 2)
	require.Len(t, result, 2)
	assert.InDelta(t, result[0].Score, result[1].Score, 1e-6)
}

func TestIndex_Reset(t *testing.T) {
	ix := NewIndex()
	ix.Add([]Chunk{{ID: "old", Embedding: []float32{1, 0}}})

	ix.Reset([]Chunk{
		{ID: "new-1", Embedding: []float32{1, 0}},
		{ID: "new-2", Embedding: []float32{0, 1}},
	})

	assert.Equal(t, 2, ix.Size())
	result := ix.Search([]float32{1, 0}, 5)
	require.Len(t, result, 2)
	assert.Equal(t, "new-1", result[0].ID)
}
