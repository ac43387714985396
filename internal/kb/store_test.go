package kb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	documents []*Document
	chunks    []Chunk
	listErr   error
}

func (m *mockRepository) CreateDocument(_ context.Context, doc *Document) error {
	doc.ID = "doc-1"
	doc.CreatedAt = time.Now()
	m.documents = append(m.documents, doc)
	return nil
}

func (m *mockRepository) GetDocument(_ context.Context, id string) (*Document, error) {
	for _, d := range m.documents {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (m *mockRepository) ListDocuments(_ context.Context) ([]*Document, error) {
	return m.documents, nil
}

func (m *mockRepository) CreateChunks(_ context.Context, chunks []Chunk) error {
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockRepository) ListChunks(_ context.Context) ([]Chunk, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.chunks, nil
}

func (m *mockRepository) GetDocumentContent(_ context.Context, documentID string) (string, error) {
	var content string
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			if content != "" {
				content += "\n\n"
			}
			content += c.Content
		}
	}
	if content == "" {
		return "", ErrDocumentNotFound
	}
	return content, nil
}

// mockEmbedder implements Embedder for testing.
type mockEmbedder struct {
	calls int
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(inputs))
	for i, input := range inputs {
		// Deterministic per-input vector.
		vectors[i] = []float32{float32(len(input)), 1}
	}
	return vectors, nil
}

func newTestService(repo *mockRepository, embedder *mockEmbedder) *Service {
	return NewService(repo, embedder, Config{
		TopK:          2,
		ChunkSize:     100,
		ChunkOverlap:  10,
		EmbedCacheTTL: time.Minute,
	})
}

func TestIngest(t *testing.T) {
	repo := &mockRepository{}
	service := newTestService(repo, &mockEmbedder{})

	doc, chunks, err := service.Ingest(context.Background(), "Runbook", "runbooks/x.md", "database", "Some runbook content.")
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, 1, chunks)
	require.Len(t, repo.chunks, 1)
	assert.Equal(t, "doc-1", repo.chunks[0].DocumentID)
	assert.Equal(t, "Runbook", repo.chunks[0].DocTitle)
	assert.NotEmpty(t, repo.chunks[0].Embedding)

	// Ingested chunks are searchable without a reload.
	assert.Equal(t, 1, service.Size())
}

func TestIngest_EmptyContent(t *testing.T) {
	service := newTestService(&mockRepository{}, &mockEmbedder{})

	_, _, err := service.Ingest(context.Background(), "Empty", "s", "", "   ")
	assert.Error(t, err)
}

func TestIngest_EmbedderFailure(t *testing.T) {
	repo := &mockRepository{}
	service := newTestService(repo, &mockEmbedder{err: errors.New("runtime down")})

	_, _, err := service.Ingest(context.Background(), "Runbook", "s", "", "content")
	assert.Error(t, err)
	assert.Empty(t, repo.documents, "nothing may be persisted when embedding fails")
}

func TestSearch_EmptyIndex(t *testing.T) {
	embedder := &mockEmbedder{}
	service := newTestService(&mockRepository{}, embedder)

	result, err := service.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Zero(t, embedder.calls, "an empty index must not call the embedder")
}

func TestSearch_CachesQueryEmbedding(t *testing.T) {
	repo := &mockRepository{}
	embedder := &mockEmbedder{}
	service := newTestService(repo, embedder)

	_, _, err := service.Ingest(context.Background(), "Runbook", "s", "", "content")
	require.NoError(t, err)
	callsAfterIngest := embedder.calls

	_, err = service.Search(context.Background(), "same query", 2)
	require.NoError(t, err)
	assert.Equal(t, callsAfterIngest+1, embedder.calls)

	_, err = service.Search(context.Background(), "same query", 2)
	require.NoError(t, err)
	assert.Equal(t, callsAfterIngest+1, embedder.calls, "repeated query must hit the embedding cache")
}

func TestLoadIndex(t *testing.T) {
	repo := &mockRepository{
		chunks: []Chunk{
			{ID: "c1", DocumentID: "doc-1", Content: "a", Embedding: []float32{1, 0}},
			{ID: "c2", DocumentID: "doc-1", Content: "b", Embedding: []float32{0, 1}},
		},
	}
	service := newTestService(repo, &mockEmbedder{})

	require.NoError(t, service.LoadIndex(context.Background()))
	assert.Equal(t, 2, service.Size())
}

func TestLoadIndex_RepositoryFailure(t *testing.T) {
	repo := &mockRepository{listErr: errors.New("db down")}
	service := newTestService(repo, &mockEmbedder{})

	assert.Error(t, service.LoadIndex(context.Background()))
}
