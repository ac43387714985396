// Package kb implements the knowledge base: document ingestion, chunk
// embedding storage and similarity retrieval for the RAG pipeline and
// incident analysis.
package kb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Store errors.
var (
	ErrDocumentNotFound = errors.New("document not found")
)

// Document is an ingested knowledge-base document.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Component string    `json:"component,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is an embedded fragment of a document.
type Chunk struct {
	ID         string
	DocumentID string
	DocTitle   string
	Source     string
	Component  string
	Seq        int
	Content    string
	Embedding  []float32
}

// ScoredChunk is a chunk with its retrieval relevance score.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Repository defines knowledge-base persistence.
type Repository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	CreateChunks(ctx context.Context, chunks []Chunk) error
	ListChunks(ctx context.Context) ([]Chunk, error)
	GetDocumentContent(ctx context.Context, documentID string) (string, error)
}

// Embedder produces embedding vectors for texts.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Config holds retrieval settings.
type Config struct {
	TopK          int
	ChunkSize     int
	ChunkOverlap  int
	EmbedCacheTTL time.Duration
}

// Service coordinates ingestion and retrieval.
type Service struct {
	repo     Repository
	embedder Embedder
	index    *Index
	chunker  *Chunker
	topK     int

	// Query embeddings are cached in-process; the same dashboard query
	// is often issued repeatedly within a short window.
	embedCache *ttlcache.Cache[string, []float32]
}

// NewService creates a knowledge-base service.
func NewService(repo Repository, embedder Embedder, cfg Config) *Service {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}
	ttl := cfg.EmbedCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, []float32](ttl),
	)
	go cache.Start()

	return &Service{
		repo:       repo,
		embedder:   embedder,
		index:      NewIndex(),
		chunker:    NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		topK:       topK,
		embedCache: cache,
	}
}

// LoadIndex rebuilds the in-memory index from persisted chunks.
func (s *Service) LoadIndex(ctx context.Context) error {
	chunks, err := s.repo.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	s.index.Reset(chunks)
	return nil
}

// Size returns the number of indexed chunks.
func (s *Service) Size() int {
	return s.index.Size()
}

// Ingest chunks, embeds and persists a document, then adds it to the
// live index. Returns the stored document and the number of chunks.
func (s *Service) Ingest(ctx context.Context, title, source, component, content string) (*Document, int, error) {
	parts := s.chunker.Split(content)
	if len(parts) == 0 {
		return nil, 0, fmt.Errorf("document %q has no content", title)
	}

	vectors, err := s.embedder.Embed(ctx, parts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed document %q: %w", title, err)
	}

	doc := &Document{
		Title:     title,
		Source:    source,
		Component: component,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, 0, fmt.Errorf("create document: %w", err)
	}

	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{
			DocumentID: doc.ID,
			DocTitle:   doc.Title,
			Source:     doc.Source,
			Component:  doc.Component,
			Seq:        i,
			Content:    p,
			Embedding:  vectors[i],
		}
	}
	if err := s.repo.CreateChunks(ctx, chunks); err != nil {
		return nil, 0, fmt.Errorf("create chunks: %w", err)
	}

	s.index.Add(chunks)
	return doc, len(chunks), nil
}

// Search retrieves the top-k chunks relevant to the query. An empty
// knowledge base yields an empty result, not an error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = s.topK
	}
	if s.index.Size() == 0 {
		return []ScoredChunk{}, nil
	}

	vec, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.index.Search(vec, k), nil
}

// DocumentContent returns the full reassembled text of a document.
func (s *Service) DocumentContent(ctx context.Context, documentID string) (string, error) {
	return s.repo.GetDocumentContent(ctx, documentID)
}

func (s *Service) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if item := s.embedCache.Get(query); item != nil {
		return item.Value(), nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	s.embedCache.Set(query, vectors[0], ttlcache.DefaultTTL)
	return vectors[0], nil
}
