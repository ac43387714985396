// Package assistant provides the chat endpoint over the RAG pipeline:
// answer caching, markdown rendering and command-block extraction.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/kb"
	"github.com/opsdeck/opsdeck/internal/pkg/ctxlog"
	"github.com/opsdeck/opsdeck/internal/rag"
)

// ErrQueryFailed indicates the retrieval pipeline or model runtime was
// unavailable.
var ErrQueryFailed = errors.New("assistant query failed")

// Answerer produces an answer for a query.
type Answerer interface {
	Answer(ctx context.Context, query string) (*domain.QueryResult, error)
}

// Ingester adds documents to the knowledge base.
type Ingester interface {
	Ingest(ctx context.Context, title, source, component, content string) (*kb.Document, int, error)
}

// Service answers operator queries.
type Service struct {
	pipeline Answerer
	cache    *rag.AnswerCache
	renderer *Renderer
	kb       Ingester
}

// NewService creates an assistant service. cache may be nil, in which
// case every query goes through the pipeline.
func NewService(pipeline Answerer, cache *rag.AnswerCache, renderer *Renderer, ingester Ingester) *Service {
	return &Service{
		pipeline: pipeline,
		cache:    cache,
		renderer: renderer,
		kb:       ingester,
	}
}

// Query answers a question. Cached answers are served unless
// forceRefresh is set; fresh answers are rendered, scanned for command
// blocks and cached.
func (s *Service) Query(ctx context.Context, query, additionalContext string, forceRefresh bool) (*domain.QueryResult, error) {
	full := strings.TrimSpace(query)
	if additionalContext != "" {
		full = full + "\n\nAdditional context: " + additionalContext
	}

	if !forceRefresh {
		if cached := s.cache.Get(ctx, full); cached != nil {
			ctxlog.FromContext(ctx).Debug("answer served from cache")
			return cached, nil
		}
	}

	result, err := s.pipeline.Answer(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrQueryFailed, err)
	}

	result.HTML, result.CommandBlocks = s.renderer.Render(result.Result)

	s.cache.Set(ctx, full, result)
	return result, nil
}

// IngestDocument adds a document to the knowledge base and returns the
// stored document with its chunk count.
func (s *Service) IngestDocument(ctx context.Context, title, source, component, content string) (*kb.Document, int, error) {
	doc, chunks, err := s.kb.Ingest(ctx, title, source, component, content)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrQueryFailed, err)
	}

	ctxlog.FromContext(ctx).Info("document ingested",
		"document_id", doc.ID,
		"title", doc.Title,
		"chunks", chunks,
	)
	return doc, chunks, nil
}
