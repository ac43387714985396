package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/kb"
	"github.com/opsdeck/opsdeck/internal/pkg/ctxlog"
)

const systemPrompt = `You are an experienced platform operations engineer assisting with ` +
	`infrastructure questions. Answer using the provided context from internal ` +
	`runbooks and knowledge-base articles. When the context contains commands, ` +
	`include them in fenced code blocks. If the context does not cover the ` +
	`question, say so plainly instead of guessing.`

const emptyKBAnswer = "I don't have any relevant information in the knowledge base for this question yet. " +
	"Try loading the relevant runbooks first."

// Retriever finds knowledge-base chunks relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]kb.ScoredChunk, error)
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Pipeline answers questions over the knowledge base.
type Pipeline struct {
	retriever Retriever
	completer Completer
	topK      int
}

// NewPipeline creates a retrieval-augmented answering pipeline.
func NewPipeline(retriever Retriever, completer Completer, topK int) *Pipeline {
	if topK <= 0 {
		topK = 4
	}
	return &Pipeline{
		retriever: retriever,
		completer: completer,
		topK:      topK,
	}
}

// Answer retrieves context for the query and generates an answer. An
// empty knowledge base yields a canned answer with no sources rather
// than an error.
func (p *Pipeline) Answer(ctx context.Context, query string) (*domain.QueryResult, error) {
	chunks, err := p.retriever.Search(ctx, query, p.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(chunks) == 0 {
		return &domain.QueryResult{
			Result:  emptyKBAnswer,
			Sources: []domain.SourceDocument{},
		}, nil
	}

	ctxlog.FromContext(ctx).Debug("retrieved context",
		"chunks", len(chunks),
		"top_score", chunks[0].Score,
	)

	answer, err := p.completer.Complete(ctx, systemPrompt, buildPrompt(query, chunks))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.QueryResult{
		Result:  strings.TrimSpace(answer),
		Sources: sourcesFrom(chunks),
	}, nil
}

// buildPrompt assembles the user prompt from retrieved chunks, labeling
// each with its document title so the model can attribute statements.
func buildPrompt(query string, chunks []kb.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, c.DocTitle, c.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// sourcesFrom deduplicates chunks by document, keeping the best score
// per document and preserving retrieval order.
func sourcesFrom(chunks []kb.ScoredChunk) []domain.SourceDocument {
	seen := make(map[string]int, len(chunks))
	sources := make([]domain.SourceDocument, 0, len(chunks))
	for _, c := range chunks {
		if i, ok := seen[c.DocumentID]; ok {
			if c.Score > sources[i].Score {
				sources[i].Score = c.Score
			}
			continue
		}
		seen[c.DocumentID] = len(sources)
		sources = append(sources, domain.SourceDocument{
			Source: c.Source,
			Title:  c.DocTitle,
			Score:  c.Score,
		})
	}
	return sources
}
