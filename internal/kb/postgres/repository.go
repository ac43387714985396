// Package postgres provides the PostgreSQL implementation of the
// knowledge-base repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsdeck/opsdeck/internal/kb"
)

// Repository implements kb.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateDocument inserts a document and fills in generated fields.
func (r *Repository) CreateDocument(ctx context.Context, doc *kb.Document) error {
	query := `
		INSERT INTO kb_documents (title, source, component)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		doc.Title,
		doc.Source,
		doc.Component,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id string) (*kb.Document, error) {
	query := `
		SELECT id, title, source, component, created_at
		FROM kb_documents
		WHERE id = $1
	`
	var doc kb.Document
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Source,
		&doc.Component,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kb.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// ListDocuments retrieves all documents, newest first.
func (r *Repository) ListDocuments(ctx context.Context) ([]*kb.Document, error) {
	query := `
		SELECT id, title, source, component, created_at
		FROM kb_documents
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*kb.Document, 0)
	for rows.Next() {
		var doc kb.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.Component, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CreateChunks inserts chunks in a single batch.
func (r *Repository) CreateChunks(ctx context.Context, chunks []kb.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO kb_chunks (document_id, seq, content, embedding)
		VALUES ($1, $2, $3, $4)
	`
	for _, c := range chunks {
		batch.Queue(query, c.DocumentID, c.Seq, c.Content, c.Embedding)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	return nil
}

// ListChunks retrieves all chunks with their document metadata, used to
// rebuild the in-memory index at startup.
func (r *Repository) ListChunks(ctx context.Context) ([]kb.Chunk, error) {
	query := `
		SELECT c.id, c.document_id, d.title, d.source, d.component, c.seq, c.content, c.embedding
		FROM kb_chunks c
		JOIN kb_documents d ON d.id = c.document_id
		ORDER BY d.created_at, c.seq
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]kb.Chunk, 0)
	for rows.Next() {
		var c kb.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.DocTitle, &c.Source, &c.Component, &c.Seq, &c.Content, &c.Embedding); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// GetDocumentContent reassembles a document's text from its chunks.
// Overlap between adjacent chunks is not removed; callers use the result
// for section extraction, not display.
func (r *Repository) GetDocumentContent(ctx context.Context, documentID string) (string, error) {
	query := `
		SELECT content
		FROM kb_chunks
		WHERE document_id = $1
		ORDER BY seq
	`
	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return "", fmt.Errorf("get document content: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", fmt.Errorf("scan content: %w", err)
		}
		parts = append(parts, content)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", kb.ErrDocumentNotFound
	}
	return strings.Join(parts, "\n\n"), nil
}
