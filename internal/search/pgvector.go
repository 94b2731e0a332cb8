// Package search implements the retrieval index over pgvector. Indexed rows
// live outside the history store and are purged wholesale per thread.
package search

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Embedder turns text into a vector. Optional: without one the index stores
// chunks for lexical search only.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Index is the pgvector-backed retrieval index.
type Index struct {
	db       dbtx
	embedder Embedder
}

// NewIndex creates an Index. embedder may be nil.
func NewIndex(pool *pgxpool.Pool, embedder Embedder) *Index {
	return &Index{db: pool, embedder: embedder}
}

// EnsureIndex creates the index table and its indexes when missing. Safe to
// call on every upload.
func (i *Index) EnsureIndex(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS document_index (
			id BIGSERIAL PRIMARY KEY,
			thread_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(1536)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_index_thread ON document_index (thread_id)`,
		`CREATE INDEX IF NOT EXISTS idx_document_index_thread_file ON document_index (thread_id, file_name)`,
	}
	for _, stmt := range stmts {
		if _, err := i.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure document index: %w", err)
		}
	}
	return nil
}

// IndexChunks replaces the indexed chunks for one file on a thread. Existing
// rows for the file go first so re-uploads never leave stale chunks behind.
func (i *Index) IndexChunks(ctx context.Context, threadID, fileName string, chunks []string) error {
	if _, err := i.db.Exec(ctx,
		`DELETE FROM document_index WHERE thread_id = $1 AND file_name = $2`,
		threadID, fileName,
	); err != nil {
		return fmt.Errorf("failed to clear indexed chunks: %w", err)
	}

	for idx, content := range chunks {
		var embedding any
		if i.embedder != nil {
			vec, err := i.embedder.GenerateEmbedding(ctx, content)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", idx, err)
			}
			embedding = pgvector.NewVector(vec)
		}

		if _, err := i.db.Exec(ctx,
			`INSERT INTO document_index (thread_id, file_name, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			threadID, fileName, idx, content, embedding,
		); err != nil {
			return fmt.Errorf("failed to index chunk %d: %w", idx, err)
		}
	}
	return nil
}

// DeleteByThread purges every indexed chunk for a thread. Purging a thread
// with nothing indexed is a no-op.
func (i *Index) DeleteByThread(ctx context.Context, threadID string) error {
	if _, err := i.db.Exec(ctx,
		`DELETE FROM document_index WHERE thread_id = $1`, threadID,
	); err != nil {
		return fmt.Errorf("failed to purge indexed chunks: %w", err)
	}
	return nil
}

// Hit is one retrieval result.
type Hit struct {
	FileName   string
	ChunkIndex int
	Content    string
	Score      float64
}

// Search retrieves the chunks on a thread most relevant to the query: cosine
// similarity when an embedder is configured, a substring match otherwise.
func (i *Index) Search(ctx context.Context, threadID, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		rows pgx.Rows
		err  error
	)
	if i.embedder != nil {
		var vec []float32
		vec, err = i.embedder.GenerateEmbedding(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		rows, err = i.db.Query(ctx,
			`SELECT file_name, chunk_index, content, 1 - (embedding <=> $2) AS score
			 FROM document_index
			 WHERE thread_id = $1 AND embedding IS NOT NULL
			 ORDER BY embedding <=> $2
			 LIMIT $3`,
			threadID, pgvector.NewVector(vec), limit,
		)
	} else {
		rows, err = i.db.Query(ctx,
			`SELECT file_name, chunk_index, content, 0::float8 AS score
			 FROM document_index
			 WHERE thread_id = $1 AND content ILIKE '%' || $2 || '%'
			 ORDER BY file_name, chunk_index
			 LIMIT $3`,
			threadID, query, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.FileName, &h.ChunkIndex, &h.Content, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
