package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/medbot-ai/medbot/internal/domain"
)

// VectorStore implements port.VectorStore on pgvector. Postgres commits are
// durable, so a mutation that returns nil survives a process restart.
// Similarity is cosine: 1 - (vector <=> query), higher = more similar.
type VectorStore struct {
	store *PostgresStore

	// mu serializes mutations against this storage instance. Searches are
	// read-only and run concurrently.
	mu sync.Mutex
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore) *VectorStore {
	return &VectorStore{store: store}
}

// InsertChunks persists all chunks in a single transaction.
func (v *VectorStore) InsertChunks(ctx context.Context, chunks []domain.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, source_id, filename, sequence_index, total_chunks, document_type, content, vector)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Metadata.SourceID, c.Metadata.Filename, c.Metadata.SequenceIndex,
			c.Metadata.TotalChunks, c.Metadata.DocumentType, c.Content, pgvector.NewVector(c.Vector),
		); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Search returns up to limit chunks by descending cosine similarity.
func (v *VectorStore) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error) {
	query := `SELECT source_id, filename, sequence_index, total_chunks, document_type, content,
	                 1 - (vector <=> $1) AS similarity
	          FROM chunks
	          ORDER BY vector <=> $1
	          LIMIT $2`

	rows, err := v.store.db.QueryContext(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(
			&sc.Metadata.SourceID, &sc.Metadata.Filename, &sc.Metadata.SequenceIndex,
			&sc.Metadata.TotalChunks, &sc.Metadata.DocumentType, &sc.Content, &sc.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}

// Count returns the total number of stored chunks.
func (v *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// ListDocuments groups stored chunks by filename.
func (v *VectorStore) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	query := `SELECT filename, COUNT(*), MAX(document_type)
	          FROM chunks
	          GROUP BY filename
	          ORDER BY filename`

	rows, err := v.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentInfo
	for rows.Next() {
		var d domain.DocumentInfo
		if err := rows.Scan(&d.Filename, &d.ChunkCount, &d.DocumentType); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteByFilename removes all chunks belonging to one uploaded document.
func (v *VectorStore) DeleteByFilename(ctx context.Context, filename string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.store.db.ExecContext(ctx, `DELETE FROM chunks WHERE filename = $1`, filename); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Clear removes all stored chunks.
func (v *VectorStore) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.store.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}

// Close closes the underlying Postgres store.
func (v *VectorStore) Close() error {
	return v.store.Close()
}
