package port

import (
	"context"

	"github.com/medbot-ai/medbot/internal/domain"
)

// VectorStore persists embedded chunks and answers nearest-neighbor queries
// with a cosine similarity score (higher = more similar). Mutations must be
// durably committed before returning.
type VectorStore interface {
	// InsertChunks persists the given chunks atomically: either all chunks
	// are stored or none are.
	InsertChunks(ctx context.Context, chunks []domain.StoredChunk) error

	// Search returns up to limit chunks ordered by descending similarity
	// to the query vector.
	Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)

	// ListDocuments groups stored chunks by filename.
	ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error)

	// DeleteByFilename removes all chunks whose filename metadata matches.
	// Deleting a filename with no chunks is a no-op.
	DeleteByFilename(ctx context.Context, filename string) error

	// Clear removes all stored chunks.
	Clear(ctx context.Context) error

	Close() error
}
