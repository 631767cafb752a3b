package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medbot-ai/medbot/internal/domain"
	"github.com/medbot-ai/medbot/internal/port"
)

// IndexService is the embedding index: it owns chunk ingestion, similarity
// search and document bookkeeping over an AIProvider and a VectorStore.
// Mutations propagate errors to the caller; an upload either fully succeeds
// or fully fails. Every embedding call runs under a deadline so a hung
// backend fails the operation instead of stalling it.
type IndexService struct {
	ai      port.AIProvider
	store   port.VectorStore
	timeout time.Duration
}

// NewIndexService creates a new index service. timeout bounds calls to the
// embedding backend; non-positive values fall back to 60s.
func NewIndexService(ai port.AIProvider, store port.VectorStore, timeout time.Duration) *IndexService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &IndexService{ai: ai, store: store, timeout: timeout}
}

// Add merges upload metadata into each chunk, assigns a fresh unique id per
// chunk, embeds the contents and persists everything in one transaction.
func (s *IndexService) Add(ctx context.Context, chunks []domain.Chunk, meta domain.UploadMeta) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.ai == nil {
		return fmt.Errorf("add chunks: %w", port.ErrAIUnavailable)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vectors, err := s.ai.EmbedBatch(embedCtx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks: %w",
			len(vectors), len(chunks), port.ErrNoEmbeddings)
	}

	stored := make([]domain.StoredChunk, len(chunks))
	for i, c := range chunks {
		c.Metadata.Filename = meta.Filename
		c.Metadata.SourceID = meta.StoredPath
		if meta.DocumentType != "" {
			c.Metadata.DocumentType = meta.DocumentType
		}
		stored[i] = domain.StoredChunk{
			ID:     uuid.NewString(),
			Chunk:  c,
			Vector: vectors[i],
		}
	}

	if err := s.store.InsertChunks(ctx, stored); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	slog.Info("indexed document", "filename", meta.Filename, "chunks", len(stored))
	return nil
}

// Search embeds the query with the same model used at ingestion and returns
// up to k hits ordered by descending similarity, each with its raw score.
func (s *IndexService) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("search: %w", port.ErrAIUnavailable)
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vec, err := s.ai.Embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return hits, nil
}

// Count returns the total number of stored chunks.
func (s *IndexService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// ListDocuments groups stored chunks by filename.
func (s *IndexService) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	return s.store.ListDocuments(ctx)
}

// DeleteByFilename removes all chunks of one document; deleting an unknown
// filename is a no-op.
func (s *IndexService) DeleteByFilename(ctx context.Context, filename string) error {
	if err := s.store.DeleteByFilename(ctx, filename); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	slog.Info("deleted document chunks", "filename", filename)
	return nil
}

// Clear removes all stored chunks.
func (s *IndexService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	slog.Info("cleared document index")
	return nil
}
