package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/medbot-ai/medbot/internal/domain"
)

// MemoryStore is a brute-force cosine-similarity vector store kept entirely
// in process memory. It backs tests and credential-less local development;
// it does not survive restarts, so production deployments use VectorStore.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []domain.StoredChunk
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertChunks stores all chunks; the write lock makes the batch atomic.
func (m *MemoryStore) InsertChunks(ctx context.Context, chunks []domain.StoredChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	return nil
}

// Search returns up to limit chunks by descending cosine similarity.
func (m *MemoryStore) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]domain.ScoredChunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		scored = append(scored, domain.ScoredChunk{
			Chunk:      c.Chunk,
			Similarity: cosine(c.Vector, vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Count returns the total number of stored chunks.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

// ListDocuments groups stored chunks by filename.
func (m *MemoryStore) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byName := map[string]*domain.DocumentInfo{}
	var order []string
	for _, c := range m.chunks {
		info, ok := byName[c.Metadata.Filename]
		if !ok {
			info = &domain.DocumentInfo{
				Filename:     c.Metadata.Filename,
				DocumentType: c.Metadata.DocumentType,
			}
			byName[c.Metadata.Filename] = info
			order = append(order, c.Metadata.Filename)
		}
		info.ChunkCount++
	}

	sort.Strings(order)
	docs := make([]domain.DocumentInfo, 0, len(order))
	for _, name := range order {
		docs = append(docs, *byName[name])
	}
	return docs, nil
}

// DeleteByFilename removes all chunks belonging to one uploaded document.
func (m *MemoryStore) DeleteByFilename(ctx context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.Metadata.Filename != filename {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

// Clear removes all stored chunks.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// cosine computes cosine similarity between two vectors.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
