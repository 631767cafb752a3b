package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbot-ai/medbot/internal/domain"
)

func stored(id, filename string, seq int, vector []float32) domain.StoredChunk {
	return domain.StoredChunk{
		ID: id,
		Chunk: domain.Chunk{
			Content: "content " + id,
			Metadata: domain.Metadata{
				Filename: filename, SequenceIndex: seq, TotalChunks: 1, DocumentType: "medical_pdf",
			},
		},
		Vector: vector,
	}
}

func TestMemoryStore_SearchOrdersByCosine(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.InsertChunks(ctx, []domain.StoredChunk{
		stored("far", "b.pdf", 0, []float32{0, 1}),
		stored("near", "a.pdf", 0, []float32{1, 0}),
		stored("mid", "c.pdf", 0, []float32{1, 1}),
	}))

	hits, err := m.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "a.pdf", hits[0].Metadata.Filename)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "c.pdf", hits[1].Metadata.Filename)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestMemoryStore_SearchZeroVector(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.InsertChunks(ctx, []domain.StoredChunk{
		stored("a", "a.pdf", 0, []float32{1, 0}),
	}))

	hits, err := m.Search(ctx, []float32{0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Zero(t, hits[0].Similarity)
}

func TestMemoryStore_ListDocuments(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.InsertChunks(ctx, []domain.StoredChunk{
		stored("a1", "a.pdf", 0, []float32{1, 0}),
		stored("a2", "a.pdf", 1, []float32{1, 0}),
		stored("b1", "b.pdf", 0, []float32{0, 1}),
	}))

	docs, err := m.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, domain.DocumentInfo{Filename: "a.pdf", ChunkCount: 2, DocumentType: "medical_pdf"}, docs[0])
	assert.Equal(t, domain.DocumentInfo{Filename: "b.pdf", ChunkCount: 1, DocumentType: "medical_pdf"}, docs[1])
}

func TestMemoryStore_DeleteByFilename(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.InsertChunks(ctx, []domain.StoredChunk{
		stored("a1", "a.pdf", 0, []float32{1, 0}),
		stored("b1", "b.pdf", 0, []float32{0, 1}),
	}))

	require.NoError(t, m.DeleteByFilename(ctx, "a.pdf"))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	docs, err := m.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.pdf", docs[0].Filename)
}

func TestMemoryStore_ConcurrentMutations(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.InsertChunks(ctx, []domain.StoredChunk{
				stored(fmt.Sprintf("keep-%d", i), "keep.pdf", i, []float32{1, 0}),
			}))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.InsertChunks(ctx, []domain.StoredChunk{
				stored(fmt.Sprintf("tmp-%d", i), "tmp.pdf", i, []float32{0, 1}),
			}))
			assert.NoError(t, m.DeleteByFilename(ctx, "tmp.pdf"))
			_, err := m.Search(ctx, []float32{1, 0}, 3)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Interleaved deletes never touch the other document's chunks.
	require.NoError(t, m.DeleteByFilename(ctx, "tmp.pdf"))

	docs, err := m.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "keep.pdf", docs[0].Filename)
	assert.Equal(t, 20, docs[0].ChunkCount)
}

func TestMemoryStore_Clear(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.InsertChunks(ctx, []domain.StoredChunk{
		stored("a1", "a.pdf", 0, []float32{1, 0}),
	}))
	require.NoError(t, m.Clear(ctx))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
