package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleText builds deterministic multi-sentence text of roughly n sentences.
func sampleText(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "Clinical finding number %d was recorded during the trial. ", i)
	}
	return sb.String()
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "one two three", Normalize("one\n\n  two\t\tthree"))
	assert.Equal(t, "dose: 20 mg daily", Normalize("dose: 20 mg © daily"))
	assert.Equal(t, "First. Second, third.", Normalize("First . Second ,third ."))
	assert.Equal(t, "", Normalize("   \n\t  "))
}

func TestSplit_EmptyInput(t *testing.T) {
	s := NewSplitter(1000, 200)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("  \n\n  "))
}

func TestSplit_ShortInput(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("Aspirin reduces fever.\nTake with food.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Aspirin reduces fever. Take with food.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Metadata.SequenceIndex)
	assert.Equal(t, 1, chunks[0].Metadata.TotalChunks)
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	s := NewSplitter(120, 30)
	chunks := s.Split(sampleText(40))

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 120, "chunk %d too long", i)
		assert.Equal(t, i, c.Metadata.SequenceIndex)
		assert.Equal(t, len(chunks), c.Metadata.TotalChunks)
	}
}

func TestSplit_NoGapsAndOverlap(t *testing.T) {
	s := NewSplitter(120, 40)
	raw := sampleText(40)
	chunks := s.Split(raw)
	require.Greater(t, len(chunks), 1)

	normalized := Normalize(raw)

	// Walk chunk positions through the normalized text: every chunk must
	// start at or before the end of the previous one, and together they
	// must cover the whole text.
	searchFrom := 0
	covered := 0
	overlapped := 0
	for i, c := range chunks {
		idx := strings.Index(normalized[searchFrom:], c.Content)
		require.GreaterOrEqual(t, idx, 0, "chunk %d not found in source", i)
		start := searchFrom + idx
		require.LessOrEqual(t, start, covered, "gap before chunk %d", i)
		if i > 0 && start < covered {
			overlapped++
		}
		if end := start + len(c.Content); end > covered {
			covered = end
		}
		searchFrom = start
	}
	assert.Equal(t, len(normalized), covered)
	assert.Greater(t, overlapped, 0, "expected overlapping boundaries")
}

func TestSplit_LongUnbrokenWord(t *testing.T) {
	// No separator at all: the character-level fallback must still bound
	// chunk length.
	s := NewSplitter(50, 10)
	chunks := s.Split(strings.Repeat("x", 200))

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 50)
	}
}
