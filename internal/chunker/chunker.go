package chunker

import (
	"regexp"
	"strings"

	"github.com/medbot-ai/medbot/internal/domain"
)

// defaultSeparators is the separator ladder tried from coarsest to finest:
// paragraph break, line break, sentence end, word boundary, character.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits normalized text into overlapping chunks along the coarsest
// separator that yields pieces no longer than ChunkSize. Adjacent chunks
// share up to ChunkOverlap characters carried from the end of the previous
// chunk, so sentences straddling a boundary are not lost.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int

	separators []string
}

// NewSplitter creates a splitter with the given chunk size and overlap.
// Non-positive sizes fall back to 1000/200.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split normalizes raw text and cuts it into ordered chunks. Each chunk is
// stamped with its sequence index and the final chunk count; empty input
// yields no chunks, and input shorter than ChunkSize yields exactly one.
func (s *Splitter) Split(raw string) []domain.Chunk {
	text := Normalize(raw)
	if text == "" {
		return nil
	}

	pieces := s.splitRecursive(text, s.separators)

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			Content: piece,
			Metadata: domain.Metadata{
				SequenceIndex: i,
				TotalChunks:   len(pieces),
			},
		}
	}
	return chunks
}

// splitRecursive cuts text on the coarsest separator present, recursing with
// the finer separators on any piece still longer than ChunkSize.
func (s *Splitter) splitRecursive(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var finer []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	var out []string
	var fitting []string

	for _, piece := range splitKeep(text, sep) {
		if len(piece) < s.ChunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, s.merge(fitting)...)
			fitting = nil
		}
		if len(finer) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.splitRecursive(piece, finer)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, s.merge(fitting)...)
	}
	return out
}

// merge packs separator-terminated pieces into chunks of at most ChunkSize
// characters, carrying up to ChunkOverlap trailing characters into the next
// chunk. Pieces keep their separators, so concatenating chunks minus the
// carried overlap reproduces the input exactly.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	windowLen := 0

	for _, piece := range pieces {
		if windowLen+len(piece) > s.ChunkSize && windowLen > 0 {
			chunks = append(chunks, strings.Join(window, ""))
			for windowLen > s.ChunkOverlap || (windowLen+len(piece) > s.ChunkSize && windowLen > 0) {
				windowLen -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		windowLen += len(piece)
	}
	if windowLen > 0 {
		chunks = append(chunks, strings.Join(window, ""))
	}
	return chunks
}

// splitKeep splits text on sep keeping the separator attached to the
// preceding piece. An empty separator splits into single characters.
func splitKeep(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	// SplitAfter can leave an empty trailing element when text ends in sep.
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	unsafeCharRe  = regexp.MustCompile(`[^a-zA-Z0-9_\s.,;:!?\-()\[\]]`)
	periodSpaceRe = regexp.MustCompile(`\s*\.\s*`)
	commaSpaceRe  = regexp.MustCompile(`\s*,\s*`)
	doubleSpaceRe = regexp.MustCompile(`  +`)
)

// Normalize prepares raw extracted text for length-based splitting: runs of
// whitespace collapse to a single space, characters outside the safe set are
// dropped, and spacing around periods and commas is made uniform.
func Normalize(raw string) string {
	text := whitespaceRe.ReplaceAllString(raw, " ")
	text = unsafeCharRe.ReplaceAllString(text, " ")
	text = periodSpaceRe.ReplaceAllString(text, ". ")
	text = commaSpaceRe.ReplaceAllString(text, ", ")
	text = doubleSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
