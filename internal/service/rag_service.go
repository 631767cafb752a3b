package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medbot-ai/medbot/internal/domain"
)

// RetrievalStatus distinguishes "nothing relevant was found" from "the
// retrieval backend failed and the turn proceeds without context".
type RetrievalStatus string

const (
	RetrievalOK       RetrievalStatus = "ok"
	RetrievalDegraded RetrievalStatus = "degraded"
)

// RetrievalResult is an ordered set of scored chunks plus the outcome status.
type RetrievalResult struct {
	Chunks []domain.ScoredChunk
	Status RetrievalStatus
}

// medicalContextTerms mark a query as already domain-specific; queries
// containing none of them get the medical prefix before embedding.
var medicalContextTerms = []string{
	"medical", "clinical", "treatment", "diagnosis", "patient",
	"symptom", "condition", "therapy", "medication", "dosage",
}

const medicalQueryPrefix = "medical clinical "

// RAGService retrieves document context for a chat turn: it enhances generic
// queries with medical context, searches the index and applies the
// similarity threshold.
type RAGService struct {
	index *IndexService
}

// NewRAGService creates a new retrieval service.
func NewRAGService(index *IndexService) *RAGService {
	return &RAGService{index: index}
}

// Retrieve returns at most k chunks scoring at or above threshold, in the
// order produced by the index. Scores here are cosine similarities
// (higher = more similar), so the threshold is a lower bound; a
// distance-based backend would need the comparison inverted. Backend
// failures degrade to an empty result rather than failing the turn.
func (s *RAGService) Retrieve(ctx context.Context, query string, k int, threshold float64) RetrievalResult {
	enhanced := EnhanceQuery(query)

	hits, err := s.index.Search(ctx, enhanced, k)
	if err != nil {
		slog.Error("retrieval degraded", "error", err)
		return RetrievalResult{Status: RetrievalDegraded}
	}

	kept := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Similarity >= threshold {
			kept = append(kept, hit)
		}
	}
	if len(kept) > k {
		kept = kept[:k]
	}

	return RetrievalResult{Chunks: kept, Status: RetrievalOK}
}

// EnhanceQuery prepends a fixed medical-context prefix to queries that carry
// no domain term of their own, biasing retrieval toward clinically relevant
// chunks for otherwise generic questions.
func EnhanceQuery(query string) string {
	lower := strings.ToLower(query)
	for _, term := range medicalContextTerms {
		if strings.Contains(lower, term) {
			return query
		}
	}
	return medicalQueryPrefix + query
}
