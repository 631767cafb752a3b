package service

import (
	"context"
	"strings"

	"github.com/medbot-ai/medbot/internal/port"
)

// stubAI is a deterministic in-process AIProvider. With no overrides it
// embeds texts onto fixed keyword axes, so related texts score 1.0 against
// each other and unrelated texts score 0.
type stubAI struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
	chatFn  func(systemPrompt, userPrompt string, contextChunks []string) (string, error)
}

var _ port.AIProvider = (*stubAI)(nil)

func (s *stubAI) ModelName() string { return "stub-model" }

func (s *stubAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedFn != nil {
		return s.embedFn(ctx, text)
	}
	return axisEmbedding(text), nil
}

func (s *stubAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (s *stubAI) Chat(ctx context.Context, systemPrompt, userPrompt string, contextChunks []string) (string, error) {
	if s.chatFn != nil {
		return s.chatFn(systemPrompt, userPrompt, contextChunks)
	}
	return "stub answer", nil
}

var embeddingAxes = []string{"aspirin", "insulin", "ibuprofen", "warfarin"}

func axisEmbedding(text string) []float32 {
	vec := make([]float32, len(embeddingAxes))
	lower := strings.ToLower(text)
	for i, kw := range embeddingAxes {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec
}
