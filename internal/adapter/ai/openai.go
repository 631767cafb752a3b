package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements port.AIProvider using the OpenAI API.
type OpenAIProvider struct {
	client     *openai.Client
	embedModel string
	chatModel  string
}

// NewOpenAIProvider creates an OpenAI-backed AI provider.
func NewOpenAIProvider(apiKey, embedModel, chatModel string) *OpenAIProvider {
	return &OpenAIProvider{
		client:     openai.NewClient(apiKey),
		embedModel: embedModel,
		chatModel:  chatModel,
	}
}

// ModelName returns the chat model identifier.
func (p *OpenAIProvider) ModelName() string {
	return p.chatModel
}

// Embed generates a vector embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	rsp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(rsp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d vectors for %d inputs", len(rsp.Data), len(texts))
	}

	vectors := make([][]float32, len(rsp.Data))
	for i, d := range rsp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Chat sends a prompt with context chunks and returns the complete response.
// Low temperature keeps medical answers consistent across runs.
func (p *OpenAIProvider) Chat(ctx context.Context, systemPrompt string, userPrompt string, contextChunks []string) (string, error) {
	rsp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.chatModel,
		Temperature: 0.1,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(userPrompt, contextChunks)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(rsp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty response")
	}
	return rsp.Choices[0].Message.Content, nil
}
