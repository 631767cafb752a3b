package port

import "context"

// AIProvider abstracts the AI backend for embeddings and chat completions.
// Implementations can target Ollama, OpenAI, or any compatible API. The
// embedding model must be the same for stored content and queries.
type AIProvider interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Chat sends a prompt with optional context chunks and returns the
	// model's response.
	Chat(ctx context.Context, systemPrompt string, userPrompt string, contextChunks []string) (string, error)
}
