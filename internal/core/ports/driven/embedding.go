package driven

import "context"

// EmbedOptions carries per-request hints for the embedding model.
type EmbedOptions struct {
	// Task is the embedding task type, e.g. retrieval_document.
	Task string

	// Title is an optional document title.
	Title string
}

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector/semantic search is disabled.
//
// Implementations include a worker subprocess, Ollama and OpenAI.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string, opts EmbedOptions) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string, opts EmbedOptions) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// TokenCounter is implemented by embedding services that can count tokens
// with the model's own tokenizer.
type TokenCounter interface {
	CountTokens(ctx context.Context, texts []string) ([]int, error)
}
