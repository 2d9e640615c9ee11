package domain

import "context"

// KeyPrefix namespaces every Redis key owned by this service.
const KeyPrefix = "fusedex:"

// EmbeddingResult holds an embedding vector plus provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}
