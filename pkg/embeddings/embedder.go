// Package embeddings provides text embedding for the semantic recall index.
package embeddings

import "context"

// Embedder converts text into vector embeddings.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
