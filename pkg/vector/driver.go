// Package vector provides the episode embedding index backing semantic
// recall.
package vector

import "context"

// Document is one indexed episode: the episode document ID, its owning
// user, the fact text, and the embedding.
type Document struct {
	// ID is the episode document ID in the store.
	ID string

	// UserID scopes the document; queries never cross users.
	UserID string

	// Content is the fact text, carried in the index so recall does not
	// need a second store read.
	Content string

	// Embedding is the vector representation of the fact.
	Embedding []float32
}

// QueryResult is a search hit with its similarity score.
type QueryResult struct {
	Document

	// Score is the similarity (higher = more similar).
	Score float32
}

// Driver stores and searches episode embeddings.
type Driver interface {
	// Add indexes documents. A document with an existing ID is updated.
	Add(ctx context.Context, docs []Document) error

	// Query returns the topK documents most similar to the embedding,
	// restricted to the given user.
	Query(ctx context.Context, userID string, embedding []float32, topK int) ([]QueryResult, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
