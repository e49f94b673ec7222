// Package semantic provides similarity-search episodic recall: the user's
// message is embedded and the nearest stored facts are returned.
//
// It realizes the episode schema's reserved embedding slot. The Recaller
// also implements memory.Indexer so newly extracted facts flow into the
// vector index as they are persisted. Swapping it in changes only recall
// ranking; the Composer's contract is untouched.
package semantic

import (
	"context"
	"fmt"

	"github.com/engramlabs/engram/pkg/embeddings"
	"github.com/engramlabs/engram/pkg/store"
	"github.com/engramlabs/engram/pkg/vector"
)

// Recaller implements memory.Recaller and memory.Indexer over an embedder
// and a vector driver.
type Recaller struct {
	embedder embeddings.Embedder
	vectors  vector.Driver
	store    store.Store
}

// New creates a semantic recaller. The store is used as a recency fallback
// when the index has nothing for the user yet.
func New(embedder embeddings.Embedder, vectors vector.Driver, st store.Store) *Recaller {
	return &Recaller{
		embedder: embedder,
		vectors:  vectors,
		store:    st,
	}
}

// Recall embeds the query and returns the k nearest fact strings for the
// user. An empty index falls back to recency so a fresh deployment behaves
// like the default recaller.
func (r *Recaller) Recall(ctx context.Context, userID, query string, k int) ([]string, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.vectors.Query(ctx, userID, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}

	if len(results) == 0 {
		return r.recallByRecency(ctx, userID, k)
	}

	facts := make([]string, len(results))
	for i, res := range results {
		facts[i] = res.Content
	}
	return facts, nil
}

// Index embeds a newly persisted fact and adds it to the user's slice of
// the index.
func (r *Recaller) Index(ctx context.Context, userID, episodeID, fact string) error {
	embedding, err := r.embedder.Embed(ctx, fact)
	if err != nil {
		return fmt.Errorf("embedding fact: %w", err)
	}

	return r.vectors.Add(ctx, []vector.Document{{
		ID:        episodeID,
		UserID:    userID,
		Content:   fact,
		Embedding: embedding,
	}})
}

func (r *Recaller) recallByRecency(ctx context.Context, userID string, k int) ([]string, error) {
	episodes, err := r.store.RecentEpisodes(ctx, userID, k)
	if err != nil {
		return nil, err
	}
	facts := make([]string, len(episodes))
	for i, ep := range episodes {
		facts[i] = ep.Fact
	}
	return facts, nil
}
