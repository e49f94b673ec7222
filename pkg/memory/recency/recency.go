// Package recency provides the default episodic recall strategy: the user's
// newest facts, no relevance ranking. The query text is ignored and the
// episode's reserved embedding slot stays unused. The semantic package is
// the similarity-search substitute.
package recency

import (
	"context"

	"github.com/engramlabs/engram/pkg/store"
)

// Recaller implements memory.Recaller by recency over the episode collection.
type Recaller struct {
	store store.Store
}

// New creates a recency-ranked recaller over the given store.
func New(st store.Store) *Recaller {
	return &Recaller{store: st}
}

// Recall returns the user's newest k episode facts, most recent first. The
// query is ignored.
func (r *Recaller) Recall(ctx context.Context, userID, _ string, k int) ([]string, error) {
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
