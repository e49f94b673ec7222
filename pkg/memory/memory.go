// Package memory implements the layered memory pipeline at the heart of
// engram.
//
// A chat turn is assembled from three tiers: the short-term window (the
// literal recent transcript), long-term summaries (periodically regenerated
// condensations, session- and lifetime-scoped), and episodic facts (short
// extracted statements persisted independently of the transcript). The
// Composer linearizes these into a single prompt, obtains a completion, and
// opportunistically maintains the long-term tiers afterwards.
//
// Maintenance (fact extraction, summarization, event publishing) is
// deliberately decoupled from the reply path: a maintenance failure is
// logged and swallowed, never surfaced to the caller.
package memory

import "context"

// DefaultSessionID is used when a turn arrives without a session.
const DefaultSessionID = "default"

// Recaller retrieves episodic facts relevant to a user message. The default
// implementation is recency-ranked (package recency); a similarity-search
// backend (package semantic) can be substituted without changing the
// Composer's contract.
type Recaller interface {
	// Recall returns up to k fact strings for the user, most relevant
	// first. The query is advisory — recency-based backends ignore it.
	Recall(ctx context.Context, userID, query string, k int) ([]string, error)
}

// Indexer receives newly persisted episodes so that recall backends which
// maintain their own index (e.g. a vector store) can ingest them.
type Indexer interface {
	Index(ctx context.Context, userID, episodeID, fact string) error
}

// TurnResult is the outcome of a successful turn: the reply plus the context
// that informed it, so callers can display what the model saw.
type TurnResult struct {
	Reply           string   `json:"reply"`
	ShortTermCount  int      `json:"short_term_count"`
	LongTermSummary *string  `json:"long_term_summary"`
	EpisodicFacts   []string `json:"episodic_facts"`
}
