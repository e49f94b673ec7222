// Package store defines the document collections backing the Engram memory
// service: messages, summaries, and episodes.
//
// All three collections are append-only. Every document carries a user ID,
// and every read filters by it — there is no operation that can return
// another user's data. Summaries are logically superseded rather than
// updated: the newest row per (user, session, scope) is the effective one
// and older rows are retained.
//
// Implementations live in subpackages (sqlite, postgres, inmemory) and are
// selected via configuration.
package store

import (
	"context"
	"time"
)

// Message roles. Messages outside this set are never written by the service.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Summary scopes. A session-scoped summary always has a concrete session ID;
// a user-scoped (lifetime) summary always has a nil session ID.
const (
	ScopeSession = "session"
	ScopeUser    = "user"
)

// Message is a single conversation turn half (user or assistant).
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is a condensation of earlier conversation, scoped to one session
// or to the user's whole lifetime (SessionID nil).
type Summary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID *string   `json:"session_id"`
	Scope     string    `json:"scope"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Episode is a short extracted factual statement persisted independently of
// the raw transcript. Importance defaults to 0.5; the embedding lives in the
// vector index when semantic recall is enabled, not on the document.
type Episode struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Fact       string    `json:"fact"`
	Importance float64   `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// DayCount is one bucket of the per-day message histogram.
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Store is the document store for the three memory collections.
//
// Each method is one filter/sort/limit query: inserts assign a
// server-generated ID and return it, recency reads
// return newest-first by created_at (callers reverse when they need
// chronological order), and counts match an equality filter.
type Store interface {
	// InsertMessage appends a message and returns its generated ID.
	InsertMessage(ctx context.Context, msg Message) (string, error)

	// RecentMessages returns up to limit messages for the session,
	// newest first.
	RecentMessages(ctx context.Context, userID, sessionID string, limit int) ([]Message, error)

	// CountUserMessages counts messages with role "user" for the session.
	CountUserMessages(ctx context.Context, userID, sessionID string) (int, error)

	// InsertSummary appends a summary and returns its generated ID.
	InsertSummary(ctx context.Context, sum Summary) (string, error)

	// LatestSummary returns the newest summary matching the scope. For
	// ScopeUser, sessionID must be nil. Returns ErrNotFound when no summary
	// exists for the filter.
	LatestSummary(ctx context.Context, userID string, sessionID *string, scope string) (*Summary, error)

	// RecentSummaries returns up to limit summaries for the user across all
	// scopes, newest first.
	RecentSummaries(ctx context.Context, userID string, limit int) ([]Summary, error)

	// InsertEpisode appends an episode and returns its generated ID.
	InsertEpisode(ctx context.Context, ep Episode) (string, error)

	// RecentEpisodes returns up to limit episodes for the user across all
	// sessions, newest first.
	RecentEpisodes(ctx context.Context, userID string, limit int) ([]Episode, error)

	// DailyMessageCounts returns per-day message counts for the user over
	// the trailing window of days, newest day first.
	DailyMessageCounts(ctx context.Context, userID string, days int) ([]DayCount, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
