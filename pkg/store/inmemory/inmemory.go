// Package inmemory provides an in-process store.Store used by tests and by
// `engram serve` when no backend is configured.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engramlabs/engram/pkg/store"
)

// Store implements store.Store with mutex-guarded slices.
type Store struct {
	mu sync.RWMutex

	messages  []store.Message
	summaries []store.Summary
	episodes  []store.Episode
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// InsertMessage appends a message and returns its generated ID.
func (s *Store) InsertMessage(_ context.Context, msg store.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

// RecentMessages returns up to limit messages for the session, newest first.
func (s *Store) RecentMessages(_ context.Context, userID, sessionID string, limit int) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []store.Message
	// Walk backwards so equal timestamps keep reverse insertion order.
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.UserID == userID && m.SessionID == sessionID {
			matched = append(matched, m)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountUserMessages counts role="user" messages for the session.
func (s *Store) CountUserMessages(_ context.Context, userID, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.messages {
		if m.UserID == userID && m.SessionID == sessionID && m.Role == store.RoleUser {
			count++
		}
	}
	return count, nil
}

// InsertSummary appends a summary and returns its generated ID.
func (s *Store) InsertSummary(_ context.Context, sum store.Summary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum.ID = uuid.NewString()
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now().UTC()
	}
	s.summaries = append(s.summaries, sum)
	return sum.ID, nil
}

// LatestSummary returns the newest summary matching the scope filter.
func (s *Store) LatestSummary(_ context.Context, userID string, sessionID *string, scope string) (*store.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *store.Summary
	for i := range s.summaries {
		sum := s.summaries[i]
		if sum.UserID != userID || sum.Scope != scope {
			continue
		}
		if !sessionMatches(sum.SessionID, sessionID) {
			continue
		}
		if latest == nil || !sum.CreatedAt.Before(latest.CreatedAt) {
			cp := sum
			latest = &cp
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}

// RecentSummaries returns up to limit summaries for the user, newest first.
func (s *Store) RecentSummaries(_ context.Context, userID string, limit int) ([]store.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []store.Summary
	for i := len(s.summaries) - 1; i >= 0; i-- {
		sum := s.summaries[i]
		if sum.UserID == userID {
			matched = append(matched, sum)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// InsertEpisode appends an episode and returns its generated ID.
func (s *Store) InsertEpisode(_ context.Context, ep store.Episode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ep.ID = uuid.NewString()
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now().UTC()
	}
	s.episodes = append(s.episodes, ep)
	return ep.ID, nil
}

// RecentEpisodes returns up to limit episodes for the user, newest first.
func (s *Store) RecentEpisodes(_ context.Context, userID string, limit int) ([]store.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []store.Episode
	for i := len(s.episodes) - 1; i >= 0; i-- {
		ep := s.episodes[i]
		if ep.UserID == userID {
			matched = append(matched, ep)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// DailyMessageCounts returns per-day message counts, newest day first.
func (s *Store) DailyMessageCounts(_ context.Context, userID string, days int) ([]store.DayCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, m := range s.messages {
		if m.UserID == userID {
			counts[m.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}

	result := make([]store.DayCount, 0, len(counts))
	for day, count := range counts {
		result = append(result, store.DayCount{Day: day, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Day > result[j].Day
	})
	if days > 0 && len(result) > days {
		result = result[:days]
	}
	return result, nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func sessionMatches(got, want *string) bool {
	if want == nil {
		return got == nil
	}
	return got != nil && *got == *want
}
