// Package sqlite provides a SQLite-backed store.Store using the
// github.com/mattn/go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/engramlabs/engram/pkg/store"
)

// Store implements store.Store on a single SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	if dbPath == ":memory:" {
		dsn = dbPath
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// churn under concurrent turns.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session
			ON messages(user_id, session_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT,
			scope TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_scope
			ON summaries(user_id, scope, created_at);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			fact TEXT NOT NULL,
			importance REAL NOT NULL DEFAULT 0.5,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_user
			ON episodes(user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// InsertMessage appends a message and returns its generated ID.
func (s *Store) InsertMessage(ctx context.Context, msg store.Message) (string, error) {
	id := uuid.NewString()
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages(id, user_id, session_id, role, content, created_at)
		VALUES(?, ?, ?, ?, ?, ?);
	`, id, msg.UserID, msg.SessionID, msg.Role, msg.Content, createdAt)
	if err != nil {
		return "", fmt.Errorf("inserting message: %w", err)
	}
	return id, nil
}

// RecentMessages returns up to limit messages for the session, newest first.
func (s *Store) RecentMessages(ctx context.Context, userID, sessionID string, limit int) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, session_id, role, content, created_at
		FROM messages
		WHERE user_id = ? AND session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?;
	`, userID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountUserMessages counts role="user" messages for the session.
func (s *Store) CountUserMessages(ctx context.Context, userID, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE user_id = ? AND session_id = ? AND role = ?;
	`, userID, sessionID, store.RoleUser).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// InsertSummary appends a summary and returns its generated ID.
func (s *Store) InsertSummary(ctx context.Context, sum store.Summary) (string, error) {
	id := uuid.NewString()
	createdAt := sum.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries(id, user_id, session_id, scope, text, created_at)
		VALUES(?, ?, ?, ?, ?, ?);
	`, id, sum.UserID, sum.SessionID, sum.Scope, sum.Text, createdAt)
	if err != nil {
		return "", fmt.Errorf("inserting summary: %w", err)
	}
	return id, nil
}

// LatestSummary returns the newest summary matching the scope filter.
func (s *Store) LatestSummary(ctx context.Context, userID string, sessionID *string, scope string) (*store.Summary, error) {
	query := `
		SELECT id, user_id, session_id, scope, text, created_at
		FROM summaries
		WHERE user_id = ? AND scope = ? AND session_id IS NULL
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1;`
	args := []any{userID, scope}
	if sessionID != nil {
		query = `
		SELECT id, user_id, session_id, scope, text, created_at
		FROM summaries
		WHERE user_id = ? AND scope = ? AND session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1;`
		args = append(args, *sessionID)
	}

	var sum store.Summary
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&sum.ID, &sum.UserID, &sum.SessionID, &sum.Scope, &sum.Text, &sum.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	return &sum, nil
}

// RecentSummaries returns up to limit summaries for the user, newest first.
func (s *Store) RecentSummaries(ctx context.Context, userID string, limit int) ([]store.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, session_id, scope, text, created_at
		FROM summaries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?;
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var out []store.Summary
	for rows.Next() {
		var sum store.Summary
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.SessionID, &sum.Scope, &sum.Text, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// InsertEpisode appends an episode and returns its generated ID.
func (s *Store) InsertEpisode(ctx context.Context, ep store.Episode) (string, error) {
	id := uuid.NewString()
	createdAt := ep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	importance := ep.Importance
	if importance == 0 {
		importance = 0.5
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes(id, user_id, session_id, fact, importance, created_at)
		VALUES(?, ?, ?, ?, ?, ?);
	`, id, ep.UserID, ep.SessionID, ep.Fact, importance, createdAt)
	if err != nil {
		return "", fmt.Errorf("inserting episode: %w", err)
	}
	return id, nil
}

// RecentEpisodes returns up to limit episodes for the user, newest first.
func (s *Store) RecentEpisodes(ctx context.Context, userID string, limit int) ([]store.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, session_id, fact, importance, created_at
		FROM episodes
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?;
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying episodes: %w", err)
	}
	defer rows.Close()

	var out []store.Episode
	for rows.Next() {
		var ep store.Episode
		if err := rows.Scan(&ep.ID, &ep.UserID, &ep.SessionID, &ep.Fact, &ep.Importance, &ep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning episode: %w", err)
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// DailyMessageCounts returns per-day message counts, newest day first.
func (s *Store) DailyMessageCounts(ctx context.Context, userID string, days int) ([]store.DayCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', created_at) AS day, COUNT(*)
		FROM messages
		WHERE user_id = ?
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?;
	`, userID, days)
	if err != nil {
		return nil, fmt.Errorf("querying daily counts: %w", err)
	}
	defer rows.Close()

	var out []store.DayCount
	for rows.Next() {
		var dc store.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scanning daily count: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
