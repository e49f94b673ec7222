package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/engramlabs/engram/pkg/eventstream"
	"github.com/engramlabs/engram/pkg/eventstream/nop"
	"github.com/engramlabs/engram/pkg/llm/provider"
	"github.com/engramlabs/engram/pkg/store"
)

// Options tune the memory pipeline. Zero values fall back to the defaults.
type Options struct {
	// ShortTermWindow is the number of recent messages echoed into the
	// prompt. Default 8.
	ShortTermWindow int

	// SummarizeEvery triggers a session summary on every Nth user turn.
	// Default 5.
	SummarizeEvery int

	// EpisodeTopK is the number of episodic facts recalled per turn.
	// Default 5.
	EpisodeTopK int

	// MaxExtractedFacts caps facts stored per extraction call. Default 3.
	MaxExtractedFacts int

	// SummaryWindow is the number of recent messages summarized. Default 20.
	SummaryWindow int

	// MinFactLength is the exclusive lower bound on a stored fact's trimmed
	// rune count. Default 10.
	MinFactLength int
}

func (o Options) withDefaults() Options {
	if o.ShortTermWindow == 0 {
		o.ShortTermWindow = 8
	}
	if o.SummarizeEvery == 0 {
		o.SummarizeEvery = 5
	}
	if o.EpisodeTopK == 0 {
		o.EpisodeTopK = 5
	}
	if o.MaxExtractedFacts == 0 {
		o.MaxExtractedFacts = 3
	}
	if o.SummaryWindow == 0 {
		o.SummaryWindow = 20
	}
	if o.MinFactLength == 0 {
		o.MinFactLength = 10
	}
	return o
}

// Composer runs the layered memory pipeline around a completion provider.
//
// A Composer holds no per-call state; the store's accumulated history fully
// determines behavior. No per-(user, session) mutual exclusion is enforced:
// two concurrent turns for the same session may interleave their store
// operations, yielding non-deterministic short-term windows or a duplicate
// summary trigger at a count boundary. A hardened deployment would front
// HandleTurn with a per-session single-writer queue.
type Composer struct {
	store     store.Store
	generator provider.Generator
	recaller  Recaller
	indexer   Indexer // optional
	events    eventstream.Publisher
	logger    *slog.Logger
	opts      Options
}

// NewComposer wires a Composer from its collaborators. The store, generator,
// and recaller are required; a nil events publisher is replaced with the
// no-op publisher, and a nil indexer disables recall indexing.
func NewComposer(st store.Store, gen provider.Generator, rec Recaller, events eventstream.Publisher, logger *slog.Logger, opts Options) (*Composer, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if rec == nil {
		return nil, errors.New("recaller is required")
	}
	if events == nil {
		events = nop.NewPublisher()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Composer{
		store:     st,
		generator: gen,
		recaller:  rec,
		events:    events,
		logger:    logger,
		opts:      opts.withDefaults(),
	}, nil
}

// SetIndexer attaches a recall index fed with newly extracted episodes.
// Used when the semantic recall backend is configured.
func (c *Composer) SetIndexer(idx Indexer) {
	c.indexer = idx
}

// HandleTurn processes one chat turn: persist the user message, assemble
// context from the three memory tiers, obtain a completion, persist the
// reply, then attempt best-effort memory maintenance.
//
// The user message is persisted before any context read so the turn-count
// trigger sees the current turn. On provider or store failure in the reply
// path the turn fails and the already-persisted user message remains — an
// accepted inconsistency, there is no compensating rollback.
func (c *Composer) HandleTurn(ctx context.Context, userID, sessionID, message string) (*TurnResult, error) {
	start := time.Now()
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	if _, err := c.store.InsertMessage(ctx, store.Message{
		UserID:    userID,
		SessionID: sessionID,
		Role:      store.RoleUser,
		Content:   message,
	}); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	window, err := c.shortTermWindow(ctx, userID, sessionID, c.opts.ShortTermWindow)
	if err != nil {
		return nil, fmt.Errorf("reading short-term window: %w", err)
	}

	longTerm, err := c.longTermBlock(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading long-term summaries: %w", err)
	}

	facts, err := c.recaller.Recall(ctx, userID, message, c.opts.EpisodeTopK)
	if err != nil {
		return nil, fmt.Errorf("recalling episodes: %w", err)
	}

	prompt := BuildPrompt(message, window, longTerm, facts)

	reply, err := c.generator.Generate(ctx, prompt, SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	if _, err := c.store.InsertMessage(ctx, store.Message{
		UserID:    userID,
		SessionID: sessionID,
		Role:      store.RoleAssistant,
		Content:   reply,
	}); err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	// Maintenance below is best-effort: failures are logged, never returned.
	stored := c.extractEpisodes(ctx, userID, sessionID, message)
	summarized := c.maybeSummarize(ctx, userID, sessionID)
	c.publishTurn(ctx, userID, sessionID, len(window), stored, summarized, start)

	return &TurnResult{
		Reply:           reply,
		ShortTermCount:  len(window),
		LongTermSummary: longTerm,
		EpisodicFacts:   facts,
	}, nil
}

// shortTermWindow returns the newest limit messages for the session in
// chronological order. The store hands them back newest-first; the reversal
// happens here so prompt assembly always sees ascending time.
func (c *Composer) shortTermWindow(ctx context.Context, userID, sessionID string, limit int) ([]store.Message, error) {
	msgs, err := c.store.RecentMessages(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// longTermBlock concatenates the lifetime and session summaries into one
// labeled text block, lifetime first. Returns nil (not an empty string) when
// neither exists so prompt assembly can omit the section entirely.
func (c *Composer) longTermBlock(ctx context.Context, userID, sessionID string) (*string, error) {
	lifetime, err := c.store.LatestSummary(ctx, userID, nil, store.ScopeUser)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	session, err := c.store.LatestSummary(ctx, userID, &sessionID, store.ScopeSession)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	var b strings.Builder
	if lifetime != nil {
		b.WriteString(lifetimeLabel + lifetime.Text + "\n")
	}
	if session != nil {
		b.WriteString(sessionLabel + session.Text + "\n")
	}
	if b.Len() == 0 {
		return nil, nil
	}
	block := b.String()
	return &block, nil
}

func (c *Composer) publishTurn(ctx context.Context, userID, sessionID string, shortTerm, stored int, summarized bool, start time.Time) {
	event := &eventstream.TurnCompletedEvent{
		SchemaVersion:  eventstream.SchemaVersionV1,
		EventType:      eventstream.EventTypeTurnCompleted,
		EventID:        uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		UserID:         userID,
		SessionID:      sessionID,
		ShortTermCount: shortTerm,
		FactsExtracted: stored,
		SummaryCreated: summarized,
		DurationMs:     time.Since(start).Milliseconds(),
	}
	if err := c.events.PublishTurn(ctx, event); err != nil {
		c.logger.Warn("turn event publish failed",
			"user_id", userID,
			"session_id", sessionID,
			"err", err,
		)
	}
}
