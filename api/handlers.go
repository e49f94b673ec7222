package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/engramlabs/engram/pkg/llm"
	"github.com/engramlabs/engram/pkg/memory"
	"github.com/engramlabs/engram/pkg/store"
)

const (
	// overviewMessageLimit bounds the message tail in the memory overview.
	overviewMessageLimit = 16

	// overviewEpisodeLimit bounds the episode tail in the memory overview.
	overviewEpisodeLimit = 20

	// aggregateDays is the daily-count window for the aggregate endpoint.
	aggregateDays = 14

	// aggregateSummaryLimit bounds the summary tail in the aggregate endpoint.
	aggregateSummaryLimit = 5
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// MemoryResponse is the memory overview for a user.
type MemoryResponse struct {
	UserID          string            `json:"user_id"`
	LastMessages    []OverviewMessage `json:"last_16_messages"`
	SessionSummary  *string           `json:"session_summary"`
	LifetimeSummary *string           `json:"lifetime_summary"`
	LastEpisodes    []OverviewEpisode `json:"last_20_episodes"`
}

// OverviewMessage is one message in the memory overview tail.
type OverviewMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// OverviewEpisode is one episodic fact in the memory overview tail.
type OverviewEpisode struct {
	Fact       string    `json:"fact"`
	Importance float64   `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// AggregateResponse holds per-day message counts and the newest summaries.
type AggregateResponse struct {
	DailyMessageCounts []store.DayCount   `json:"daily_message_counts"`
	RecentSummaries    []AggregateSummary `json:"recent_summaries"`
}

// AggregateSummary is one summary in the aggregate tail.
type AggregateSummary struct {
	Scope     string    `json:"scope"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// handleHealth pings the store and reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	if err := s.store.Ping(c.Context()); err != nil {
		return c.JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleChat runs one full memory-composition turn.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.UserID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "user_id is required"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "message is required"})
	}

	result, err := s.composer.HandleTurn(c.Context(), req.UserID, req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("chat turn failed",
			"user_id", req.UserID,
			"session_id", req.SessionID,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(result)
}

// handleMemory returns the memory overview for a user: the recent default-
// session message tail, the effective summaries, and the newest episodes.
func (s *Server) handleMemory(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "user_id parameter required"})
	}

	ctx := c.Context()

	msgs, err := s.store.RecentMessages(ctx, userID, memory.DefaultSessionID, overviewMessageLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	// Store order is newest first; the overview reads chronologically.
	messages := make([]OverviewMessage, len(msgs))
	for i, m := range msgs {
		messages[len(msgs)-1-i] = OverviewMessage{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}

	sessionSummary, err := s.latestSessionSummary(c, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	lifetime, err := s.store.LatestSummary(ctx, userID, nil, store.ScopeUser)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}
	var lifetimeSummary *string
	if lifetime != nil {
		lifetimeSummary = &lifetime.Text
	}

	eps, err := s.store.RecentEpisodes(ctx, userID, overviewEpisodeLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	episodes := make([]OverviewEpisode, len(eps))
	for i, ep := range eps {
		episodes[i] = OverviewEpisode{
			Fact:       ep.Fact,
			Importance: ep.Importance,
			CreatedAt:  ep.CreatedAt,
		}
	}

	return c.JSON(MemoryResponse{
		UserID:          userID,
		LastMessages:    messages,
		SessionSummary:  sessionSummary,
		LifetimeSummary: lifetimeSummary,
		LastEpisodes:    episodes,
	})
}

// latestSessionSummary finds the newest session-scope summary for the user
// across all sessions.
func (s *Server) latestSessionSummary(c *fiber.Ctx, userID string) (*string, error) {
	sums, err := s.store.RecentSummaries(c.Context(), userID, aggregateSummaryLimit*10)
	if err != nil {
		return nil, err
	}
	for i := range sums {
		if sums[i].Scope == store.ScopeSession {
			return &sums[i].Text, nil
		}
	}
	return nil, nil
}

// handleAggregate returns daily message counts plus the most recent summaries.
func (s *Server) handleAggregate(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "user_id parameter required"})
	}

	ctx := c.Context()

	counts, err := s.store.DailyMessageCounts(ctx, userID, aggregateDays)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	sums, err := s.store.RecentSummaries(ctx, userID, aggregateSummaryLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	summaries := make([]AggregateSummary, len(sums))
	for i, sum := range sums {
		summaries[i] = AggregateSummary{
			Scope:     sum.Scope,
			Text:      sum.Text,
			CreatedAt: sum.CreatedAt,
		}
	}

	return c.JSON(AggregateResponse{
		DailyMessageCounts: counts,
		RecentSummaries:    summaries,
	})
}
