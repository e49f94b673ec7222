package memory

import (
	"context"
	"fmt"

	"github.com/engramlabs/engram/pkg/store"
)

// maybeSummarize creates a session-scoped summary when the session's user
// turn count hits a multiple of SummarizeEvery. Summaries are additive: a
// new document is inserted and prior ones are logically superseded, never
// updated or deleted. Best-effort: failures are logged and swallowed.
// Returns true when a summary was created.
func (c *Composer) maybeSummarize(ctx context.Context, userID, sessionID string) bool {
	count, err := c.store.CountUserMessages(ctx, userID, sessionID)
	if err != nil {
		c.logger.Warn("summary trigger count failed",
			"user_id", userID,
			"session_id", sessionID,
			"err", err,
		)
		return false
	}
	if count == 0 || count%c.opts.SummarizeEvery != 0 {
		return false
	}

	msgs, err := c.shortTermWindow(ctx, userID, sessionID, c.opts.SummaryWindow)
	if err != nil {
		c.logger.Warn("summary window read failed",
			"user_id", userID,
			"session_id", sessionID,
			"err", err,
		)
		return false
	}
	if len(msgs) == 0 {
		return false
	}

	summary, err := c.generator.Generate(ctx, fmt.Sprintf(summaryPromptTemplate, renderTranscript(msgs)), "")
	if err != nil {
		c.logger.Warn("summary generation failed",
			"user_id", userID,
			"session_id", sessionID,
			"err", err,
		)
		return false
	}

	if _, err := c.store.InsertSummary(ctx, store.Summary{
		UserID:    userID,
		SessionID: &sessionID,
		Scope:     store.ScopeSession,
		Text:      summary,
	}); err != nil {
		c.logger.Warn("summary persist failed",
			"user_id", userID,
			"session_id", sessionID,
			"err", err,
		)
		return false
	}

	c.logger.Info("created session summary",
		"user_id", userID,
		"session_id", sessionID,
		"user_turns", count,
	)
	return true
}
