package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/engramlabs/engram/pkg/store"
)

// extractEpisodes asks the model for up to MaxExtractedFacts short factual
// statements about the user's message (not the reply) and persists the
// meaningful ones. Best-effort: any provider or store failure is logged and
// swallowed. Returns the number of episodes stored.
func (c *Composer) extractEpisodes(ctx context.Context, userID, sessionID, message string) int {
	raw, err := c.generator.Generate(ctx, fmt.Sprintf(extractionPromptTemplate, message), "")
	if err != nil {
		c.logger.Warn("episode extraction failed",
			"user_id", userID,
			"session_id", sessionID,
			"err", err,
		)
		return 0
	}

	stored := 0
	for _, fact := range ParseFacts(raw, c.opts.MaxExtractedFacts) {
		if utf8.RuneCountInString(fact) <= c.opts.MinFactLength {
			continue
		}
		if id, err := c.store.InsertEpisode(ctx, store.Episode{
			UserID:     userID,
			SessionID:  sessionID,
			Fact:       fact,
			Importance: 0.5,
		}); err != nil {
			c.logger.Warn("episode persist failed",
				"user_id", userID,
				"session_id", sessionID,
				"err", err,
			)
		} else {
			stored++
			c.indexEpisode(ctx, userID, id, fact)
		}
	}
	return stored
}

// indexEpisode feeds a stored fact into the recall index when one is
// attached. Failures are logged; the episode document is already persisted.
func (c *Composer) indexEpisode(ctx context.Context, userID, episodeID, fact string) {
	if c.indexer == nil {
		return
	}
	if err := c.indexer.Index(ctx, userID, episodeID, fact); err != nil {
		c.logger.Warn("episode indexing failed",
			"episode_id", episodeID,
			"err", err,
		)
	}
}

// ParseFacts splits raw model output into cleaned fact candidates: one per
// line, leading/trailing bullet or dash decoration stripped, empty lines
// discarded, capped at max. Length filtering is the caller's concern.
func ParseFacts(raw string, max int) []string {
	var facts []string
	for _, line := range strings.Split(raw, "\n") {
		fact := strings.TrimSpace(line)
		fact = strings.Trim(fact, "-•")
		fact = strings.TrimSpace(fact)
		if fact == "" {
			continue
		}
		facts = append(facts, fact)
		if len(facts) == max {
			break
		}
	}
	return facts
}
