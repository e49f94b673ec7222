package memory

import (
	"fmt"
	"strings"

	"github.com/engramlabs/engram/pkg/store"
)

// SystemPrompt accompanies every reply completion as a separate channel.
const SystemPrompt = "You are a helpful AI assistant with access to conversation history and context."

const (
	lifetimeLabel = "Lifetime context: "
	sessionLabel  = "Session context: "
)

const extractionPromptTemplate = `Extract up to 3 short, important factual statements from this message.
Return only the facts, one per line, no numbering or bullets.

Message: %s

Facts:`

const summaryPromptTemplate = `Summarize this conversation in 3-5 concise bullet points.
Focus on key topics, decisions, and important information.

Conversation:
%s

Summary (bullet points):`

// BuildPrompt linearizes the three memory tiers and the current message into
// a single prompt. The section order is fixed for reproducibility: long-term
// memory, recent conversation, relevant facts, then the trailing user line.
// Sections for empty tiers are omitted entirely; the trailing line is always
// present and always last.
func BuildPrompt(message string, shortTerm []store.Message, longTerm *string, facts []string) string {
	var parts []string

	if longTerm != nil {
		parts = append(parts, "=== Long-term Memory ===\n"+*longTerm)
	}

	if len(shortTerm) > 0 {
		parts = append(parts, "=== Recent Conversation ===")
		for _, msg := range shortTerm {
			parts = append(parts, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
		}
	}

	if len(facts) > 0 {
		parts = append(parts, "=== Relevant Facts === "+strings.Join(facts, ", "))
	}

	parts = append(parts, fmt.Sprintf("\nUser: %s\nAssistant:", message))

	return strings.Join(parts, "\n")
}

// renderTranscript renders messages as one "role: content" line each, in the
// order given.
func renderTranscript(msgs []store.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}
