package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a chat turn has been fully
	// processed (reply persisted, maintenance attempted).
	EventTypeTurnCompleted = "engram.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a completed
// chat turn.
type TurnCompletedEvent struct {
	SchemaVersion  int       `json:"schema_version"`
	EventType      string    `json:"event_type"`
	EventID        string    `json:"event_id"`
	EmittedAt      time.Time `json:"emitted_at"`
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	ShortTermCount int       `json:"short_term_count"`
	FactsExtracted int       `json:"facts_extracted"`
	SummaryCreated bool      `json:"summary_created"`
	DurationMs     int64     `json:"duration_ms"`
}
