package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/engramlabs/engram/pkg/eventstream"
)

// MockPublisher records published turn events for assertions.
type MockPublisher struct {
	mu sync.Mutex

	// Events accumulates every published event, in order.
	Events []*eventstream.TurnCompletedEvent

	// FailPublish causes PublishTurn to return an error.
	FailPublish bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPublish {
		return errors.New("mock publish failure")
	}

	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []*eventstream.TurnCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*eventstream.TurnCompletedEvent, len(m.Events))
	copy(out, m.Events)
	return out
}
