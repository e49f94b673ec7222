package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockGenerator is a scripted completion provider for composer tests.
// Replies are matched by prompt substring first; unmatched prompts fall
// back to the Default reply.
type MockGenerator struct {
	mu sync.Mutex

	// Replies maps a prompt substring to a canned reply.
	Replies map[string]string

	// Default is returned when no substring matches.
	Default string

	// FailOn causes Generate to return an error when the prompt contains
	// the given substring.
	FailOn string

	// Prompts records every prompt passed to Generate, in order.
	Prompts []string

	// Systems records every system prompt passed to Generate, in order.
	Systems []string
}

func NewMockGenerator(defaultReply string) *MockGenerator {
	return &MockGenerator{
		Replies: make(map[string]string),
		Default: defaultReply,
	}
}

func (m *MockGenerator) Generate(_ context.Context, prompt, system string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	m.Systems = append(m.Systems, system)

	if m.FailOn != "" && strings.Contains(prompt, m.FailOn) {
		return "", errors.New("mock generation failure")
	}

	for substr, reply := range m.Replies {
		if strings.Contains(prompt, substr) {
			return reply, nil
		}
	}
	return m.Default, nil
}

// Calls returns the number of Generate invocations so far.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
