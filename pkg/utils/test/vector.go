package testutils

import (
	"context"

	"github.com/engramlabs/engram/pkg/vector"
)

// MockVectorDriver is a test vector driver
type MockVectorDriver struct {
	Documents []vector.Document

	// Results is returned by Query for the matching user.
	Results []vector.QueryResult

	// FailQuery causes Query to return ErrConnection.
	FailQuery bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, userID string, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, vector.ErrConnection
	}

	matched := make([]vector.QueryResult, 0, len(m.Results))
	for _, r := range m.Results {
		if r.UserID == userID {
			matched = append(matched, r)
		}
	}
	if len(matched) > topK {
		matched = matched[:topK]
	}
	return matched, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		for i := range m.Documents {
			if m.Documents[i].ID == id {
				m.Documents = append(m.Documents[:i], m.Documents[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
