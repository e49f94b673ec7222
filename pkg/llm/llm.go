// Package llm holds the chat wire types shared by the completion provider
// and the HTTP layer.
package llm

import "time"

// Message is a single message in a chat completion exchange.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is the request body for a non-streaming chat completion.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponse is the subset of a chat completion response the service
// consumes: the assistant message content.
type ChatResponse struct {
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Message   Message   `json:"message"`
	Done      bool      `json:"done,omitempty"`
}

// ErrorResponse is the JSON error body returned by the HTTP layer.
type ErrorResponse struct {
	Error string `json:"error"`
}
