// Package ollama implements provider.Generator against Ollama's /api/chat
// endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/engramlabs/engram/pkg/llm"
	"github.com/engramlabs/engram/pkg/llm/provider"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "llama3:8b"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://127.0.0.1:11434"

	// DefaultTimeout bounds a single completion call. Local inference is
	// slow; minutes, not seconds.
	DefaultTimeout = 5 * time.Minute
)

// Generator calls Ollama's chat API with stream disabled.
type Generator struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the chat model to use. Defaults to DefaultModel if empty.
	Model string

	// Timeout bounds each completion call. Defaults to DefaultTimeout
	// if zero.
	Timeout time.Duration
}

// New creates a Generator for an Ollama server.
func New(cfg Config) *Generator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate performs one blocking chat completion and returns the trimmed
// assistant message content.
func (g *Generator) Generate(ctx context.Context, prompt, system string) (string, error) {
	var messages []llm.Message
	if strings.TrimSpace(system) != "" {
		messages = append(messages, llm.Message{Role: "system", Content: system})
	}
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	body, err := json.Marshal(llm.ChatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", &provider.Error{Provider: "ollama", Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", &provider.Error{Provider: "ollama", Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &provider.Error{Provider: "ollama", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &provider.Error{
			Provider: "ollama",
			Status:   resp.StatusCode,
			Err:      errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	var chatResp llm.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &provider.Error{Provider: "ollama", Err: fmt.Errorf("decoding response: %w", err)}
	}

	return strings.TrimSpace(chatResp.Message.Content), nil
}
