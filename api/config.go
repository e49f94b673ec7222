// Package api provides the HTTP API server for chatting through the
// memory composer and inspecting a user's memory state.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}
