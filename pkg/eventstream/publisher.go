// Package eventstream publishes turn lifecycle events to an external stream.
//
// Publishing is an observability concern: the chat pipeline emits an event
// after each completed turn, and publish failures are logged by the caller,
// never propagated to the user-visible response.
package eventstream

import "context"

// Publisher publishes turn events to an event stream backend.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnCompletedEvent) error
	Close() error
}
