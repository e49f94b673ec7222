// Package provider defines the completion capability the memory pipeline
// depends on.
//
// A Generator is a single blocking completion call: no streaming, no retry.
// Timeout bounding is the implementation's responsibility (local inference
// can take minutes); failures surface as *Error so callers can distinguish
// provider faults from store faults.
package provider

import "context"

// Generator produces a completion for a prompt with an optional system
// instruction. The system instruction travels as a separate channel and is
// never concatenated into the prompt body.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}
