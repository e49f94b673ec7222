package provider

import "fmt"

// Error wraps a failed completion call: transport error, timeout, non-2xx
// status, or malformed response body.
type Error struct {
	Provider string
	Status   int // HTTP status when the server answered, 0 otherwise
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s completion failed (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
