package store

import "errors"

// ErrNotFound is returned when a lookup matches no document. Callers in the
// memory pipeline treat it as an empty tier, not a failure.
var ErrNotFound = errors.New("document not found")
