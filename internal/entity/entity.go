// Package entity holds the small set of identity types shared across the
// engine that benefit from a real UUID rather than a dense integer — the
// handles a caller correlates across a whole run, not the dense (shift,
// driver) ids the solver itself indexes by.
package entity

import "github.com/google/uuid"

// RunID identifies one engine invocation (one monthly or annual
// optimization). It is an external correlation handle, not a
// solver-internal index.
type RunID = uuid.UUID

// NewRunID generates a fresh RunID for a new engine invocation.
func NewRunID() RunID {
	return uuid.New()
}
