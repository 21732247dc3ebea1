package domain

import "errors"

// Storage-level errors shared by repositories and the services that use them.
var (
	ErrNotFound = errors.New("record not found")
	// ErrOverlap is returned when the store itself rejects a write because a
	// concurrent reservation of the same resource won the race.
	ErrOverlap = errors.New("overlapping reservation")
	// ErrConcurrentUpdate is returned when a serializable transaction lost
	// to a concurrent one and was rolled back.
	ErrConcurrentUpdate = errors.New("concurrent update")
)
