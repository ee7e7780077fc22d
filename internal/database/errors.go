package database

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConcurrentModification is returned when a versioned update lost
	// the race against another writer.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)
