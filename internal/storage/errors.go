package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no session has the requested id
	ErrSessionNotFound = errors.New("upload session not found")

	// ErrDuplicateSessionID is returned by Create when the id is taken; the
	// caller retries with a fresh id
	ErrDuplicateSessionID = errors.New("duplicate upload session id")

	// ErrPersistence marks store failures that the caller cannot recover from
	ErrPersistence = errors.New("persistence failure")
)

// persistenceError wraps err so it matches both ErrPersistence and err
func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
