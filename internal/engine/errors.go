package engine

import "errors"

var (
	// ErrNotFound is returned when a key has no live entry.
	ErrNotFound = errors.New("not found")

	// ErrMaxKeyBytes is returned when a key is longer than the configured limit.
	ErrMaxKeyBytes = errors.New("max key bytes exceeded")

	// ErrMaxValueBytes is returned when a value is longer than the configured limit.
	ErrMaxValueBytes = errors.New("max value bytes exceeded")

	// ErrLocked is returned when another process holds the log open.
	ErrLocked = errors.New("log is locked by another process")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine is closed")
)
