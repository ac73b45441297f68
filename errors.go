package kvs

import (
	"errors"

	"github.com/MikhailWahib/kvs/internal/engine"
	"github.com/MikhailWahib/kvs/internal/record"
)

var (
	// ErrNotFound is returned when a key has no live value.
	ErrNotFound = engine.ErrNotFound
	// ErrCorruptData is returned when a stored entry fails its checksum.
	ErrCorruptData = record.ErrCorruptData
	// ErrInvalidState is returned when the log holds an unknown entry state.
	ErrInvalidState = record.ErrInvalidState
	// ErrInvalidKey is returned for keys that are not valid UTF-8.
	ErrInvalidKey = record.ErrInvalidKey
	// ErrMaxKeyBytes is returned when a key exceeds Config.MaxKeyBytes.
	ErrMaxKeyBytes = engine.ErrMaxKeyBytes
	// ErrMaxValueBytes is returned when an encoded value exceeds Config.MaxValueBytes.
	ErrMaxValueBytes = engine.ErrMaxValueBytes
	// ErrLocked is returned when another process has the log open.
	ErrLocked = engine.ErrLocked
	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = engine.ErrClosed

	// ErrSerialize is returned when a value cannot be encoded, or when stored
	// bytes cannot be decoded into the requested type.
	ErrSerialize = errors.New("serialize")
)

// IsNotFound reports whether err means the key has no live value.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsCorrupt reports whether err is a data integrity failure.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptData) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrInvalidKey)
}

// IsSerialize reports whether err comes from value encoding rather than from
// the storage engine.
func IsSerialize(err error) bool { return errors.Is(err, ErrSerialize) }
