package record

import "errors"

var (
	// ErrInvalidState is returned when an entry carries an unknown state byte.
	ErrInvalidState = errors.New("invalid entry state")

	// ErrInvalidKey is returned when the key bytes of an entry are not valid UTF-8.
	ErrInvalidKey = errors.New("invalid key")

	// ErrCorruptData is returned when the stored checksum does not match the entry.
	ErrCorruptData = errors.New("crc does not match")
)
