package record

import "fmt"

// State marks an entry as live or as a tombstone
type State byte

const (
	// Active indicates a key-value insertion
	Active State = 1
	// Deleted indicates a tombstone for the key
	Deleted State = 2
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", byte(s))
	}
}

func parseState(b byte) (State, error) {
	switch State(b) {
	case Active, Deleted:
		return State(b), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidState, b)
	}
}

// Entry is a single record of the log. Entries are immutable once written.
type Entry struct {
	Checksum uint32
	State    State
	Key      string
	Value    []byte
}

// NewEntry returns an active entry with its checksum filled in.
func NewEntry(key string, value []byte) Entry {
	return newEntry(Active, key, value)
}

// Tombstone returns a deleted entry for key with an empty value.
func Tombstone(key string) Entry {
	return newEntry(Deleted, key, nil)
}

func newEntry(state State, key string, value []byte) Entry {
	e := Entry{State: state, Key: key, Value: value}
	e.Checksum = e.computeChecksum()
	return e
}

// IsDeleted reports whether the entry is a tombstone.
func (e Entry) IsDeleted() bool {
	return e.State == Deleted
}

// Len returns the encoded size of the entry in bytes.
func (e Entry) Len() int64 {
	return HeaderSize + int64(len(e.Key)) + int64(len(e.Value))
}

func (e Entry) String() string {
	return fmt.Sprintf("|crc32: %d|state: %s|key_len: %d|value_len: %d|key: %s|value: %q|",
		e.Checksum, e.State, len(e.Key), len(e.Value), e.Key, e.Value)
}
