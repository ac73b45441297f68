// Package index maps keys to the offset of their live entry in the log and
// rebuilds that mapping by replaying the log.
package index

import (
	"fmt"
	"iter"

	"github.com/MikhailWahib/kvs/internal/config"
)

// Indexer is an in-memory map from key to the log offset of its live entry.
// Implementations are not safe for concurrent use.
type Indexer interface {
	// Put sets the offset of key, replacing any previous one.
	Put(key string, offset int64)
	// Get returns the offset of key.
	Get(key string) (int64, bool)
	// Delete removes key and reports whether it was present.
	Delete(key string) bool
	// Len returns the number of indexed keys.
	Len() int
	// Keys yields every indexed key once. The order is implementation defined.
	// The index must not be modified while iterating.
	Keys() iter.Seq[string]
}

// New returns an empty Indexer of the given type.
func New(typ config.IndexType) (Indexer, error) {
	switch typ {
	case config.IndexHash, "":
		return NewHash(), nil
	case config.IndexBTree:
		return NewBTree(), nil
	case config.IndexART:
		return NewART(), nil
	case config.IndexSkipList:
		return NewSkipList(), nil
	default:
		return nil, fmt.Errorf("unknown index type %q", typ)
	}
}
