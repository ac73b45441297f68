package index

import (
	"iter"
	"maps"
)

// Hash is an unordered Indexer backed by a Go map.
type Hash struct {
	m map[string]int64
}

// NewHash returns an empty Hash index.
func NewHash() *Hash {
	return &Hash{m: make(map[string]int64)}
}

func (h *Hash) Put(key string, offset int64) { h.m[key] = offset }

func (h *Hash) Get(key string) (int64, bool) {
	off, ok := h.m[key]
	return off, ok
}

func (h *Hash) Delete(key string) bool {
	if _, ok := h.m[key]; !ok {
		return false
	}
	delete(h.m, key)
	return true
}

func (h *Hash) Len() int { return len(h.m) }

func (h *Hash) Keys() iter.Seq[string] { return maps.Keys(h.m) }
