package index_test

import (
	"slices"
	"testing"

	"github.com/MikhailWahib/kvs/internal/config"
	"github.com/MikhailWahib/kvs/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var indexTypes = []config.IndexType{config.IndexHash, config.IndexBTree, config.IndexART, config.IndexSkipList}

func TestIndexer_PutGetDelete(t *testing.T) {
	for _, typ := range indexTypes {
		t.Run(string(typ), func(t *testing.T) {
			idx, err := index.New(typ)
			require.NoError(t, err)

			_, ok := idx.Get("missing")
			assert.False(t, ok)

			idx.Put("foo", 0)
			idx.Put("bar", 20)
			idx.Put("foo", 40) // last writer wins

			off, ok := idx.Get("foo")
			require.True(t, ok)
			assert.Equal(t, int64(40), off)

			off, ok = idx.Get("bar")
			require.True(t, ok)
			assert.Equal(t, int64(20), off)
			assert.Equal(t, 2, idx.Len())

			assert.True(t, idx.Delete("foo"))
			assert.False(t, idx.Delete("foo"), "second delete is a no-op")
			_, ok = idx.Get("foo")
			assert.False(t, ok)
			assert.Equal(t, 1, idx.Len())
		})
	}
}

func TestIndexer_EmptyKey(t *testing.T) {
	for _, typ := range indexTypes {
		t.Run(string(typ), func(t *testing.T) {
			idx, err := index.New(typ)
			require.NoError(t, err)

			idx.Put("", 11)
			idx.Put("a", 22)

			off, ok := idx.Get("")
			require.True(t, ok)
			assert.Equal(t, int64(11), off)
			assert.Equal(t, 2, idx.Len())

			keys := slices.Sorted(idx.Keys())
			assert.Equal(t, []string{"", "a"}, keys)

			assert.True(t, idx.Delete(""))
			assert.False(t, idx.Delete(""))
			_, ok = idx.Get("")
			assert.False(t, ok)
			assert.Equal(t, 1, idx.Len())
			assert.Equal(t, []string{"a"}, slices.Collect(idx.Keys()))

			off, ok = idx.Get("a")
			require.True(t, ok)
			assert.Equal(t, int64(22), off)
		})
	}
}

func TestIndexer_Keys(t *testing.T) {
	want := []string{"apple", "banana", "cherry", "date"}

	for _, typ := range indexTypes {
		t.Run(string(typ), func(t *testing.T) {
			idx, err := index.New(typ)
			require.NoError(t, err)

			for i, k := range []string{"date", "banana", "apple", "cherry"} {
				idx.Put(k, int64(i))
			}

			keys := slices.Collect(idx.Keys())
			if typ == config.IndexHash {
				slices.Sort(keys)
			}
			assert.Equal(t, want, keys)

			// Stopping early must be honored
			var first []string
			for k := range idx.Keys() {
				first = append(first, k)
				break
			}
			assert.Len(t, first, 1)
		})
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := index.New("trie")
	assert.Error(t, err)
}
