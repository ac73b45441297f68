package index

import (
	"iter"

	"github.com/google/btree"
)

// BTree is an ordered Indexer wrapping google's btree.
// https://github.com/google/btree
type BTree struct {
	tree *btree.BTree
}

// NewBTree returns an empty BTree index.
func NewBTree() *BTree {
	return &BTree{tree: btree.New(32)}
}

type item struct {
	key    string
	offset int64
}

func (it *item) Less(than btree.Item) bool {
	return it.key < than.(*item).key
}

func (bt *BTree) Put(key string, offset int64) {
	bt.tree.ReplaceOrInsert(&item{key: key, offset: offset})
}

func (bt *BTree) Get(key string) (int64, bool) {
	found := bt.tree.Get(&item{key: key})
	if found == nil {
		return 0, false
	}
	return found.(*item).offset, true
}

func (bt *BTree) Delete(key string) bool {
	return bt.tree.Delete(&item{key: key}) != nil
}

func (bt *BTree) Len() int { return bt.tree.Len() }

// Keys yields keys in ascending order.
func (bt *BTree) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		bt.tree.Ascend(func(i btree.Item) bool {
			return yield(i.(*item).key)
		})
	}
}
