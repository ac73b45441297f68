package index

import (
	"iter"

	art "github.com/plar/go-adaptive-radix-tree"
)

// ART is an ordered Indexer backed by an adaptive radix tree.
//
// The tree cannot delete a zero-length key, so the empty key is kept
// beside it.
type ART struct {
	tree art.Tree

	hasEmpty bool
	emptyOff int64
}

// NewART returns an empty ART index.
func NewART() *ART {
	return &ART{tree: art.New()}
}

func (a *ART) Put(key string, offset int64) {
	if key == "" {
		a.hasEmpty, a.emptyOff = true, offset
		return
	}
	a.tree.Insert(art.Key(key), offset)
}

func (a *ART) Get(key string) (int64, bool) {
	if key == "" {
		return a.emptyOff, a.hasEmpty
	}
	v, ok := a.tree.Search(art.Key(key))
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

func (a *ART) Delete(key string) bool {
	if key == "" {
		found := a.hasEmpty
		a.hasEmpty, a.emptyOff = false, 0
		return found
	}
	_, deleted := a.tree.Delete(art.Key(key))
	return deleted
}

func (a *ART) Len() int {
	if a.hasEmpty {
		return a.tree.Size() + 1
	}
	return a.tree.Size()
}

// Keys yields keys in ascending byte order.
func (a *ART) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		if a.hasEmpty && !yield("") {
			return
		}
		a.tree.ForEach(func(node art.Node) bool {
			return yield(string(node.Key()))
		})
	}
}
