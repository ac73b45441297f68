package index

import (
	"iter"
	"math/rand"
	"time"
)

const (
	maxLevel    = 16
	probability = 0.5
)

type skipNode struct {
	key    string
	offset int64
	next   []*skipNode
}

// SkipList is an ordered Indexer backed by a probabilistic skip list.
type SkipList struct {
	head  *skipNode
	level int
	size  int
	rng   *rand.Rand
}

// NewSkipList returns an empty SkipList index.
func NewSkipList() *SkipList {
	return &SkipList{
		head:  &skipNode{next: make([]*skipNode, maxLevel)},
		level: 1,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for sl.rng.Float64() < probability && level < maxLevel {
		level++
	}
	return level
}

// predecessors fills update with the last node before key on every level and
// returns the first node whose key is >= key.
func (sl *SkipList) predecessors(key string, update []*skipNode) *skipNode {
	current := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for current.next[i] != nil && current.next[i].key < key {
			current = current.next[i]
		}
		if update != nil {
			update[i] = current
		}
	}
	return current.next[0]
}

func (sl *SkipList) Put(key string, offset int64) {
	update := make([]*skipNode, maxLevel)
	if n := sl.predecessors(key, update); n != nil && n.key == key {
		n.offset = offset
		return
	}

	newLevel := sl.randomLevel()
	if newLevel > sl.level {
		for i := sl.level; i < newLevel; i++ {
			update[i] = sl.head
		}
		sl.level = newLevel
	}

	node := &skipNode{key: key, offset: offset, next: make([]*skipNode, newLevel)}
	for i := range newLevel {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
	}
	sl.size++
}

func (sl *SkipList) Get(key string) (int64, bool) {
	if n := sl.predecessors(key, nil); n != nil && n.key == key {
		return n.offset, true
	}
	return 0, false
}

func (sl *SkipList) Delete(key string) bool {
	update := make([]*skipNode, maxLevel)
	n := sl.predecessors(key, update)
	if n == nil || n.key != key {
		return false
	}

	for i := range n.next {
		if update[i].next[i] != n {
			break
		}
		update[i].next[i] = n.next[i]
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}

	sl.size--
	return true
}

func (sl *SkipList) Len() int { return sl.size }

// Keys yields keys in ascending order.
func (sl *SkipList) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for n := sl.head.next[0]; n != nil; n = n.next[0] {
			if !yield(n.key) {
				return
			}
		}
	}
}
