package bptree

import (
	"bptreedb/storage/buffer"
	"bptreedb/storage/page"
)

// Iterator is a forward cursor holding a pinned, read-latched leaf
// frame and an index into it. A nil guard represents the end
// sentinel. Grounded on DaemonDB's bplus.Iterator (SeekGE/Next),
// generalized to a non-blocking sibling advance: DaemonDB's Next
// blocks on the next leaf's mutex, which would let the iterator's
// advance path deadlock against a concurrent writer crabbing up the
// same chain.
type Iterator[K any, V any] struct {
	tree  *Tree[K, V]
	guard *buffer.Guard
	idx   int
}

// Valid reports whether the iterator currently refers to an entry.
func (it *Iterator[K, V]) Valid() bool { return it.guard != nil }

// Key decodes the key at the iterator's current position. Valid()
// must be true.
func (it *Iterator[K, V]) Key() K {
	return it.tree.keyCodec.Decode(it.tree.leafL.keyAt(it.guard.Data(), it.idx))
}

// Value decodes the value at the iterator's current position. Valid()
// must be true.
func (it *Iterator[K, V]) Value() V {
	return it.tree.valCodec.Decode(it.tree.leafL.valAt(it.guard.Data(), it.idx))
}

// Close releases the iterator's held latch, if any. Safe to call more
// than once.
func (it *Iterator[K, V]) Close() {
	if it.guard != nil {
		it.guard.Release()
		it.guard = nil
	}
}

// Next advances to the next entry, returning false if the iterator is
// now exhausted. If the current leaf is exhausted, it attempts a
// non-blocking read latch on the next leaf in the chain; if that
// latch is not immediately available, the iterator becomes end rather
// than block: the advance path is the one place that must never block
// on a sibling latch, to keep a stalled reader from deadlocking
// against a writer crabbing up from below.
func (it *Iterator[K, V]) Next() bool {
	if it.guard == nil {
		return false
	}

	it.idx++
	if it.idx < nodeSize(it.guard.Data()) {
		return true
	}

	nextID := leafNext(it.guard.Data())
	cur := it.guard
	if nextID == page.InvalidID {
		cur.Release()
		it.guard = nil
		return false
	}

	next, ok, err := it.tree.pool.TryFetchRead(nextID)
	cur.Release()
	if err != nil || !ok {
		it.guard = nil
		return false
	}
	it.guard = next
	it.idx = 0
	if nodeSize(it.guard.Data()) == 0 {
		it.guard.Release()
		it.guard = nil
		return false
	}
	return true
}

// leftmostLeaf descends to the leftmost leaf under a read latch,
// releasing each parent as soon as its child is latched.
func (t *Tree[K, V]) leftmostLeaf() (*buffer.Guard, error) {
	t.rootLatch.RLock()
	rootID := t.rootID
	if rootID == page.InvalidID {
		t.rootLatch.RUnlock()
		return nil, errNoRoot
	}
	cur, err := t.fetchRead(rootID)
	t.rootLatch.RUnlock()
	if err != nil {
		return nil, err
	}
	for !isLeafPage(cur.Data()) {
		childID := t.internalL.childAt(cur.Data(), 0)
		child, err := t.fetchRead(childID)
		if err != nil {
			cur.Release()
			return nil, err
		}
		cur.Release()
		cur = child
	}
	return cur, nil
}

// Begin returns an iterator positioned at the first entry in the
// tree, or an already-exhausted iterator if the tree is empty.
func (t *Tree[K, V]) Begin() (*Iterator[K, V], error) {
	leaf, err := t.leftmostLeaf()
	if err == errNoRoot {
		return &Iterator[K, V]{tree: t}, nil
	}
	if err != nil {
		return nil, err
	}
	it := &Iterator[K, V]{tree: t, guard: leaf, idx: 0}
	it.normalize()
	return it, nil
}

// BeginAt returns an iterator positioned at find_index(key): the
// first entry whose key is not less than key.
func (t *Tree[K, V]) BeginAt(key K) (*Iterator[K, V], error) {
	kb := t.encodeKey(key)
	leaf, err := t.descendRead(kb)
	if err == errNoRoot {
		return &Iterator[K, V]{tree: t}, nil
	}
	if err != nil {
		return nil, err
	}
	idx := leafFindIndex(leaf.Data(), t.leafL, kb, t.byteCmp)
	it := &Iterator[K, V]{tree: t, guard: leaf, idx: idx}
	it.normalize()
	return it, nil
}

// End returns the sentinel end iterator.
func (t *Tree[K, V]) End() *Iterator[K, V] {
	return &Iterator[K, V]{tree: t}
}

// normalize rolls the iterator forward past any leaf it is
// positioned at but out of bounds on (possible after BeginAt lands
// past the last key of its leaf), using blocking fetches since this
// runs once at construction rather than on every advance.
func (it *Iterator[K, V]) normalize() {
	for it.guard != nil && it.idx >= nodeSize(it.guard.Data()) {
		nextID := leafNext(it.guard.Data())
		it.guard.Release()
		if nextID == page.InvalidID {
			it.guard = nil
			return
		}
		next, err := it.tree.fetchRead(nextID)
		if err != nil {
			it.guard = nil
			return
		}
		it.guard = next
		it.idx = 0
	}
}
