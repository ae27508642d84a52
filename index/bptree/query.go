package bptree

import "bptreedb/storage/page"

// Pair is one entry returned by RangeScan.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// Get looks up key, returning its value and true if present.
func (t *Tree[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if t.IsEmpty() {
		return zero, false, nil
	}

	kb := t.encodeKey(key)
	leaf, err := t.descendRead(kb)
	if err == errNoRoot {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	defer leaf.Release()

	vb, found := leafGet(leaf.Data(), t.leafL, kb, t.byteCmp)
	if !found {
		return zero, false, nil
	}
	return t.valCodec.Decode(vb), true, nil
}

// Height returns the number of levels from root to leaf inclusive (a
// single leaf root has height 1), or 0 for an empty tree. Exposed so
// callers can observe the height-monotonicity law: inserts never
// shrink it, removes never grow it.
func (t *Tree[K, V]) Height() (int, error) {
	t.rootLatch.RLock()
	defer t.rootLatch.RUnlock()
	if t.rootID == page.InvalidID {
		return 0, nil
	}

	height := 0
	id := t.rootID
	for {
		g, err := t.pool.FetchRead(id)
		if err != nil {
			return 0, err
		}
		height++
		leaf := isLeafPage(g.Data())
		var next page.ID
		if !leaf {
			next = t.internalL.childAt(g.Data(), 0)
		}
		g.Release()
		if leaf {
			return height, nil
		}
		id = next
	}
}

// RangeScan returns entries with lo <= k < hi in ascending order.
func (t *Tree[K, V]) RangeScan(lo, hi K) ([]Pair[K, V], error) {
	it, err := t.BeginAt(lo)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Pair[K, V]
	for it.Valid() {
		k := it.Key()
		if t.cmp(k, hi) >= 0 {
			break
		}
		out = append(out, Pair[K, V]{Key: k, Value: it.Value()})
		if !it.Next() {
			break
		}
	}
	return out, nil
}
