package bptree

import (
	"bptreedb/storage/buffer"
	"bptreedb/storage/page"
)

// errRootBecameNonEmpty signals that a concurrent insert populated the
// root between an IsEmpty() check and the exclusive root lock being
// taken; the caller retries from the top.
var errRootBecameNonEmpty = sentinelError("bptree: root became non-empty")

// Insert adds (key, value) to the tree. It returns true if the key was
// inserted, false if it was already present (no pages are mutated in
// that case).
func (t *Tree[K, V]) Insert(key K, value V) (bool, error) {
	kb := t.encodeKey(key)

	for {
		if t.IsEmpty() {
			ok, err := t.insertIntoEmptyRoot(kb, value)
			if err == errRootBecameNonEmpty {
				continue
			}
			return ok, err
		}

		leaf, ok, err := t.descendWriteOptimistic(kb)
		if err == errNoRoot {
			continue
		}
		if err != nil {
			return false, err
		}
		if ok {
			return t.insertIntoSafeLeaf(leaf, kb, value)
		}

		ws, rootLocked, err := t.descendWritePessimistic(kb)
		if err == errNoRoot {
			if rootLocked {
				t.rootLatch.Unlock()
			}
			continue
		}
		if err != nil {
			return false, err
		}
		return t.insertWithWriteSet(ws, rootLocked, kb, value)
	}
}

// insertIntoEmptyRoot allocates a leaf, writes the single entry, and
// makes it the root.
func (t *Tree[K, V]) insertIntoEmptyRoot(kb []byte, value V) (bool, error) {
	t.rootLatch.Lock()
	defer t.rootLatch.Unlock()

	if t.rootID != page.InvalidID {
		return false, errRootBecameNonEmpty
	}

	guard, err := t.pool.NewPageGuarded()
	if err != nil {
		return false, err
	}
	initLeaf(guard.Data(), t.leafL)

	vb := make([]byte, t.valCodec.Size())
	t.valCodec.Encode(value, vb)
	leafInsert(guard.Data(), t.leafL, kb, vb, t.byteCmp)
	guard.SetDirty()

	t.rootID = guard.PageID()
	guard.Release()

	if err := t.writeMeta(); err != nil {
		return false, err
	}
	return true, nil
}

// insertIntoSafeLeaf implements steps 3-4: a leaf known safe for
// insert (from the optimistic path) never needs a split, so a
// duplicate check and in-place insert suffice.
func (t *Tree[K, V]) insertIntoSafeLeaf(leaf *buffer.Guard, kb []byte, value V) (bool, error) {
	defer leaf.Release()

	vb := make([]byte, t.valCodec.Size())
	t.valCodec.Encode(value, vb)
	inserted := leafInsert(leaf.Data(), t.leafL, kb, vb, t.byteCmp)
	if inserted {
		leaf.SetDirty()
	}
	return inserted, nil
}

// insertWithWriteSet implements steps 3-7: duplicate check, in-place
// insert or leaf split, propagation of (up_key, new_child_id) up the
// held ancestor path, and new-root allocation if propagation exits it.
func (t *Tree[K, V]) insertWithWriteSet(ws *writeSet, rootLocked bool, kb []byte, value V) (bool, error) {
	release := func() {
		ws.releaseAll()
		if rootLocked {
			t.rootLatch.Unlock()
		}
	}

	leafGuard := ws.guards[len(ws.guards)-1]
	ws.guards = ws.guards[:len(ws.guards)-1]
	ws.ids = ws.ids[:len(ws.ids)-1]

	if _, found := leafGet(leafGuard.Data(), t.leafL, kb, t.byteCmp); found {
		leafGuard.Release()
		release()
		return false, nil
	}

	vb := make([]byte, t.valCodec.Size())
	t.valCodec.Encode(value, vb)

	if !isFullSize(nodeSize(leafGuard.Data()), t.maxLeaf) {
		leafInsert(leafGuard.Data(), t.leafL, kb, vb, t.byteCmp)
		leafGuard.SetDirty()
		leafGuard.Release()
		release()
		return true, nil
	}

	newLeaf, err := t.pool.NewPageGuarded()
	if err != nil {
		leafGuard.Release()
		release()
		return false, err
	}
	initLeaf(newLeaf.Data(), t.leafL)
	upKey := leafSplit(leafGuard.Data(), newLeaf.Data(), t.leafL)
	setLeafNext(newLeaf.Data(), leafNext(leafGuard.Data()))
	setLeafNext(leafGuard.Data(), newLeaf.PageID())

	if t.byteCmp(kb, upKey) < 0 {
		leafInsert(leafGuard.Data(), t.leafL, kb, vb, t.byteCmp)
	} else {
		leafInsert(newLeaf.Data(), t.leafL, kb, vb, t.byteCmp)
	}
	leafGuard.SetDirty()
	newLeaf.SetDirty()

	leftID := leafGuard.PageID()
	upChildID := newLeaf.PageID()
	newLeaf.Release()
	leafGuard.Release()

	for len(ws.guards) > 0 {
		anc := ws.guards[len(ws.guards)-1]
		ws.guards = ws.guards[:len(ws.guards)-1]
		ws.ids = ws.ids[:len(ws.ids)-1]

		if !isFullSize(nodeSize(anc.Data()), t.maxInternal) {
			internalInsert(anc.Data(), t.internalL, upKey, upChildID, t.byteCmp)
			anc.SetDirty()
			anc.Release()
			release()
			return true, nil
		}

		newAnc, err := t.pool.NewPageGuarded()
		if err != nil {
			anc.Release()
			release()
			return false, err
		}
		initInternal(newAnc.Data(), t.internalL)
		promoted := internalInsertSplit(anc.Data(), newAnc.Data(), t.internalL, upKey, upChildID, t.byteCmp)
		anc.SetDirty()
		newAnc.SetDirty()

		upKey = promoted
		leftID = anc.PageID()
		upChildID = newAnc.PageID()
		newAnc.Release()
		anc.Release()
	}

	// Propagation exited the held path entirely: every node up to and
	// including the old root required a split. Allocate a new root.
	newRoot, err := t.pool.NewPageGuarded()
	if err != nil {
		release()
		return false, err
	}
	populateNewRoot(newRoot.Data(), t.internalL, upKey, leftID, upChildID)
	newRoot.SetDirty()
	t.rootID = newRoot.PageID()
	newRoot.Release()

	if err := t.writeMeta(); err != nil {
		release()
		return false, err
	}
	release()
	return true, nil
}
