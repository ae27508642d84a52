package bptree

import (
	"bptreedb/errs"
	"bptreedb/internal/logging"
	"bptreedb/storage/page"
)

// Remove deletes key from the tree if present. It returns whether the
// key was found; deleting an absent key is a no-op, not an error.
func (t *Tree[K, V]) Remove(key K) (bool, error) {
	kb := t.encodeKey(key)

	if t.IsEmpty() {
		return false, nil
	}

	ws, err := t.descendWriteFull(kb)
	if err == errNoRoot {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return t.removeWithWriteSet(ws, kb)
}

// removeWithWriteSet removes the key from
// the leaf, then repair underflow by borrowing from or merging with a
// sibling, recursing up the held path as far as the repair cascades.
// Deleted pages are only handed back to the buffer pool after every
// latch in ws (and the outer root_latch) has been released.
func (t *Tree[K, V]) removeWithWriteSet(ws *writeSet, kb []byte) (bool, error) {
	var deferred []page.ID
	release := func() {
		ws.releaseAll()
		t.rootLatch.Unlock()
		for _, id := range deferred {
			if err := t.pool.DeletePage(id); err != nil {
				logging.L.WithField("page_id", id).WithError(err).Warn("failed to deallocate merged-away page")
			}
		}
	}

	idx := len(ws.guards) - 1
	leaf := ws.guards[idx]
	if !leafRemove(leaf.Data(), t.leafL, kb, t.byteCmp) {
		release()
		return false, nil
	}
	leaf.SetDirty()

	for {
		cur := ws.guards[idx]
		isRoot := idx == 0
		isLeaf := isLeafPage(cur.Data())
		size := nodeSize(cur.Data())

		if isRoot {
			if size == 0 {
				if isLeaf {
					deferred = append(deferred, cur.PageID())
					t.rootID = page.InvalidID
				} else {
					onlyChild := internalMoveFirstChild(cur.Data(), t.internalL)
					deferred = append(deferred, cur.PageID())
					t.rootID = onlyChild
				}
				if err := t.writeMeta(); err != nil {
					release()
					return true, err
				}
			}
			break
		}

		maxHere := t.maxLeaf
		if !isLeaf {
			maxHere = t.maxInternal
		}
		if !isUnderflowSize(size, maxHere) {
			break
		}

		parent := ws.guards[idx-1]
		childIdx := internalFindChildIndex(parent.Data(), t.internalL, cur.PageID())
		if childIdx < 0 {
			release()
			return false, errs.Invariant("bptree: child page %d not found among parent %d's children", cur.PageID(), parent.PageID())
		}

		leftSibID := page.InvalidID
		rightSibID := page.InvalidID
		if childIdx > 0 {
			leftSibID = t.internalL.childAt(parent.Data(), childIdx-1)
		}
		if childIdx < nodeSize(parent.Data()) {
			rightSibID = t.internalL.childAt(parent.Data(), childIdx+1)
		}

		minReq := minSize(maxHere)
		borrowed := false

		if leftSibID != page.InvalidID {
			leftGuard, err := t.fetchWrite(leftSibID)
			if err != nil {
				release()
				return false, err
			}
			if nodeSize(leftGuard.Data()) > minReq {
				sepIdx := childIdx - 1
				if isLeaf {
					newSep := leafBorrowFromLeft(cur.Data(), leftGuard.Data(), t.leafL)
					internalSetKeyAt(parent.Data(), t.internalL, sepIdx, newSep)
				} else {
					sep := append([]byte(nil), t.internalL.keyAt(parent.Data(), sepIdx)...)
					newSep := internalBorrowFromLeft(cur.Data(), leftGuard.Data(), t.internalL, sep)
					internalSetKeyAt(parent.Data(), t.internalL, sepIdx, newSep)
				}
				cur.SetDirty()
				leftGuard.SetDirty()
				parent.SetDirty()
				borrowed = true
			}
			leftGuard.Release()
		}

		if !borrowed && rightSibID != page.InvalidID {
			rightGuard, err := t.fetchWrite(rightSibID)
			if err != nil {
				release()
				return false, err
			}
			if nodeSize(rightGuard.Data()) > minReq {
				sepIdx := childIdx
				if isLeaf {
					newSep := leafBorrowFromRight(cur.Data(), rightGuard.Data(), t.leafL)
					internalSetKeyAt(parent.Data(), t.internalL, sepIdx, newSep)
				} else {
					sep := append([]byte(nil), t.internalL.keyAt(parent.Data(), sepIdx)...)
					newSep := internalBorrowFromRight(cur.Data(), rightGuard.Data(), t.internalL, sep)
					internalSetKeyAt(parent.Data(), t.internalL, sepIdx, newSep)
				}
				cur.SetDirty()
				rightGuard.SetDirty()
				parent.SetDirty()
				borrowed = true
			}
			rightGuard.Release()
		}

		if borrowed {
			break
		}

		switch {
		case leftSibID != page.InvalidID:
			leftGuard, err := t.fetchWrite(leftSibID)
			if err != nil {
				release()
				return false, err
			}
			sepIdx := childIdx - 1
			if isLeaf {
				leafMerge(leftGuard.Data(), cur.Data(), t.leafL)
			} else {
				sep := append([]byte(nil), t.internalL.keyAt(parent.Data(), sepIdx)...)
				internalMergeInto(leftGuard.Data(), cur.Data(), t.internalL, sep)
			}
			leftGuard.SetDirty()
			internalRemoveAt(parent.Data(), t.internalL, sepIdx)
			parent.SetDirty()
			deferred = append(deferred, cur.PageID())
			leftGuard.Release()

		case rightSibID != page.InvalidID:
			rightGuard, err := t.fetchWrite(rightSibID)
			if err != nil {
				release()
				return false, err
			}
			sepIdx := childIdx
			if isLeaf {
				leafMerge(cur.Data(), rightGuard.Data(), t.leafL)
			} else {
				sep := append([]byte(nil), t.internalL.keyAt(parent.Data(), sepIdx)...)
				internalMergeInto(cur.Data(), rightGuard.Data(), t.internalL, sep)
			}
			cur.SetDirty()
			internalRemoveAt(parent.Data(), t.internalL, sepIdx)
			parent.SetDirty()
			deferred = append(deferred, rightGuard.PageID())
			rightGuard.Release()

		default:
			release()
			return false, errs.Invariant("bptree: underflowing non-root node %d has no siblings", cur.PageID())
		}

		// The parent lost one (key, child) pair; its own size may now
		// be below min_size, so repair continues one level up.
		idx--
	}

	release()
	return true, nil
}
