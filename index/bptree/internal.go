package bptree

import (
	"encoding/binary"

	"bptreedb/storage/page"
)

// internalLayout describes the fixed-offset geometry of an internal
// page: keys[maxInternal] followed by children[maxInternal+1].
// Internal nodes carry no parent pointer — the ancestor path is
// accumulated by the descent's write-set instead, so node bytes never
// need one.
type internalLayout struct {
	keySize, maxInternal int
}

func (l internalLayout) keysOff() int     { return headerSize }
func (l internalLayout) childrenOff() int { return l.keysOff() + l.maxInternal*l.keySize }

func (l internalLayout) keyAt(buf []byte, i int) []byte {
	off := l.keysOff() + i*l.keySize
	return buf[off : off+l.keySize]
}

func (l internalLayout) childAt(buf []byte, i int) page.ID {
	off := l.childrenOff() + i*8
	return page.ID(int64(binary.LittleEndian.Uint64(buf[off:])))
}

func (l internalLayout) setChildAt(buf []byte, i int, id page.ID) {
	off := l.childrenOff() + i*8
	binary.LittleEndian.PutUint64(buf[off:], uint64(int64(id)))
}

func (l internalLayout) shiftChildrenRight(buf []byte, from, count int) {
	shiftRight(buf, l.childrenOff(), 8, from, count)
}

func (l internalLayout) shiftChildrenLeft(buf []byte, from, count int) {
	shiftLeft(buf, l.childrenOff(), 8, from, count)
}

// initInternal formats buf as an empty internal page.
func initInternal(buf []byte, l internalLayout) {
	setIsLeafPage(buf, false)
	setNodeSize(buf, 0)
}

// internalUpperBound returns the number of keys <= target, which is
// exactly the child slot to descend into per the invariant "all keys
// in children[i+1] are >= keys[i]".
func internalUpperBound(buf []byte, l internalLayout, target []byte, cmp func(a, b []byte) int) int {
	n := nodeSize(buf)
	lo, hi := 0, n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(l.keyAt(buf, mid), target) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// internalLookup returns the child id to descend into for key.
func internalLookup(buf []byte, l internalLayout, key []byte, cmp func(a, b []byte) int) page.ID {
	i := internalUpperBound(buf, l, key, cmp)
	return l.childAt(buf, i)
}

// internalFindChildIndex returns the index of childID among the
// node's children, or -1 if absent.
func internalFindChildIndex(buf []byte, l internalLayout, childID page.ID) int {
	n := nodeSize(buf)
	for i := 0; i <= n; i++ {
		if l.childAt(buf, i) == childID {
			return i
		}
	}
	return -1
}

// internalInsert inserts (key, rightChild) in sorted position: the
// upper-bound index of key becomes the key slot, and rightChild is
// placed immediately after it.
func internalInsert(buf []byte, l internalLayout, key []byte, rightChild page.ID, cmp func(a, b []byte) int) {
	n := nodeSize(buf)
	idx := internalUpperBound(buf, l, key, cmp)

	shiftRight(buf, l.keysOff(), l.keySize, idx, n)
	l.shiftChildrenRight(buf, idx+1, n+1)
	copy(l.keyAt(buf, idx), key)
	l.setChildAt(buf, idx+1, rightChild)
	setNodeSize(buf, n+1)
}

// internalInsertSplit inserts (key, rightChild) into src and splits
// the result across src and dst in one step. Unlike internalInsert,
// this is safe to call when src is already at maxInternal capacity:
// src's on-page key and child arrays have no spare slot to hold the
// transient (maxInternal+1)-th entry, and key slot maxInternal would
// alias children[0] (childrenOff starts right after the key array),
// so inserting directly into a full node corrupts its first child.
// The overflow entry is instead assembled in a temporary buffer sized
// for it, then split from there. Returns the promoted up-key.
func internalInsertSplit(src, dst []byte, l internalLayout, key []byte, rightChild page.ID, cmp func(a, b []byte) int) []byte {
	n := nodeSize(src)
	idx := internalUpperBound(src, l, key, cmp)

	keys := make([]byte, (n+1)*l.keySize)
	copy(keys[:idx*l.keySize], src[l.keysOff():l.keysOff()+idx*l.keySize])
	copy(keys[idx*l.keySize:(idx+1)*l.keySize], key)
	copy(keys[(idx+1)*l.keySize:], src[l.keysOff()+idx*l.keySize:l.keysOff()+n*l.keySize])

	children := make([]byte, (n+2)*8)
	copy(children[:(idx+1)*8], src[l.childrenOff():l.childrenOff()+(idx+1)*8])
	binary.LittleEndian.PutUint64(children[(idx+1)*8:], uint64(int64(rightChild)))
	copy(children[(idx+2)*8:], src[l.childrenOff()+(idx+1)*8:l.childrenOff()+(n+1)*8])

	mid := l.maxInternal / 2

	upKey := make([]byte, l.keySize)
	copy(upKey, keys[mid*l.keySize:(mid+1)*l.keySize])

	copy(src[l.keysOff():l.keysOff()+mid*l.keySize], keys[:mid*l.keySize])
	copy(src[l.childrenOff():l.childrenOff()+(mid+1)*8], children[:(mid+1)*8])
	setNodeSize(src, mid)

	rightKeyCount := n - mid
	copy(dst[l.keysOff():l.keysOff()+rightKeyCount*l.keySize], keys[(mid+1)*l.keySize:])
	copy(dst[l.childrenOff():l.childrenOff()+(rightKeyCount+1)*8], children[(mid+1)*8:])
	setNodeSize(dst, rightKeyCount)

	return upKey
}

// internalSplit moves the keys and children after split_point = I/2
// into dst, promoting and removing the key at split_point. Returns the
// promoted up-key.
func internalSplit(src, dst []byte, l internalLayout) []byte {
	n := nodeSize(src)
	mid := l.maxInternal / 2

	upKey := make([]byte, l.keySize)
	copy(upKey, l.keyAt(src, mid))

	rightKeyCount := n - mid - 1
	rightChildCount := n - mid
	copy(dst[l.keysOff():l.keysOff()+rightKeyCount*l.keySize], src[l.keysOff()+(mid+1)*l.keySize:l.keysOff()+n*l.keySize])
	copy(dst[l.childrenOff():l.childrenOff()+rightChildCount*8], src[l.childrenOff()+(mid+1)*8:l.childrenOff()+(n+1)*8])

	setNodeSize(dst, rightKeyCount)
	setNodeSize(src, mid)
	return upKey
}

// populateNewRoot formats buf as a fresh internal root with one key
// and two children.
func populateNewRoot(buf []byte, l internalLayout, upKey []byte, left, right page.ID) {
	initInternal(buf, l)
	copy(l.keyAt(buf, 0), upKey)
	l.setChildAt(buf, 0, left)
	l.setChildAt(buf, 1, right)
	setNodeSize(buf, 1)
}

// internalRemoveAt removes keys[keyIdx] and children[keyIdx+1].
func internalRemoveAt(buf []byte, l internalLayout, keyIdx int) {
	n := nodeSize(buf)
	shiftLeft(buf, l.keysOff(), l.keySize, keyIdx, n)
	l.shiftChildrenLeft(buf, keyIdx+1, n+1)
	setNodeSize(buf, n-1)
}

func internalSetKeyAt(buf []byte, l internalLayout, i int, key []byte) {
	copy(l.keyAt(buf, i), key)
}

// internalMoveFirstChild returns children[0]; used when an internal
// root collapses to its sole remaining child.
func internalMoveFirstChild(buf []byte, l internalLayout) page.ID {
	return l.childAt(buf, 0)
}

// internalBorrowFromLeft rotates left's last (key, child) through the
// parent separator into cur's front. parentSep is the separator
// currently between left and cur; returns the new separator (left's
// former last key).
func internalBorrowFromLeft(cur, left []byte, l internalLayout, parentSep []byte) []byte {
	ln := nodeSize(left)
	cn := nodeSize(cur)

	newSep := make([]byte, l.keySize)
	copy(newSep, l.keyAt(left, ln-1))
	lastChild := l.childAt(left, ln)

	shiftRight(cur, l.keysOff(), l.keySize, 0, cn)
	l.shiftChildrenRight(cur, 0, cn+1)
	copy(l.keyAt(cur, 0), parentSep)
	l.setChildAt(cur, 0, lastChild)
	setNodeSize(cur, cn+1)
	setNodeSize(left, ln-1)

	return newSep
}

// internalBorrowFromRight rotates right's first (key, child) through
// the parent separator into cur's end. parentSep is the separator
// currently between cur and right; returns the new separator (right's
// former first key).
func internalBorrowFromRight(cur, right []byte, l internalLayout, parentSep []byte) []byte {
	cn := nodeSize(cur)
	rn := nodeSize(right)

	newSep := make([]byte, l.keySize)
	copy(newSep, l.keyAt(right, 0))
	firstChild := l.childAt(right, 0)

	copy(l.keyAt(cur, cn), parentSep)
	l.setChildAt(cur, cn+1, firstChild)
	setNodeSize(cur, cn+1)

	l.shiftChildrenLeft(right, 0, rn+1)
	shiftLeft(right, l.keysOff(), l.keySize, 0, rn)
	setNodeSize(right, rn-1)

	return newSep
}

// internalMergeInto pulls the parent's separator key down between
// left and right, then appends right's keys and children onto left.
func internalMergeInto(left, right []byte, l internalLayout, parentSep []byte) {
	ln := nodeSize(left)
	rn := nodeSize(right)

	copy(l.keyAt(left, ln), parentSep)
	copy(left[l.keysOff()+(ln+1)*l.keySize:l.keysOff()+(ln+1+rn)*l.keySize], right[l.keysOff():l.keysOff()+rn*l.keySize])
	copy(left[l.childrenOff()+(ln+1)*8:l.childrenOff()+(ln+1+rn+1)*8], right[l.childrenOff():l.childrenOff()+(rn+1)*8])
	setNodeSize(left, ln+1+rn)
}
