package bptree

import (
	"encoding/binary"

	"bptreedb/storage/page"
)

// leafLayout describes the fixed-offset geometry of a leaf page for a
// given key size, value size, and fanout. It carries no state of its
// own — every method takes the page buffer explicitly — so the same
// layout value can be shared across every leaf page a tree touches.
type leafLayout struct {
	keySize, valSize, maxLeaf int
}

const leafNextOff = headerSize // next_page_id, 8 bytes, right after the header

func (l leafLayout) keysOff() int { return leafNextOff + 8 }
func (l leafLayout) valsOff() int { return l.keysOff() + l.maxLeaf*l.keySize }

func (l leafLayout) keyAt(buf []byte, i int) []byte {
	off := l.keysOff() + i*l.keySize
	return buf[off : off+l.keySize]
}

func (l leafLayout) valAt(buf []byte, i int) []byte {
	off := l.valsOff() + i*l.valSize
	return buf[off : off+l.valSize]
}

func leafNext(buf []byte) page.ID {
	return page.ID(int64(binary.LittleEndian.Uint64(buf[leafNextOff:])))
}

func setLeafNext(buf []byte, id page.ID) {
	binary.LittleEndian.PutUint64(buf[leafNextOff:], uint64(int64(id)))
}

// initLeaf formats buf as an empty leaf page.
func initLeaf(buf []byte, l leafLayout) {
	setIsLeafPage(buf, true)
	setNodeSize(buf, 0)
	setLeafNext(buf, page.InvalidID)
}

// leafLowerBound returns the first index in keys[0:size] whose key is
// not less than target.
func leafLowerBound(buf []byte, l leafLayout, target []byte, cmp func(a, b []byte) int) int {
	n := nodeSize(buf)
	lo, hi := 0, n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(l.keyAt(buf, mid), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// leafFindIndex returns the lower-bound position of key in
// keys[0:size].
func leafFindIndex(buf []byte, l leafLayout, key []byte, cmp func(a, b []byte) int) int {
	return leafLowerBound(buf, l, key, cmp)
}

// leafGet returns the value for key, if present.
func leafGet(buf []byte, l leafLayout, key []byte, cmp func(a, b []byte) int) ([]byte, bool) {
	n := nodeSize(buf)
	idx := leafLowerBound(buf, l, key, cmp)
	if idx < n && cmp(l.keyAt(buf, idx), key) == 0 {
		return l.valAt(buf, idx), true
	}
	return nil, false
}

// leafInsert inserts (key, value) in sorted position. Returns false
// without modifying the page if key is already present.
func leafInsert(buf []byte, l leafLayout, key, val []byte, cmp func(a, b []byte) int) bool {
	n := nodeSize(buf)
	idx := leafLowerBound(buf, l, key, cmp)
	if idx < n && cmp(l.keyAt(buf, idx), key) == 0 {
		return false
	}
	shiftRight(buf, l.keysOff(), l.keySize, idx, n)
	shiftRight(buf, l.valsOff(), l.valSize, idx, n)
	copy(l.keyAt(buf, idx), key)
	copy(l.valAt(buf, idx), val)
	setNodeSize(buf, n+1)
	return true
}

// leafRemove removes key if present, returning whether it was found.
func leafRemove(buf []byte, l leafLayout, key []byte, cmp func(a, b []byte) int) bool {
	n := nodeSize(buf)
	idx := leafLowerBound(buf, l, key, cmp)
	if idx >= n || cmp(l.keyAt(buf, idx), key) != 0 {
		return false
	}
	shiftLeft(buf, l.keysOff(), l.keySize, idx, n)
	shiftLeft(buf, l.valsOff(), l.valSize, idx, n)
	setNodeSize(buf, n-1)
	return true
}

// leafSplit moves the upper half of src's entries (by current size,
// not capacity) into dst, and returns the separator key to propagate
// upward: dst's first key after the move.
func leafSplit(src, dst []byte, l leafLayout) []byte {
	n := nodeSize(src)
	mid := n / 2
	cnt := n - mid

	copy(dst[l.keysOff():l.keysOff()+cnt*l.keySize], src[l.keysOff()+mid*l.keySize:l.keysOff()+n*l.keySize])
	copy(dst[l.valsOff():l.valsOff()+cnt*l.valSize], src[l.valsOff()+mid*l.valSize:l.valsOff()+n*l.valSize])
	setNodeSize(dst, cnt)
	setNodeSize(src, mid)

	sep := make([]byte, l.keySize)
	copy(sep, l.keyAt(dst, 0))
	return sep
}

// leafBorrowFromLeft moves left's last (key, value) to cur's front.
// Returns the parent's new separator: cur's new first key.
func leafBorrowFromLeft(cur, left []byte, l leafLayout) []byte {
	ln := nodeSize(left)
	cn := nodeSize(cur)

	shiftRight(cur, l.keysOff(), l.keySize, 0, cn)
	shiftRight(cur, l.valsOff(), l.valSize, 0, cn)
	copy(l.keyAt(cur, 0), l.keyAt(left, ln-1))
	copy(l.valAt(cur, 0), l.valAt(left, ln-1))
	setNodeSize(cur, cn+1)
	setNodeSize(left, ln-1)

	sep := make([]byte, l.keySize)
	copy(sep, l.keyAt(cur, 0))
	return sep
}

// leafBorrowFromRight moves right's first (key, value) to cur's end.
// Returns the parent's new separator: right's new first key.
func leafBorrowFromRight(cur, right []byte, l leafLayout) []byte {
	cn := nodeSize(cur)
	rn := nodeSize(right)

	copy(l.keyAt(cur, cn), l.keyAt(right, 0))
	copy(l.valAt(cur, cn), l.valAt(right, 0))
	shiftLeft(right, l.keysOff(), l.keySize, 0, rn)
	shiftLeft(right, l.valsOff(), l.valSize, 0, rn)
	setNodeSize(cur, cn+1)
	setNodeSize(right, rn-1)

	sep := make([]byte, l.keySize)
	copy(sep, l.keyAt(right, 0))
	return sep
}

// leafMerge appends right's entries onto left and fixes the next-leaf
// link; left's new size is the sum of both sizes.
func leafMerge(left, right []byte, l leafLayout) {
	ln := nodeSize(left)
	rn := nodeSize(right)

	copy(left[l.keysOff()+ln*l.keySize:l.keysOff()+(ln+rn)*l.keySize], right[l.keysOff():l.keysOff()+rn*l.keySize])
	copy(left[l.valsOff()+ln*l.valSize:l.valsOff()+(ln+rn)*l.valSize], right[l.valsOff():l.valsOff()+rn*l.valSize])
	setLeafNext(left, leafNext(right))
	setNodeSize(left, ln+rn)
}
