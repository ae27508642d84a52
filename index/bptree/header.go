// Package bptree implements the node layout and mutation primitives
// (this file and leaf.go/internal.go) and the concurrent B+ tree
// engine (tree.go, descent.go, insert.go, delete.go, iterator.go).
//
// Node views are stateless: every function here reads and writes
// directly into a pinned page's byte buffer, never into a deserialized
// heap object. This supersedes DaemonDB's bplus.Node (a
// heap struct hydrated by SerializeNode/DeserializeNode on every
// access) — the byte-layout knowledge in DaemonDB's
// node_to_index_page.go survives, reshaped into direct-buffer
// accessors.
package bptree

import "encoding/binary"

const (
	offIsLeaf = 0
	offSize   = 1
	// headerSize is the common header every node page carries before
	// its type-specific body: a one-byte leaf flag and a four-byte key
	// count.
	headerSize = 5
)

func isLeafPage(buf []byte) bool { return buf[offIsLeaf] == 1 }

func setIsLeafPage(buf []byte, v bool) {
	if v {
		buf[offIsLeaf] = 1
	} else {
		buf[offIsLeaf] = 0
	}
}

func nodeSize(buf []byte) int {
	return int(int32(binary.LittleEndian.Uint32(buf[offSize:])))
}

func setNodeSize(buf []byte, n int) {
	binary.LittleEndian.PutUint32(buf[offSize:], uint32(int32(n)))
}

// minSize returns floor((max+1)/2), the minimum key count for a
// non-root node of capacity max. For even max this matches the split
// point exactly: splitting a full (max-key) node puts max/2 keys on one
// side and max-max/2 on the other (one up-key removed on the internal
// side), and floor((max+1)/2) == max/2, so a freshly split node is
// never classified as underflowing, and merging a minSize-1 node with
// a minSize sibling never exceeds max. For odd max the value is
// max/2+1, one more than the smaller side of a split.
func minSize(max int) int { return (max + 1) / 2 }

func isFullSize(n, max int) bool { return n >= max }

func isUnderflowSize(n, max int) bool { return n < minSize(max) }

// shiftRight moves count elements of width elemSize starting at
// arrayOff+from*elemSize one slot to the right (growing the array by
// one at index from). Go's builtin copy is memmove-safe for
// overlapping slices, which this relies on.
func shiftRight(buf []byte, arrayOff, elemSize, from, count int) {
	if from >= count {
		return
	}
	src := buf[arrayOff+from*elemSize : arrayOff+count*elemSize]
	dst := buf[arrayOff+(from+1)*elemSize : arrayOff+(count+1)*elemSize]
	copy(dst, src)
}

// shiftLeft moves elements [from+1, count) one slot to the left,
// overwriting index from (shrinking the array by one).
func shiftLeft(buf []byte, arrayOff, elemSize, from, count int) {
	if from+1 >= count {
		return
	}
	src := buf[arrayOff+(from+1)*elemSize : arrayOff+count*elemSize]
	dst := buf[arrayOff+from*elemSize : arrayOff+(count-1)*elemSize]
	copy(dst, src)
}
