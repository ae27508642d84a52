package bptree

import (
	"testing"

	"bptreedb/storage/page"

	"github.com/stretchr/testify/require"
)

func cmpBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func kb(n byte) []byte { return []byte{n} }

func newLeafBuf(l leafLayout) []byte {
	buf := make([]byte, 4096)
	initLeaf(buf, l)
	return buf
}

func testLeafLayout() leafLayout {
	return leafLayout{keySize: 1, valSize: 1, maxLeaf: 4}
}

func TestLeafInsertKeepsSortedOrder(t *testing.T) {
	l := testLeafLayout()
	buf := newLeafBuf(l)

	require.True(t, leafInsert(buf, l, kb(3), kb(30), cmpBytes))
	require.True(t, leafInsert(buf, l, kb(1), kb(10), cmpBytes))
	require.True(t, leafInsert(buf, l, kb(2), kb(20), cmpBytes))

	require.Equal(t, 3, nodeSize(buf))
	require.Equal(t, kb(1), l.keyAt(buf, 0))
	require.Equal(t, kb(2), l.keyAt(buf, 1))
	require.Equal(t, kb(3), l.keyAt(buf, 2))
}

func TestLeafInsertDuplicateReturnsFalse(t *testing.T) {
	l := testLeafLayout()
	buf := newLeafBuf(l)
	require.True(t, leafInsert(buf, l, kb(1), kb(10), cmpBytes))
	require.False(t, leafInsert(buf, l, kb(1), kb(99), cmpBytes))
	require.Equal(t, 1, nodeSize(buf))
}

func TestLeafGetMissingKey(t *testing.T) {
	l := testLeafLayout()
	buf := newLeafBuf(l)
	leafInsert(buf, l, kb(1), kb(10), cmpBytes)
	_, found := leafGet(buf, l, kb(5), cmpBytes)
	require.False(t, found)
}

func TestLeafRemoveShiftsRemainingEntries(t *testing.T) {
	l := testLeafLayout()
	buf := newLeafBuf(l)
	leafInsert(buf, l, kb(1), kb(10), cmpBytes)
	leafInsert(buf, l, kb(2), kb(20), cmpBytes)
	leafInsert(buf, l, kb(3), kb(30), cmpBytes)

	require.True(t, leafRemove(buf, l, kb(2), cmpBytes))
	require.Equal(t, 2, nodeSize(buf))
	require.Equal(t, kb(1), l.keyAt(buf, 0))
	require.Equal(t, kb(3), l.keyAt(buf, 1))

	require.False(t, leafRemove(buf, l, kb(2), cmpBytes))
}

func TestLeafSplitDistributesHalves(t *testing.T) {
	l := testLeafLayout()
	src := newLeafBuf(l)
	dst := newLeafBuf(l)

	for i := byte(1); i <= 4; i++ {
		leafInsert(src, l, kb(i), kb(i*10), cmpBytes)
	}
	sep := leafSplit(src, dst, l)

	require.Equal(t, 2, nodeSize(src))
	require.Equal(t, 2, nodeSize(dst))
	require.Equal(t, kb(3), sep)
	require.Equal(t, kb(3), l.keyAt(dst, 0))
}

func TestLeafBorrowFromLeftMovesLastEntry(t *testing.T) {
	l := testLeafLayout()
	left := newLeafBuf(l)
	cur := newLeafBuf(l)
	leafInsert(left, l, kb(1), kb(10), cmpBytes)
	leafInsert(left, l, kb(2), kb(20), cmpBytes)
	leafInsert(cur, l, kb(5), kb(50), cmpBytes)

	sep := leafBorrowFromLeft(cur, left, l)
	require.Equal(t, 1, nodeSize(left))
	require.Equal(t, 2, nodeSize(cur))
	require.Equal(t, kb(2), l.keyAt(cur, 0))
	require.Equal(t, kb(2), sep)
}

func TestLeafBorrowFromRightMovesFirstEntry(t *testing.T) {
	l := testLeafLayout()
	cur := newLeafBuf(l)
	right := newLeafBuf(l)
	leafInsert(cur, l, kb(1), kb(10), cmpBytes)
	leafInsert(right, l, kb(5), kb(50), cmpBytes)
	leafInsert(right, l, kb(6), kb(60), cmpBytes)

	sep := leafBorrowFromRight(cur, right, l)
	require.Equal(t, 2, nodeSize(cur))
	require.Equal(t, 1, nodeSize(right))
	require.Equal(t, kb(5), l.keyAt(cur, 1))
	require.Equal(t, kb(6), sep)
}

func TestLeafMergeAppendsAndLinksNext(t *testing.T) {
	l := testLeafLayout()
	left := newLeafBuf(l)
	right := newLeafBuf(l)
	leafInsert(left, l, kb(1), kb(10), cmpBytes)
	leafInsert(right, l, kb(2), kb(20), cmpBytes)
	setLeafNext(right, 99)

	leafMerge(left, right, l)
	require.Equal(t, 2, nodeSize(left))
	require.Equal(t, kb(1), l.keyAt(left, 0))
	require.Equal(t, kb(2), l.keyAt(left, 1))
	require.Equal(t, page.ID(99), leafNext(left))
}
