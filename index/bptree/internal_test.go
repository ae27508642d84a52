package bptree

import (
	"testing"

	"bptreedb/storage/page"

	"github.com/stretchr/testify/require"
)

func testInternalLayout() internalLayout {
	return internalLayout{keySize: 1, maxInternal: 4}
}

func newInternalBuf(l internalLayout) []byte {
	buf := make([]byte, 4096)
	initInternal(buf, l)
	return buf
}

func TestInternalInsertPlacesRightChildAfterKey(t *testing.T) {
	l := testInternalLayout()
	buf := newInternalBuf(l)
	l.setChildAt(buf, 0, 1)

	internalInsert(buf, l, kb(5), 2, cmpBytes)
	require.Equal(t, 1, nodeSize(buf))
	require.Equal(t, kb(5), l.keyAt(buf, 0))
	require.Equal(t, page.ID(1), l.childAt(buf, 0))
	require.Equal(t, page.ID(2), l.childAt(buf, 1))
}

func TestInternalLookupDescendsCorrectChild(t *testing.T) {
	l := testInternalLayout()
	buf := newInternalBuf(l)
	l.setChildAt(buf, 0, 10)
	internalInsert(buf, l, kb(5), 20, cmpBytes)
	internalInsert(buf, l, kb(10), 30, cmpBytes)

	require.Equal(t, page.ID(10), internalLookup(buf, l, kb(3), cmpBytes))
	require.Equal(t, page.ID(20), internalLookup(buf, l, kb(5), cmpBytes))
	require.Equal(t, page.ID(20), internalLookup(buf, l, kb(7), cmpBytes))
	require.Equal(t, page.ID(30), internalLookup(buf, l, kb(100), cmpBytes))
}

func TestInternalFindChildIndex(t *testing.T) {
	l := testInternalLayout()
	buf := newInternalBuf(l)
	l.setChildAt(buf, 0, 10)
	internalInsert(buf, l, kb(5), 20, cmpBytes)

	require.Equal(t, 0, internalFindChildIndex(buf, l, 10))
	require.Equal(t, 1, internalFindChildIndex(buf, l, 20))
	require.Equal(t, -1, internalFindChildIndex(buf, l, 99))
}

func TestInternalSplitPromotesMiddleKey(t *testing.T) {
	l := testInternalLayout()
	src := newInternalBuf(l)
	dst := newInternalBuf(l)

	l.setChildAt(src, 0, 0)
	for i := byte(1); i <= 4; i++ {
		internalInsert(src, l, kb(i), page.ID(i), cmpBytes)
	}

	upKey := internalSplit(src, dst, l)
	require.Equal(t, kb(3), upKey)
	require.Equal(t, 2, nodeSize(src))
	require.Equal(t, 1, nodeSize(dst))
	require.Equal(t, kb(4), l.keyAt(dst, 0))
	require.Equal(t, page.ID(3), l.childAt(dst, 0))
	require.Equal(t, page.ID(4), l.childAt(dst, 1))
}

func TestInternalInsertSplitOnFullNodePreservesFirstChild(t *testing.T) {
	l := testInternalLayout()
	src := newInternalBuf(l)
	dst := newInternalBuf(l)

	l.setChildAt(src, 0, page.ID(100))
	for i := byte(1); i <= 4; i++ {
		internalInsert(src, l, kb(i), page.ID(100+int(i)), cmpBytes)
	}
	require.Equal(t, 4, nodeSize(src))

	upKey := internalInsertSplit(src, dst, l, kb(5), page.ID(999), cmpBytes)

	require.Equal(t, kb(3), upKey)
	require.Equal(t, 2, nodeSize(src))
	require.Equal(t, 2, nodeSize(dst))

	require.Equal(t, kb(1), l.keyAt(src, 0))
	require.Equal(t, kb(2), l.keyAt(src, 1))
	require.Equal(t, page.ID(100), l.childAt(src, 0))
	require.Equal(t, page.ID(101), l.childAt(src, 1))
	require.Equal(t, page.ID(102), l.childAt(src, 2))

	require.Equal(t, kb(4), l.keyAt(dst, 0))
	require.Equal(t, kb(5), l.keyAt(dst, 1))
	require.Equal(t, page.ID(103), l.childAt(dst, 0))
	require.Equal(t, page.ID(104), l.childAt(dst, 1))
	require.Equal(t, page.ID(999), l.childAt(dst, 2))
}

func TestInternalBorrowFromLeftRotatesSeparatorThroughParent(t *testing.T) {
	l := testInternalLayout()
	left := newInternalBuf(l)
	cur := newInternalBuf(l)
	l.setChildAt(left, 0, 1)
	internalInsert(left, l, kb(5), 2, cmpBytes)
	l.setChildAt(cur, 0, 3)

	newSep := internalBorrowFromLeft(cur, left, l, kb(9))
	require.Equal(t, kb(5), newSep)
	require.Equal(t, 0, nodeSize(left))
	require.Equal(t, 1, nodeSize(cur))
	require.Equal(t, kb(9), l.keyAt(cur, 0))
	require.Equal(t, page.ID(2), l.childAt(cur, 0))
	require.Equal(t, page.ID(3), l.childAt(cur, 1))
}

func TestInternalBorrowFromRightRotatesSeparatorThroughParent(t *testing.T) {
	l := testInternalLayout()
	cur := newInternalBuf(l)
	right := newInternalBuf(l)
	l.setChildAt(cur, 0, 1)
	l.setChildAt(right, 0, 2)
	internalInsert(right, l, kb(9), 3, cmpBytes)

	newSep := internalBorrowFromRight(cur, right, l, kb(5))
	require.Equal(t, kb(9), newSep)
	require.Equal(t, 1, nodeSize(cur))
	require.Equal(t, 0, nodeSize(right))
	require.Equal(t, kb(5), l.keyAt(cur, 0))
	require.Equal(t, page.ID(1), l.childAt(cur, 0))
	require.Equal(t, page.ID(2), l.childAt(cur, 1))
	require.Equal(t, page.ID(3), l.childAt(right, 0))
}

func TestInternalMergeIntoPullsParentSeparatorDown(t *testing.T) {
	l := testInternalLayout()
	left := newInternalBuf(l)
	right := newInternalBuf(l)
	l.setChildAt(left, 0, 1)
	l.setChildAt(right, 0, 2)
	internalInsert(right, l, kb(9), 3, cmpBytes)

	internalMergeInto(left, right, l, kb(5))
	require.Equal(t, 2, nodeSize(left))
	require.Equal(t, kb(5), l.keyAt(left, 0))
	require.Equal(t, kb(9), l.keyAt(left, 1))
	require.Equal(t, page.ID(1), l.childAt(left, 0))
	require.Equal(t, page.ID(2), l.childAt(left, 1))
	require.Equal(t, page.ID(3), l.childAt(left, 2))
}

func TestInternalRemoveAtDropsKeyAndRightChild(t *testing.T) {
	l := testInternalLayout()
	buf := newInternalBuf(l)
	l.setChildAt(buf, 0, 1)
	internalInsert(buf, l, kb(5), 2, cmpBytes)
	internalInsert(buf, l, kb(10), 3, cmpBytes)

	internalRemoveAt(buf, l, 1)
	require.Equal(t, 1, nodeSize(buf))
	require.Equal(t, kb(5), l.keyAt(buf, 0))
	require.Equal(t, page.ID(1), l.childAt(buf, 0))
	require.Equal(t, page.ID(2), l.childAt(buf, 1))
}
