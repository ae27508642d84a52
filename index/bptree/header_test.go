package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinSizeMatchesSplitPoint(t *testing.T) {
	for _, max := range []int{4, 8, 64} {
		require.Equal(t, max/2, minSize(max), "minSize(%d)", max)
		require.False(t, isUnderflowSize(max/2, max), "a freshly split side of %d keys must not read as underflowing", max/2)
		require.True(t, isUnderflowSize(max/2-1, max))
	}
}

func TestMergeOfTwoMinimalNodesFitsWithinCapacity(t *testing.T) {
	for _, max := range []int{4, 8, 64} {
		min := minSize(max)
		// A leaf merge combines a min-1 (just-underflowed) node with a
		// min-sized sibling; an internal merge additionally pulls down
		// one separator key from the parent.
		require.LessOrEqual(t, (min-1)+min, max)
		require.LessOrEqual(t, (min-1)+min+1, max)
	}
}
