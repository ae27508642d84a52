package replacer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVictimIsLeastRecentlyUsed(t *testing.T) {
	r := NewLRU()
	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(3)

	v, ok := r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(1), v)

	v, ok = r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(2), v)
}

func TestPinRemovesFromEvictableSet(t *testing.T) {
	r := NewLRU()
	r.Unpin(1)
	r.Unpin(2)
	r.Pin(1)

	require.Equal(t, 1, r.Size())
	v, ok := r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(2), v)
}

func TestUnpinMovesToMostRecentlyUsed(t *testing.T) {
	r := NewLRU()
	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(1) // re-touch 1: it becomes MRU, 2 becomes LRU

	v, ok := r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(2), v)
}

func TestVictimOnEmptyReplacer(t *testing.T) {
	r := NewLRU()
	_, ok := r.Victim()
	require.False(t, ok)
}

func TestPinOnAbsentFrameIsIdempotent(t *testing.T) {
	r := NewLRU()
	r.Pin(42)
	require.Equal(t, 0, r.Size())
}
