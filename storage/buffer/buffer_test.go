package buffer

import (
	"path/filepath"
	"testing"

	"bptreedb/errs"
	"bptreedb/storage/disk"
	"bptreedb/storage/page"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, poolSize int) *Pool {
	path := filepath.Join(t.TempDir(), "buffer_test.idx")
	dm, err := disk.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	return NewPool(poolSize, dm)
}

func TestNewPageThenFetchRoundTrips(t *testing.T) {
	p := newTestPool(t, 4)

	f, id, err := p.newPage()
	require.NoError(t, err)
	f.Data()[0] = 0x7

	require.NoError(t, p.unpin(id, true))

	f2, _, err := p.fetch(id)
	require.NoError(t, err)
	require.Equal(t, byte(0x7), f2.Data()[0])
	require.NoError(t, p.unpin(id, false))
}

func TestFetchIncrementsPinCount(t *testing.T) {
	p := newTestPool(t, 4)
	_, id, err := p.newPage()
	require.NoError(t, err)
	require.NoError(t, p.unpin(id, false))

	f, _, err := p.fetch(id)
	require.NoError(t, err)
	require.Equal(t, int32(1), f.PinCount())

	f2, _, err := p.fetch(id)
	require.NoError(t, err)
	require.Equal(t, int32(2), f2.PinCount())
}

func TestUnpinOfAbsentPageErrors(t *testing.T) {
	p := newTestPool(t, 4)
	err := p.unpin(999, false)
	require.Error(t, err)
}

func TestBufferFullWhenAllFramesPinned(t *testing.T) {
	p := newTestPool(t, 2)

	_, _, err := p.newPage()
	require.NoError(t, err)
	_, _, err = p.newPage()
	require.NoError(t, err)

	_, _, err = p.newPage()
	require.True(t, errs.IsBufferFull(err))
}

func TestEvictionWritesBackDirtyVictim(t *testing.T) {
	p := newTestPool(t, 1)

	f, id1, err := p.newPage()
	require.NoError(t, err)
	f.Data()[0] = 0x55
	require.NoError(t, p.unpin(id1, true))

	// Only one frame: allocating a second page must evict id1, writing
	// it back first.
	_, id2, err := p.newPage()
	require.NoError(t, err)
	require.NoError(t, p.unpin(id2, false))

	f2, _, err := p.fetch(id1)
	require.NoError(t, err)
	require.Equal(t, byte(0x55), f2.Data()[0])
	require.NoError(t, p.unpin(id1, false))
}

func TestDeletePageFailsWhilePinned(t *testing.T) {
	p := newTestPool(t, 4)
	_, id, err := p.newPage()
	require.NoError(t, err)

	err = p.DeletePage(id)
	require.Error(t, err)

	require.NoError(t, p.unpin(id, false))
	require.NoError(t, p.DeletePage(id))
}

func TestDeletePageVacuousOnAbsentPage(t *testing.T) {
	p := newTestPool(t, 4)
	require.NoError(t, p.DeletePage(page.ID(12345)))
}

func TestFlushAllClearsDirtyFlags(t *testing.T) {
	p := newTestPool(t, 4)
	_, id, err := p.newPage()
	require.NoError(t, err)
	require.NoError(t, p.unpin(id, true))

	require.NoError(t, p.FlushAll())

	f, _, err := p.fetch(id)
	require.NoError(t, err)
	require.False(t, f.IsDirty())
	require.NoError(t, p.unpin(id, false))
}
