// Package page defines the Frame: a fixed-size in-memory slot holding
// one on-disk page, plus the metadata (pin count, dirty flag,
// reader/writer latch) the buffer pool and engine coordinate through.
// This is DaemonDB's storage_engine/page.Page, split so that the
// latch is a first-class component independent of the page bytes: a
// frame's reader/writer latch is orthogonal to the buffer pool's own
// coarse bookkeeping mutex.
package page

import (
	"sync"

	"bptreedb/internal/config"
)

// ID identifies a page within a single backing file. Page 0 is
// reserved for the meta page.
type ID = int64

// InvalidID is the sentinel for "no page".
const InvalidID ID = config.InvalidPageID

// Frame is a slot in the buffer pool. A frame with PinCount > 0 must
// never be selected as an eviction victim (storage/buffer.Pool
// enforces this; Frame only stores the counters).
type Frame struct {
	// Latch is the frame's reader/writer synchronizer, independent of
	// any pool-level bookkeeping lock.
	Latch sync.RWMutex

	pageID   ID
	data     [config.PageSize]byte
	pinCount int32
	isDirty  bool
}

// PageID returns the frame's current page id.
func (f *Frame) PageID() ID { return f.pageID }

// Data exposes the frame's raw bytes. Callers must hold the frame's
// latch (read or write, as appropriate) before calling this — the
// Frame itself does not enforce that; storage/buffer.Guard does.
func (f *Frame) Data() []byte { return f.data[:] }

// IsDirty reports the frame's dirty flag.
func (f *Frame) IsDirty() bool { return f.isDirty }

// SetDirty sets the frame's dirty flag.
func (f *Frame) SetDirty(dirty bool) { f.isDirty = dirty }

// PinCount returns the current pin count.
func (f *Frame) PinCount() int32 { return f.pinCount }

// reset zeroes a frame's bytes and metadata. Called by the buffer pool
// when a frame is repurposed for a different page id or returned to
// the free list after DeletePage.
func (f *Frame) reset() {
	for i := range f.data {
		f.data[i] = 0
	}
	f.pageID = InvalidID
	f.pinCount = 0
	f.isDirty = false
}

// Reset is the buffer pool's hook for reuse; it does not touch the
// latch (a latch held across reuse would be a caller bug, not
// something Frame can fix).
func (f *Frame) Reset() { f.reset() }

// bind associates the frame with pageID and pin=1, dirty=false. Used
// by the buffer pool after a fetch-miss load or a NewPage allocation.
func (f *Frame) bind(id ID) {
	f.pageID = id
	f.pinCount = 1
	f.isDirty = false
}

// Bind is the buffer pool's hook to associate a frame with a page id.
func (f *Frame) Bind(id ID) { f.bind(id) }

// Pin increments the pin count.
func (f *Frame) Pin() { f.pinCount++ }

// Unpin decrements the pin count; it is a no-op below zero.
func (f *Frame) Unpin() {
	if f.pinCount > 0 {
		f.pinCount--
	}
}
