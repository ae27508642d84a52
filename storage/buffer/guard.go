package buffer

import (
	"bptreedb/storage/page"
)

// Mode is the latch mode a Guard was constructed with.
type Mode int

const (
	ModeNone Mode = iota
	ModeRead
	ModeWrite
)

// Guard is a scoped handle bundling a pinned frame with an optional
// held latch. It guarantees unlatch-then-unpin on Release, exactly
// once, even if moved. This is new relative to DaemonDB, which
// unpins manually via scattered defer statements
// (bplus/new_node.go, split_leaf.go, ...) — a bare pin counter is
// insufficient here, since an early return on an error path can leak
// a latch.
type Guard struct {
	pool     *Pool
	frame    *page.Frame
	pageID   page.ID
	mode     Mode
	dirty    bool
	released bool
}

// Data returns the guarded frame's bytes. Valid until Release.
func (g *Guard) Data() []byte { return g.frame.Data() }

// PageID returns the guarded page's id.
func (g *Guard) PageID() page.ID { return g.pageID }

// SetDirty marks the underlying frame dirty; it will be written back
// on the next flush or eviction.
func (g *Guard) SetDirty() { g.dirty = true }

// Release unlatches (if a latch is held) then unpins the frame, in
// that order. Safe to call multiple times; only the first call has an
// effect. A moved-from guard's Release is a no-op.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true

	switch g.mode {
	case ModeRead:
		g.frame.Latch.RUnlock()
	case ModeWrite:
		g.frame.Latch.Unlock()
	}
	_ = g.pool.unpin(g.pageID, g.dirty)
}

// Move transfers ownership of this guard's pin and latch to a new
// Guard value. The receiver becomes inert: its own Release is now a
// no-op, since ownership has moved.
func (g *Guard) Move() *Guard {
	moved := &Guard{pool: g.pool, frame: g.frame, pageID: g.pageID, mode: g.mode, dirty: g.dirty}
	g.released = true
	return moved
}

// FetchRead pins id and takes a read latch on it.
func (p *Pool) FetchRead(id page.ID) (*Guard, error) {
	f, _, err := p.fetch(id)
	if err != nil {
		return nil, err
	}
	f.Latch.RLock()
	return &Guard{pool: p, frame: f, pageID: id, mode: ModeRead}, nil
}

// FetchWrite pins id and takes a write latch on it.
func (p *Pool) FetchWrite(id page.ID) (*Guard, error) {
	f, _, err := p.fetch(id)
	if err != nil {
		return nil, err
	}
	f.Latch.Lock()
	return &Guard{pool: p, frame: f, pageID: id, mode: ModeWrite}, nil
}

// TryFetchRead pins id and attempts a non-blocking read latch. If the
// latch is not immediately available, the pin is released and ok is
// false. Used by the iterator's forward advance, which must not block
// on a sibling's latch.
func (p *Pool) TryFetchRead(id page.ID) (guard *Guard, ok bool, err error) {
	f, _, err := p.fetch(id)
	if err != nil {
		return nil, false, err
	}
	if !f.Latch.TryRLock() {
		_ = p.unpin(id, false)
		return nil, false, nil
	}
	return &Guard{pool: p, frame: f, pageID: id, mode: ModeRead}, true, nil
}

// FetchPinned pins id without taking any latch, letting the caller
// inspect the page's leaf flag — set once at creation and never
// changed afterward — before deciding which latch mode it needs, then
// take that latch itself via LatchRead/LatchWrite. This is what lets a
// descent couple a child's latch acquisition to its parent's release:
// the child's actual latch mode can depend on data only the child's
// own page holds, so it must be fetched before the parent is released,
// but its eventual latch mode isn't known until it's inspected.
func (p *Pool) FetchPinned(id page.ID) (*Guard, error) {
	f, _, err := p.fetch(id)
	if err != nil {
		return nil, err
	}
	return &Guard{pool: p, frame: f, pageID: id, mode: ModeNone}, nil
}

// LatchRead takes a read latch on a guard obtained via FetchPinned.
func (g *Guard) LatchRead() {
	g.frame.Latch.RLock()
	g.mode = ModeRead
}

// LatchWrite takes a write latch on a guard obtained via FetchPinned.
func (g *Guard) LatchWrite() {
	g.frame.Latch.Lock()
	g.mode = ModeWrite
}

// NewPageGuarded allocates a new page, pins it, and returns it write
// latched and marked dirty (a newly allocated page is always written
// before it is meaningful).
func (p *Pool) NewPageGuarded() (*Guard, error) {
	f, id, err := p.newPage()
	if err != nil {
		return nil, err
	}
	f.Latch.Lock()
	return &Guard{pool: p, frame: f, pageID: id, mode: ModeWrite, dirty: true}, nil
}
