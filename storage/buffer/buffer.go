// Package buffer implements the buffer pool manager: it maps page ids
// to frames, fetches pages (loading from disk and evicting via the
// replacer on a miss), and flushes dirty frames back to disk. Grounded
// on DaemonDB's storage_engine/bufferpool.BufferPool, restructured
// so LRU bookkeeping lives in storage/replacer rather than inline, and
// so each frame owns its own reader/writer latch (storage/page.Frame)
// independent of the pool's own coarse lock.
package buffer

import (
	"fmt"

	"bptreedb/errs"
	"bptreedb/internal/logging"
	"bptreedb/storage/disk"
	"bptreedb/storage/page"
	"bptreedb/storage/replacer"

	"sync"
)

// Pool owns a fixed array of frames, a free list of unused frame
// indices, a page table, a replacer, and a disk manager, all behind
// one coarse mutex. Per-frame latches are independent of this mutex.
type Pool struct {
	mu        sync.Mutex
	frames    []page.Frame
	freeList  []replacer.FrameID
	pageTable map[page.ID]replacer.FrameID
	replacer  replacer.Replacer
	disk      *disk.Manager
}

// NewPool constructs a buffer pool of the given size backed by dm.
func NewPool(poolSize int, dm *disk.Manager) *Pool {
	p := &Pool{
		frames:    make([]page.Frame, poolSize),
		freeList:  make([]replacer.FrameID, poolSize),
		pageTable: make(map[page.ID]replacer.FrameID, poolSize),
		replacer:  replacer.NewLRU(),
		disk:      dm,
	}
	for i := range p.frames {
		p.frames[i].Reset()
		p.freeList[i] = replacer.FrameID(i)
	}
	return p
}

// Size returns the configured number of frames.
func (p *Pool) Size() int { return len(p.frames) }

// victimLocked returns a frame to repurpose, preferring the free list
// over eviction. Caller must hold p.mu.
func (p *Pool) victimLocked() (replacer.FrameID, error) {
	if n := len(p.freeList); n > 0 {
		fid := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return fid, nil
	}
	fid, ok := p.replacer.Victim()
	if !ok {
		return 0, errs.ErrBufferFull
	}
	return fid, nil
}

// fetch pins and returns the frame holding id, loading it from disk on
// a miss. Writes back a dirty victim before reusing its frame.
func (p *Pool) fetch(id page.ID) (*page.Frame, replacer.FrameID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable[id]; ok {
		f := &p.frames[fid]
		f.Pin()
		p.replacer.Pin(fid)
		return f, fid, nil
	}

	fid, err := p.victimLocked()
	if err != nil {
		return nil, 0, err
	}
	f := &p.frames[fid]

	if f.IsDirty() {
		if err := p.disk.WritePage(f.PageID(), f.Data()); err != nil {
			p.freeList = append(p.freeList, fid)
			return nil, 0, err
		}
		f.SetDirty(false)
	}
	if old := f.PageID(); old != page.InvalidID {
		delete(p.pageTable, old)
	}

	if err := p.disk.ReadPage(id, f.Data()); err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, 0, err
	}
	f.Bind(id)
	p.pageTable[id] = fid
	p.replacer.Pin(fid)
	return f, fid, nil
}

// newPage allocates a fresh page id and binds a zeroed frame to it.
func (p *Pool) newPage() (*page.Frame, page.ID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, err := p.victimLocked()
	if err != nil {
		return nil, page.InvalidID, err
	}
	f := &p.frames[fid]

	if f.IsDirty() {
		if err := p.disk.WritePage(f.PageID(), f.Data()); err != nil {
			p.freeList = append(p.freeList, fid)
			return nil, page.InvalidID, err
		}
		f.SetDirty(false)
	}
	if old := f.PageID(); old != page.InvalidID {
		delete(p.pageTable, old)
	}

	id := p.disk.AllocatePage()
	f.Reset()
	f.Bind(id)
	p.pageTable[id] = fid
	p.replacer.Pin(fid)
	return f, id, nil
}

// unpin decrements id's pin count, marking it dirty if requested, and
// hands the frame back to the replacer once the count reaches zero.
func (p *Pool) unpin(id page.ID, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[id]
	if !ok {
		return fmt.Errorf("buffer: unpin: page %d not in buffer pool", id)
	}
	f := &p.frames[fid]
	if f.PinCount() == 0 {
		return fmt.Errorf("buffer: unpin: page %d already has pin count zero", id)
	}
	if dirty {
		f.SetDirty(true)
	}
	f.Unpin()
	if f.PinCount() == 0 {
		p.replacer.Unpin(fid)
	}
	return nil
}

// Flush writes id's frame to disk regardless of its dirty flag, then
// clears the flag.
func (p *Pool) Flush(id page.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[id]
	if !ok {
		return fmt.Errorf("buffer: flush: page %d not in buffer pool", id)
	}
	f := &p.frames[fid]
	if err := p.disk.WritePage(id, f.Data()); err != nil {
		return err
	}
	f.SetDirty(false)
	return nil
}

// FlushAll writes every dirty frame currently mapped to disk.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, fid := range p.pageTable {
		f := &p.frames[fid]
		if !f.IsDirty() {
			continue
		}
		if err := p.disk.WritePage(id, f.Data()); err != nil {
			return err
		}
		f.SetDirty(false)
	}
	return nil
}

// DeletePage removes id from the pool and returns its frame to the
// free list. It is vacuously successful if id is not present, and
// fails if id is still pinned.
func (p *Pool) DeletePage(id page.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[id]
	if !ok {
		return nil
	}
	f := &p.frames[fid]
	if f.PinCount() > 0 {
		return fmt.Errorf("buffer: delete_page: page %d is pinned", id)
	}

	// Remove from the replacer's evictable set before reuse so a
	// concurrent fetch cannot hand this frame out as a victim while
	// we reset it.
	p.replacer.Pin(fid)
	delete(p.pageTable, id)
	f.Reset()
	p.freeList = append(p.freeList, fid)

	logging.L.WithField("page_id", id).Debug("deleted page")
	return nil
}
