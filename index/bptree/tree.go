// Package bptree implements the node layout and mutation primitives
// (header.go, leaf.go, internal.go) and the concurrent B+ tree engine
// (this file, descent.go, insert.go, delete.go, iterator.go).
package bptree

import (
	"encoding/binary"
	"os"
	"sync"

	"bptreedb/errs"
	"bptreedb/internal/config"
	"bptreedb/internal/logging"
	"bptreedb/storage/buffer"
	"bptreedb/storage/disk"
	"bptreedb/storage/page"
)

// Codec converts a fixed-width value of type T to and from its
// on-page byte representation. The core assumes fixed-size,
// memcpy-safe key and value representations; Codec is the seam that
// lets a typed Tree sit on top of that byte-oriented assumption
// without the node-view layer itself becoming generic.
type Codec[T any] interface {
	// Size is the fixed encoded width in bytes.
	Size() int
	// Encode writes v into buf, which has length Size().
	Encode(v T, buf []byte)
	// Decode reads a T out of buf, which has length Size().
	Decode(buf []byte) T
}

// Comparator orders two decoded keys, following the usual
// negative/zero/positive convention.
type Comparator[T any] func(a, b T) int

// Options configures a Tree beyond its required fanout and typing
// parameters.
type Options struct {
	// PoolSize is the number of frames in the backing buffer pool.
	// Zero means config.DefaultPoolSize.
	PoolSize int
}

func (o *Options) poolSize() int {
	if o == nil || o.PoolSize <= 0 {
		return config.DefaultPoolSize
	}
	return o.PoolSize
}

// Tree is a disk-backed, concurrent B+ tree index over key type K and
// value type V, both fixed-width per their Codec. Grounded on
// DaemonDB's bplus.BPlusTree control flow (FindLeaf, Insertion,
// SplitLeaf/splitInternal, insertIntoParent, deleteRecursive,
// Iterator/SeekGE/Next), generalized from DaemonDB's single
// coarse t.mu.Lock() per operation up to per-page latch crabbing.
type Tree[K any, V any] struct {
	disk *disk.Manager
	pool *buffer.Pool

	keyCodec Codec[K]
	valCodec Codec[V]
	cmp      Comparator[K]

	maxLeaf, maxInternal int
	leafL                leafLayout
	internalL            internalLayout

	// rootLatch is the outer root_latch: it protects rootID itself and
	// serializes changes that replace the root (new root on split,
	// collapse on underflow), independent of any page's own latch.
	rootLatch sync.RWMutex
	rootID    page.ID

	tmpPath string // non-empty iff opened via OpenInMemory
}

func validateFanout(maxLeaf, maxInternal int) error {
	if maxLeaf < config.MinFanout || maxInternal < config.MinFanout {
		return errs.Invariant("bptree: max_leaf_size and max_internal_size must be >= %d, got (%d, %d)", config.MinFanout, maxLeaf, maxInternal)
	}
	return nil
}

func newTree[K any, V any](dm *disk.Manager, poolSize, maxLeaf, maxInternal int, keyCodec Codec[K], valCodec Codec[V], cmp Comparator[K]) (*Tree[K, V], error) {
	t := &Tree[K, V]{
		disk:         dm,
		pool:         buffer.NewPool(poolSize, dm),
		keyCodec:     keyCodec,
		valCodec:     valCodec,
		cmp:          cmp,
		maxLeaf:      maxLeaf,
		maxInternal:  maxInternal,
		leafL:        leafLayout{keySize: keyCodec.Size(), valSize: valCodec.Size(), maxLeaf: maxLeaf},
		internalL:    internalLayout{keySize: keyCodec.Size(), maxInternal: maxInternal},
	}
	if err := t.readMeta(); err != nil {
		return nil, err
	}
	return t, nil
}

// Open opens the B+ tree stored in path, creating it if absent.
func Open[K any, V any](path string, maxLeaf, maxInternal int, keyCodec Codec[K], valCodec Codec[V], cmp Comparator[K], opts *Options) (*Tree[K, V], error) {
	if err := validateFanout(maxLeaf, maxInternal); err != nil {
		return nil, err
	}
	dm, err := disk.Open(path)
	if err != nil {
		return nil, err
	}
	t, err := newTree[K, V](dm, opts.poolSize(), maxLeaf, maxInternal, keyCodec, valCodec, cmp)
	if err != nil {
		dm.Close()
		return nil, err
	}
	return t, nil
}

// OpenInMemory opens a B+ tree backed by a temporary file that is
// removed when the tree is closed.
func OpenInMemory[K any, V any](maxLeaf, maxInternal int, keyCodec Codec[K], valCodec Codec[V], cmp Comparator[K], opts *Options) (*Tree[K, V], error) {
	if err := validateFanout(maxLeaf, maxInternal); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "bptreedb-*.idx")
	if err != nil {
		return nil, errs.Io("create_temp", err)
	}
	path := f.Name()
	f.Close()

	dm, err := disk.Open(path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	t, err := newTree[K, V](dm, opts.poolSize(), maxLeaf, maxInternal, keyCodec, valCodec, cmp)
	if err != nil {
		dm.Close()
		os.Remove(path)
		return nil, err
	}
	t.tmpPath = path
	return t, nil
}

// readMeta loads root_page_id from the meta page. A zero value means
// the tree is empty, per the file format's convention that page 0 is
// reserved and real node pages never land on id 0.
func (t *Tree[K, V]) readMeta() error {
	buf := make([]byte, config.PageSize)
	if err := t.disk.ReadPage(config.MetaPageID, buf); err != nil {
		return err
	}
	raw := int64(binary.LittleEndian.Uint64(buf[:8]))
	if raw == 0 {
		t.rootID = page.InvalidID
	} else {
		t.rootID = page.ID(raw)
	}
	return nil
}

// writeMeta persists the current root_page_id to the meta page.
// Caller must hold rootLatch for at least read, since it reads rootID.
func (t *Tree[K, V]) writeMeta() error {
	buf := make([]byte, config.PageSize)
	raw := int64(t.rootID)
	if t.rootID == page.InvalidID {
		raw = 0
	}
	binary.LittleEndian.PutUint64(buf[:8], uint64(raw))
	return t.disk.WritePage(config.MetaPageID, buf)
}

// IsEmpty reports whether the tree currently has no root.
func (t *Tree[K, V]) IsEmpty() bool {
	t.rootLatch.RLock()
	defer t.rootLatch.RUnlock()
	return t.rootID == page.InvalidID
}

func (t *Tree[K, V]) encodeKey(k K) []byte {
	buf := make([]byte, t.keyCodec.Size())
	t.keyCodec.Encode(k, buf)
	return buf
}

func (t *Tree[K, V]) byteCmp(a, b []byte) int {
	return t.cmp(t.keyCodec.Decode(a), t.keyCodec.Decode(b))
}

// Close flushes every dirty page, persists root_page_id to the meta
// page, and closes the backing file. If the tree was opened with
// OpenInMemory, the backing temporary file is also removed.
func (t *Tree[K, V]) Close() error {
	t.rootLatch.Lock()
	defer t.rootLatch.Unlock()

	if err := t.writeMeta(); err != nil {
		return err
	}
	if err := t.pool.FlushAll(); err != nil {
		return err
	}
	if err := t.disk.Close(); err != nil {
		return err
	}
	if t.tmpPath != "" {
		if err := os.Remove(t.tmpPath); err != nil {
			logging.L.WithField("path", t.tmpPath).WithError(err).Warn("failed to remove temporary index file")
		}
	}
	return nil
}
