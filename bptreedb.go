// Package bptreedb is the library's public entry point: thin
// generic wrappers over index/bptree.Tree plus ready-made Codec
// instantiations for the common fixed-width key/value types, so a
// caller never has to implement Codec by hand for the usual cases.
package bptreedb

import (
	"bytes"
	"encoding/binary"

	"bptreedb/index/bptree"

	"golang.org/x/exp/constraints"
)

// Codec, Comparator, Options, and Pair are re-exported so callers
// never need to import index/bptree directly.
type (
	Codec[T any]      = bptree.Codec[T]
	Comparator[T any] = bptree.Comparator[T]
	Options           = bptree.Options
	Pair[K, V any]    = bptree.Pair[K, V]
	Tree[K, V any]    = bptree.Tree[K, V]
	Iterator[K, V any] = bptree.Iterator[K, V]
)

// Open opens the B+ tree stored in path, creating it if absent.
func Open[K any, V any](path string, maxLeaf, maxInternal int, keyCodec Codec[K], valCodec Codec[V], cmp Comparator[K], opts *Options) (*Tree[K, V], error) {
	return bptree.Open[K, V](path, maxLeaf, maxInternal, keyCodec, valCodec, cmp, opts)
}

// OpenInMemory opens a B+ tree backed by a temporary file removed on
// Close.
func OpenInMemory[K any, V any](maxLeaf, maxInternal int, keyCodec Codec[K], valCodec Codec[V], cmp Comparator[K], opts *Options) (*Tree[K, V], error) {
	return bptree.OpenInMemory[K, V](maxLeaf, maxInternal, keyCodec, valCodec, cmp, opts)
}

// Uint64Codec encodes uint64 keys/values as 8-byte little-endian.
type Uint64Codec struct{}

func (Uint64Codec) Size() int { return 8 }
func (Uint64Codec) Encode(v uint64, buf []byte) {
	binary.LittleEndian.PutUint64(buf, v)
}
func (Uint64Codec) Decode(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// OrderedCompare is a Comparator for any type with a natural total
// order, usable as the cmp argument to Open/OpenInMemory for integer
// or floating-point key types beyond the built-in Uint64Codec.
func OrderedCompare[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Uint64Compare is the default comparator for Uint64Codec-encoded
// keys.
func Uint64Compare(a, b uint64) int { return OrderedCompare(a, b) }

// FixedBytesCodec encodes []byte keys/values of a fixed declared
// width. Go's generics cannot parameterize an array length (no
// "value generics"), so unlike a true FixedBytes[N] type the width is
// a runtime field rather than a compile-time constant; Encode panics
// if v is longer than Width and zero-pads if shorter.
type FixedBytesCodec struct {
	Width int
}

func (c FixedBytesCodec) Size() int { return c.Width }

func (c FixedBytesCodec) Encode(v []byte, buf []byte) {
	if len(v) > c.Width {
		panic("bptreedb: value exceeds FixedBytesCodec width")
	}
	clear(buf)
	copy(buf, v)
}

func (c FixedBytesCodec) Decode(buf []byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

// BytesCompare is the default comparator for FixedBytesCodec-encoded
// keys, lexicographic over the fixed-width byte representation.
func BytesCompare(a, b []byte) int { return bytes.Compare(a, b) }
