// Command bptreecli is a small external harness over the bptreedb
// library: point lookups, inserts, removes, and range scans against a
// single on-disk index file. The CLI itself is out of scope for the
// core; this is a thin collaborator, in the spirit of DaemonDB's
// cmd/inspect_idx and cmd/seed.
package main

import (
	"fmt"
	"os"
	"strconv"

	"bptreedb"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <index.idx> <get|put|del|scan> [args...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  get  <key>\n")
	fmt.Fprintf(os.Stderr, "  put  <key> <value>\n")
	fmt.Fprintf(os.Stderr, "  del  <key>\n")
	fmt.Fprintf(os.Stderr, "  scan <lo> <hi>\n")
	os.Exit(1)
}

const valueWidth = 64

func main() {
	if len(os.Args) < 3 {
		usage()
	}
	path := os.Args[1]
	cmd := os.Args[2]
	args := os.Args[3:]

	tree, err := bptreedb.Open[uint64, []byte](
		path, 64, 64,
		bptreedb.Uint64Codec{}, bptreedb.FixedBytesCodec{Width: valueWidth}, bptreedb.Uint64Compare, nil,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer tree.Close()

	switch cmd {
	case "get":
		runGet(tree, args)
	case "put":
		runPut(tree, args)
	case "del":
		runDel(tree, args)
	case "scan":
		runScan(tree, args)
	default:
		usage()
	}
}

func parseKey(s string) uint64 {
	k, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad key %q: %v\n", s, err)
		os.Exit(1)
	}
	return k
}

func runGet(tree *bptreedb.Tree[uint64, []byte], args []string) {
	if len(args) != 1 {
		usage()
	}
	v, ok, err := tree.Get(parseKey(args[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "get: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Println("not found")
		return
	}
	fmt.Println(trimTrailingZeros(v))
}

func runPut(tree *bptreedb.Tree[uint64, []byte], args []string) {
	if len(args) != 2 {
		usage()
	}
	vb := make([]byte, valueWidth)
	copy(vb, args[1])

	ok, err := tree.Insert(parseKey(args[0]), vb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "put: %v\n", err)
		os.Exit(1)
	}
	if ok {
		fmt.Println("inserted")
	} else {
		fmt.Println("key already exists")
	}
}

func runDel(tree *bptreedb.Tree[uint64, []byte], args []string) {
	if len(args) != 1 {
		usage()
	}
	ok, err := tree.Remove(parseKey(args[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "del: %v\n", err)
		os.Exit(1)
	}
	if ok {
		fmt.Println("removed")
	} else {
		fmt.Println("not found")
	}
}

func runScan(tree *bptreedb.Tree[uint64, []byte], args []string) {
	if len(args) != 2 {
		usage()
	}
	pairs, err := tree.RangeScan(parseKey(args[0]), parseKey(args[1]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
	for _, p := range pairs {
		fmt.Printf("%d\t%s\n", p.Key, trimTrailingZeros(p.Value))
	}
}

func trimTrailingZeros(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return string(b[:i])
}
