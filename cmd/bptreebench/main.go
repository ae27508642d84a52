// Command bptreebench measures insert, get, and range-scan throughput
// against an in-memory tree, grounded on the reference implementation's
// benchmark/performance_test.cpp (random-key insert/get/scan timing
// over a configurable fanout and key count).
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"bptreedb"
)

func main() {
	fanout := 64
	numKeys := 100000
	scanSize := 1000

	fmt.Printf("--- Benchmarking INSERT with fanout=%d, numKeys=%d ---\n", fanout, numKeys)
	tree, err := bptreedb.OpenInMemory[uint64, uint64](fanout, fanout, bptreedb.Uint64Codec{}, bptreedb.Uint64Codec{}, bptreedb.Uint64Compare, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer tree.Close()

	keys := shuffledKeys(numKeys)

	start := time.Now()
	for _, k := range keys {
		if _, err := tree.Insert(k, k); err != nil {
			fmt.Fprintf(os.Stderr, "insert: %v\n", err)
			os.Exit(1)
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Throughput: %.0f inserts/sec\n\n", float64(numKeys)/elapsed.Seconds())

	fmt.Printf("--- Benchmarking GET with fanout=%d, numKeys=%d ---\n", fanout, numKeys)
	lookups := shuffledKeys(numKeys)
	start = time.Now()
	for _, k := range lookups {
		if _, _, err := tree.Get(k); err != nil {
			fmt.Fprintf(os.Stderr, "get: %v\n", err)
			os.Exit(1)
		}
	}
	elapsed = time.Since(start)
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Throughput: %.0f gets/sec\n\n", float64(numKeys)/elapsed.Seconds())

	fmt.Printf("--- Benchmarking SCAN with fanout=%d, numKeys=%d, scanSize=%d ---\n", fanout, numKeys, scanSize)
	start = time.Now()
	if _, err := tree.RangeScan(0, uint64(scanSize)); err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
	elapsed = time.Since(start)
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Throughput: %.0f entries/sec\n", float64(scanSize)/elapsed.Seconds())
}

func shuffledKeys(n int) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(i)
	}
	rand.Shuffle(n, func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	return keys
}
