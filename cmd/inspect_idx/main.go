// Inspect a B+ tree file (.idx).
// Usage: go run ./cmd/inspect_idx <path-to-.idx>
// Example: go run ./cmd/inspect_idx databases/demo/people/superkey_0.idx
package main

import (
	"fmt"
	"os"

	bplus "StrataDB/storage_engine/access/indexfile_manager/bplustree"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index.idx>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s databases/demo/people/superkey_0.idx\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]
	if err := bplus.InspectFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
