// Inspect a row heap file (.heap).
// Usage: go run ./cmd/inspect_heap <path-to-.heap> [column types...]
// Without column types the schema is read from meta.json next to the file.
// Example: go run ./cmd/inspect_heap databases/demo/people/rows.heap
// Example: go run ./cmd/inspect_heap rows.heap int32 float64 'string(5)'
package main

import (
	"fmt"
	"os"
	"path/filepath"

	heapfile "StrataDB/storage_engine/access/heapfile_manager"
	"StrataDB/storage_engine/catalog"
	"StrataDB/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <rows.heap> [column types...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s databases/demo/people/rows.heap\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	var columns []types.ColumnType
	pageSize := 0
	if len(os.Args) > 2 {
		for _, s := range os.Args[2:] {
			c, err := types.ParseColumnType(s)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			columns = append(columns, c)
		}
	} else {
		meta, err := catalog.ReadMeta(filepath.Dir(path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no column types given and %v\n", err)
			os.Exit(1)
		}
		columns = meta.ColumnTypes
		pageSize = meta.HeapPageSize
		fmt.Printf("Relation %s (%s) columns %v\n", meta.Name, meta.ID, meta.ColumnNames)
	}

	if err := heapfile.InspectFileTo(os.Stdout, path, columns, pageSize); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
