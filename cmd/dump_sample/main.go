// dump_sample runs the seed and the heap and tree inspectors over the seeded
// relation, writing all output to cmd/sample_run_output.txt.
// Run from repo root: go run ./cmd/dump_sample
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	heapfile "StrataDB/storage_engine/access/heapfile_manager"
	bplus "StrataDB/storage_engine/access/indexfile_manager/bplustree"
	"StrataDB/storage_engine/catalog"
	"StrataDB/storage_engine/relation"
)

const (
	relationDir = "databases/demo/people"
	outputFile  = "cmd/sample_run_output.txt"
)

func main() {
	outPath := outputFile
	// If run from cmd/dump_sample, output next to binary
	if _, err := os.Stat("cmd"); os.IsNotExist(err) {
		outPath = "sample_run_output.txt"
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	// 1) Run seed: capture stdout/stderr to file
	fmt.Fprintln(f, "========== SEED (create relation people, insert, delete, reopen) ==========")
	cmd := exec.Command("go", "run", "./cmd/seed")
	cmd.Stdout = f
	cmd.Stderr = f
	cmd.Dir = repoRoot()
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(f, "seed exited with error: %v\n", err)
	}
	dir := filepath.Join(cmd.Dir, relationDir)

	// 2) Dump the heap
	fmt.Fprintf(f, "\n========== INSPECT %s ==========\n", relation.HeapFile)
	if meta, err := catalog.ReadMeta(dir); err != nil {
		fmt.Fprintf(f, "inspect error: %v\n", err)
	} else if err := heapfile.InspectFileTo(f, filepath.Join(dir, relation.HeapFile), meta.ColumnTypes, meta.HeapPageSize); err != nil {
		fmt.Fprintf(f, "inspect error: %v\n", err)
	}

	// 3) Dump every tree
	trees, _ := filepath.Glob(filepath.Join(dir, "*.idx"))
	sort.Strings(trees)
	for _, path := range trees {
		fmt.Fprintf(f, "\n========== INSPECT %s ==========\n", filepath.Base(path))
		if err := bplus.InspectFileTo(f, path); err != nil {
			fmt.Fprintf(f, "inspect error: %v\n", err)
		}
	}

	fmt.Printf("Output written to %s\n", outPath)
}

func repoRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
