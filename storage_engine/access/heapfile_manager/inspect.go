package heapfile

import (
	"fmt"
	"io"

	"StrataDB/types"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// InspectFileTo dumps a heap file: header, free slots and every live row.
// pageSize 0 derives the page size from the row layout. The file is not
// trimmed or rewritten.
func InspectFileTo(w io.Writer, path string, columns []types.ColumnType, pageSize int) error {
	hf, err := newHeapFile(path, columns, false, Options{PageSize: pageSize, Logger: zap.NewNop()})
	if err != nil {
		return err
	}
	defer hf.pager.Close()

	count, head, err := hf.readHeader()
	if err != nil {
		return err
	}
	hf.elementCount = count

	fmt.Fprintf(w, "Heap file: %s (%s, %d pages of %d bytes)\n",
		path, humanize.IBytes(uint64(hf.pager.Size())), hf.pager.NumPages(), hf.pageSize)
	fmt.Fprintf(w, "  header: elementCount=%d freeHead=%d\n", count, head)

	if err := hf.readFreeList(head); err != nil {
		fmt.Fprintf(w, "  free list: error: %v\n", err)
		return nil
	}
	var free []int64
	hf.free.Ascend(func(off int64) bool {
		free = append(free, off)
		return true
	})
	fmt.Fprintf(w, "  free slots: %d %v\n", len(free), free)

	fmt.Fprintln(w, "  rows:")
	live := int64(0)
	err = hf.scan(func(rec types.Record) bool {
		rec.Row.TrimPadding()
		fmt.Fprintf(w, "    #%d %s\n", rec.RowID, rec.Row)
		live++
		return true
	})
	if err != nil {
		return err
	}
	if live != count {
		fmt.Fprintf(w, "  MISMATCH: header counts %d rows, found %d\n", count, live)
	}
	return nil
}
