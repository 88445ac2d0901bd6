package heapfile

import (
	"StrataDB/storage_engine/page"
	"StrataDB/types"

	"github.com/pkg/errors"
)

const (
	hdrElementCount = 0
	hdrFreeHead     = 8
	minPageSize     = 16
)

// PageSizeFor is the smallest 8-byte aligned page that holds a row ID plus
// a row of rowSize bytes.
func PageSizeFor(rowSize int) int {
	size := rowIDSize + rowSize
	if rem := size % 8; rem != 0 {
		size += 8 - rem
	}
	return max(size, minPageSize)
}

// FreeSlotsPerPage is how many offsets one free-pool page holds.
func FreeSlotsPerPage(pageSize int) int {
	return (pageSize - 8) / 8
}

func (hf *HeapFile) encodeRow(rowID int64, row types.Row) ([]byte, error) {
	p := page.New(0, hf.pageSize)
	p.PutInt64(0, rowID)
	if err := hf.codec.EncodeTo(p.Data[rowIDSize:], types.Key(row)); err != nil {
		return nil, err
	}
	return p.Data, nil
}

func (hf *HeapFile) decodeRow(data []byte) (types.Record, error) {
	p := page.Wrap(0, data)
	key, err := hf.codec.Decode(data[rowIDSize:])
	if err != nil {
		return types.Record{}, errors.Wrap(err, "decode row")
	}
	return types.Record{RowID: p.Int64(0), Row: types.Row(key)}, nil
}

func (hf *HeapFile) writeHeader(freeHead int64) error {
	p := page.New(0, hf.pageSize)
	p.PutInt64(hdrElementCount, hf.elementCount)
	p.PutInt64(hdrFreeHead, freeHead)
	return errors.Wrap(hf.pager.WritePage(0, p.Data), "write heap header")
}

func (hf *HeapFile) readHeader() (count, freeHead int64, err error) {
	data, err := hf.pager.ReadPage(0)
	if err != nil {
		return 0, 0, errors.Wrap(err, "read heap header")
	}
	p := page.Wrap(0, data)
	return p.Int64(hdrElementCount), p.Int64(hdrFreeHead), nil
}

// readFreeList replays the free-pool chain into the free-slot set. Pool
// pages are free slots themselves once their contents are loaded.
func (hf *HeapFile) readFreeList(head int64) error {
	n := FreeSlotsPerPage(hf.pageSize)
	seen := make(map[int64]bool)
	for off := head; off != types.NilPointer; {
		if seen[off] {
			return errors.Wrapf(ErrCorruptHeap, "free list loops at %d", off)
		}
		seen[off] = true
		data, err := hf.pager.ReadPage(off)
		if err != nil {
			return errors.Wrapf(err, "read free-pool page %d", off)
		}
		p := page.Wrap(off, data)
		hf.free.ReplaceOrInsert(off)
		for i := 0; i < n; i++ {
			slot := p.Int64(8 + 8*i)
			if slot == types.NilPointer {
				break
			}
			hf.free.ReplaceOrInsert(slot)
		}
		off = p.Int64(0)
	}
	return nil
}

// writeFreeList drains the free-slot set into free-pool pages and returns
// the head of the chain.
func (hf *HeapFile) writeFreeList() (int64, error) {
	slots := make([]int64, 0, hf.free.Len())
	hf.free.Ascend(func(off int64) bool {
		slots = append(slots, off)
		return true
	})
	hf.free.Clear(false)

	per := FreeSlotsPerPage(hf.pageSize)
	head := int64(types.NilPointer)
	for len(slots) > 0 {
		pool := slots[len(slots)-1]
		slots = slots[:len(slots)-1]
		n := min(per, len(slots))

		p := page.New(pool, hf.pageSize)
		p.PutInt64(0, head)
		for i, off := range slots[len(slots)-n:] {
			p.PutInt64(8+8*i, off)
		}
		if n < per {
			p.PutInt64(8+8*n, types.NilPointer)
		}
		slots = slots[:len(slots)-n]

		if err := hf.pager.WritePage(pool, p.Data); err != nil {
			return types.NilPointer, errors.Wrapf(err, "write free-pool page %d", pool)
		}
		head = pool
	}
	return head, nil
}
