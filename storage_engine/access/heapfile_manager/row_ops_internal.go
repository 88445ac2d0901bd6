package heapfile

import (
	"StrataDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (hf *HeapFile) insertRow(row types.Row, rowID int64, loc RowLocator) (int64, error) {
	if hf.closed {
		return 0, ErrClosed
	}
	data, err := hf.encodeRow(rowID, row)
	if err != nil {
		return 0, err
	}
	offset, err := hf.takeFreeSlot()
	if err != nil {
		return 0, err
	}
	if err := hf.pager.WritePage(offset, data); err != nil {
		hf.free.ReplaceOrInsert(offset)
		return 0, errors.Wrapf(err, "write row %d", rowID)
	}
	if err := loc.Register(rowID, offset); err != nil {
		hf.free.ReplaceOrInsert(offset)
		return 0, errors.Wrapf(err, "register row %d", rowID)
	}
	hf.elementCount++
	return offset, nil
}

// takeFreeSlot pops the lowest free page, growing the file first if the
// free-slot set is empty.
func (hf *HeapFile) takeFreeSlot() (int64, error) {
	if hf.free.Len() == 0 {
		first, err := hf.pager.Allocate(GrowBatch)
		if err != nil {
			return 0, errors.Wrap(err, "grow heap")
		}
		for i := 0; i < GrowBatch; i++ {
			hf.free.ReplaceOrInsert(first + int64(i*hf.pageSize))
		}
		hf.logger.Debug("heap grew", zap.Int("pages", GrowBatch), zap.Int64("total", hf.pager.NumPages()))
	}
	offset, _ := hf.free.DeleteMin()
	return offset, nil
}

// locate resolves rowID to a live page offset.
func (hf *HeapFile) locate(rowID int64, loc RowLocator) (int64, error) {
	offset, err := loc.Locate(rowID)
	if err != nil {
		return 0, err
	}
	if hf.free.Has(offset) {
		return 0, errors.Wrapf(ErrRowNotFound, "row %d points at free page %d", rowID, offset)
	}
	return offset, nil
}

func (hf *HeapFile) deleteRow(rowID int64, loc RowLocator) error {
	if hf.closed {
		return ErrClosed
	}
	offset, err := hf.locate(rowID, loc)
	if err != nil {
		return err
	}
	if err := loc.Unregister(rowID, offset); err != nil {
		return errors.Wrapf(err, "unregister row %d", rowID)
	}
	hf.free.ReplaceOrInsert(offset)
	hf.elementCount--
	return nil
}

func (hf *HeapFile) readRow(rowID int64, loc RowLocator) (types.Row, error) {
	if hf.closed {
		return nil, ErrClosed
	}
	offset, err := hf.locate(rowID, loc)
	if err != nil {
		return nil, err
	}
	data, err := hf.pager.ReadPage(offset)
	if err != nil {
		return nil, errors.Wrapf(err, "read row %d", rowID)
	}
	rec, err := hf.decodeRow(data)
	if err != nil {
		return nil, err
	}
	if rec.RowID != rowID {
		return nil, errors.Wrapf(ErrCorruptHeap, "page %d holds row %d, expected %d", offset, rec.RowID, rowID)
	}
	return rec.Row, nil
}

func (hf *HeapFile) updateRow(rowID int64, row types.Row, loc RowLocator) error {
	if hf.closed {
		return ErrClosed
	}
	offset, err := hf.locate(rowID, loc)
	if err != nil {
		return err
	}
	data, err := hf.encodeRow(rowID, row)
	if err != nil {
		return err
	}
	return errors.Wrapf(hf.pager.WritePage(offset, data), "rewrite row %d", rowID)
}

func (hf *HeapFile) scan(fn func(types.Record) bool) error {
	if hf.closed {
		return ErrClosed
	}
	numPages := hf.pager.NumPages()
	for p := int64(1); p < numPages; p++ {
		offset := p * int64(hf.pageSize)
		if hf.free.Has(offset) {
			continue
		}
		data, err := hf.pager.ReadPage(offset)
		if err != nil {
			return errors.Wrapf(err, "scan page %d", offset)
		}
		rec, err := hf.decodeRow(data)
		if err != nil {
			return errors.Wrapf(err, "scan page %d", offset)
		}
		if !fn(rec) {
			return nil
		}
	}
	return nil
}
