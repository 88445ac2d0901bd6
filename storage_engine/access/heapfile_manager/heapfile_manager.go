package heapfile

import (
	diskmanager "StrataDB/storage_engine/disk_manager"
	"StrataDB/storage_engine/keycodec"
	"StrataDB/types"

	"github.com/dustin/go-humanize"
	"github.com/google/btree"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
This file is the start of the heapfile manager.
Create lays down a one page file (the header); Open reads the header back
and replays the on-disk free list into the ordered free-slot set; Close
seeds one extra page, trims free pages off the tail and writes the free
list out again.
*/

var (
	ErrRowNotFound = errors.New("row does not exist")
	ErrCorruptHeap = errors.New("corrupt heap file")
	ErrClosed      = errors.New("heap file is closed")
)

// Create makes a new heap file for rows of the given layout, replacing any
// file at path.
func Create(path string, columns []types.ColumnType, opts Options) (*HeapFile, error) {
	hf, err := newHeapFile(path, columns, true, opts)
	if err != nil {
		return nil, err
	}
	if _, err := hf.pager.Allocate(1); err != nil {
		hf.pager.Close()
		return nil, errors.Wrap(err, "allocate heap header")
	}
	if err := hf.writeHeader(types.NilPointer); err != nil {
		hf.pager.Close()
		return nil, err
	}
	hf.logger.Debug("heap created", zap.Int("pageSize", hf.pageSize))
	return hf, nil
}

// Open reopens an existing heap file.
func Open(path string, columns []types.ColumnType, opts Options) (*HeapFile, error) {
	hf, err := newHeapFile(path, columns, false, opts)
	if err != nil {
		return nil, err
	}
	if hf.pager.NumPages() == 0 {
		hf.pager.Close()
		return nil, errors.Wrapf(ErrCorruptHeap, "%s has no header page", path)
	}
	count, head, err := hf.readHeader()
	if err != nil {
		hf.pager.Close()
		return nil, err
	}
	hf.elementCount = count
	if err := hf.readFreeList(head); err != nil {
		hf.pager.Close()
		return nil, err
	}
	if live := hf.pager.NumPages() - 1 - int64(hf.free.Len()); live != count {
		hf.pager.Close()
		return nil, errors.Wrapf(ErrCorruptHeap, "header counts %d rows, file has %d live pages", count, live)
	}
	hf.logger.Debug("heap opened",
		zap.Int64("rows", count),
		zap.Int("freeSlots", hf.free.Len()),
		zap.String("size", humanize.IBytes(uint64(hf.pager.Size()))))
	return hf, nil
}

func newHeapFile(path string, columns []types.ColumnType, create bool, opts Options) (*HeapFile, error) {
	codec, err := keycodec.NewCodec(columns)
	if err != nil {
		return nil, errors.Wrap(err, "row layout")
	}
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = PageSizeFor(codec.Size())
	}
	if pageSize < rowIDSize+codec.Size() || pageSize < minPageSize {
		return nil, errors.Errorf("heap page size %d cannot hold a %d byte row", pageSize, codec.Size())
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pager, err := diskmanager.Open(path, pageSize, create, diskmanager.Options{
		CachePages: opts.CachePages,
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open heap file")
	}
	return &HeapFile{
		path:     path,
		codec:    codec,
		pageSize: pageSize,
		pager:    pager,
		free:     btree.NewOrderedG[int64](32),
		logger:   logger.With(zap.String("heap", path)),
	}, nil
}

func (hf *HeapFile) Path() string  { return hf.path }
func (hf *HeapFile) PageSize() int { return hf.pageSize }

func (hf *HeapFile) ElementCount() int64 {
	hf.mu.RLock()
	defer hf.mu.RUnlock()
	return hf.elementCount
}

// NumPages is the file length in pages, header included.
func (hf *HeapFile) NumPages() int64 {
	return hf.pager.NumPages()
}

// FreeSlots returns the free page offsets in ascending order.
func (hf *HeapFile) FreeSlots() []int64 {
	hf.mu.RLock()
	defer hf.mu.RUnlock()
	out := make([]int64, 0, hf.free.Len())
	hf.free.Ascend(func(off int64) bool {
		out = append(out, off)
		return true
	})
	return out
}

// Close seeds one spare page, gives back up to MaxTrimPages free pages at
// the end of the file, writes the free list and the header, and closes the
// file. Closing twice is a no-op.
func (hf *HeapFile) Close() error {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	if hf.closed {
		return nil
	}
	seed, err := hf.pager.Allocate(1)
	if err != nil {
		return errors.Wrap(err, "Close: seed trim page")
	}
	hf.free.ReplaceOrInsert(seed)

	numPages := hf.pager.NumPages()
	trimmed := int64(0)
	for trimmed < MaxTrimPages {
		last := (numPages - 1 - trimmed) * int64(hf.pageSize)
		if last == 0 || !hf.free.Has(last) {
			break
		}
		hf.free.Delete(last)
		trimmed++
	}
	if trimmed > 0 {
		if err := hf.pager.Truncate(numPages - trimmed); err != nil {
			return errors.Wrap(err, "Close: trim tail")
		}
	}

	freeSlots := hf.free.Len()
	head, err := hf.writeFreeList()
	if err != nil {
		return errors.Wrap(err, "Close: write free list")
	}
	if err := hf.writeHeader(head); err != nil {
		return errors.Wrap(err, "Close")
	}
	hf.closed = true
	hf.logger.Debug("heap closed",
		zap.Int64("rows", hf.elementCount),
		zap.Int64("trimmedPages", trimmed),
		zap.Int("freeSlots", freeSlots),
		zap.String("size", humanize.IBytes(uint64(hf.pager.Size()))))
	return hf.pager.Close()
}
