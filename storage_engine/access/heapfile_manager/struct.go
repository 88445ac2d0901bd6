package heapfile

import (
	"sync"

	diskmanager "StrataDB/storage_engine/disk_manager"
	"StrataDB/storage_engine/keycodec"

	"github.com/google/btree"
	"go.uber.org/zap"
)

const (
	// GrowBatch is how many pages the file grows by when no slot is free.
	GrowBatch = 10
	// MaxTrimPages caps how many free tail pages one Close gives back.
	MaxTrimPages = 20

	rowIDSize = 8
)

// HeapFile is a flat file of fixed-size pages, one row per page.
//
//	page 0          elementCount i64, first free-pool page i64 (-1 if none)
//	data page       rowID i64, encoded row, zero padding
//	free-pool page  next free-pool page i64, up to FreeSlotsPerPage offsets (-1 terminated)
//
// Every page but the header is either live (its row ID maps to it through
// the caller's RowLocator) or in the in-memory free-slot set.
type HeapFile struct {
	path         string
	codec        *keycodec.Codec
	pageSize     int
	pager        *diskmanager.Pager
	elementCount int64
	free         *btree.BTreeG[int64] // free page offsets, ordered
	logger       *zap.Logger
	closed       bool
	mu           sync.RWMutex
}

type Options struct {
	// PageSize overrides the page size derived from the row width.
	PageSize   int
	CachePages int64
	Logger     *zap.Logger
}

var DefaultOptions = Options{
	CachePages: 256,
}

// RowLocator maps row IDs to heap page offsets. The relation backs it with
// its row ID tree; the heap only ever goes through this interface.
type RowLocator interface {
	// Locate returns ErrRowNotFound when the row ID is unknown.
	Locate(rowID int64) (int64, error)
	Register(rowID, offset int64) error
	Unregister(rowID, offset int64) error
}
