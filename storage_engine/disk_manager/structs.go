package diskmanager

import (
	"os"
	"sync"

	"StrataDB/storage_engine/bufferpool"

	"go.uber.org/zap"
)

// Pager owns one data file made of fixed-size pages addressed by byte
// offset. Page 0 (offset 0) is the file's header page.
type Pager struct {
	path     string
	file     *os.File
	pageSize int
	numPages int64
	cache    *bufferpool.PageCache
	logger   *zap.Logger
	mu       sync.Mutex
}

type Options struct {
	// CachePages is the number of pages kept in the page cache; 0 disables it.
	CachePages int64
	Logger     *zap.Logger
}

var DefaultOptions = Options{
	CachePages: 256,
}
