package bufferpool

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

/*
PageCache keeps recently used pages of one file in memory, keyed by page
offset. It is write-through: the pager writes the file first and then
refreshes the cached copy, so an evicted or dropped entry only costs a read.

Pages handed in and out are copied; callers may mutate what they get.
A nil *PageCache is valid and caches nothing.
*/
type PageCache struct {
	cache    *ristretto.Cache[int64, []byte]
	pageSize int
}

// NewPageCache sizes the cache for capacity pages of pageSize bytes.
// A capacity of zero disables caching and returns nil.
func NewPageCache(capacity int64, pageSize int) (*PageCache, error) {
	if capacity <= 0 {
		return nil, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters:        capacity * 10,
		MaxCost:            capacity * int64(pageSize),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create page cache")
	}
	return &PageCache{cache: cache, pageSize: pageSize}, nil
}

// Get returns a copy of the cached page at offset.
func (pc *PageCache) Get(offset int64) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	data, ok := pc.cache.Get(offset)
	if !ok || len(data) != pc.pageSize {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Put replaces the cached page at offset. The old entry is dropped first and
// the call waits for the write buffer to drain, so a Get after Put never
// sees the previous contents.
func (pc *PageCache) Put(offset int64, data []byte) {
	if pc == nil {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	pc.cache.Del(offset)
	pc.cache.Set(offset, buf, int64(len(buf)))
	pc.cache.Wait()
}

func (pc *PageCache) Invalidate(offset int64) {
	if pc == nil {
		return
	}
	pc.cache.Del(offset)
	pc.cache.Wait()
}

// Clear drops every cached page, e.g. after the file is truncated.
func (pc *PageCache) Clear() {
	if pc == nil {
		return
	}
	pc.cache.Clear()
}

func (pc *PageCache) Stats() (hits, misses uint64) {
	if pc == nil || pc.cache.Metrics == nil {
		return 0, 0
	}
	return pc.cache.Metrics.Hits(), pc.cache.Metrics.Misses()
}

func (pc *PageCache) Close() {
	if pc == nil {
		return
	}
	pc.cache.Close()
}
