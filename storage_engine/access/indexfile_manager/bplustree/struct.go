// Structure of the on-disk B+ tree
/*
File
 ├── page 0: header (configuration, element count, root offset, free-list head)
 ├── Root (ROOT-INTERNAL or ROOT-LEAF)
 │      └── Internal Nodes (keys + child offsets)
 │             └── Leaf Nodes (keys + values + overflow heads, prev/next offsets)
 │                    └── Leaf-Overflow chains (extra values of a duplicate key)
 └── Free-Pool pages (offsets of released pages, chained by next)

- keys: sorted ascending, unique within the tree (duplicates chain through overflow pages)
- internal nodes: len(children) == len(keys)+1, child i covers [keys[i-1], keys[i])
- leaf nodes: doubly linked through prev/next for range scans
- all leaf nodes at the same depth
- every page is addressed by its byte offset in the file; -1 is the nil offset
*/
package bplus

import (
	"sync"

	diskmanager "StrataDB/storage_engine/disk_manager"
	"StrataDB/storage_engine/keycodec"
	"StrataDB/types"

	"go.uber.org/zap"
)

const (
	// TrimThreshold is the number of free pages at the end of the file
	// needed before Close gives them back to the file system.
	TrimThreshold = 20

	nilOffset = types.NilPointer
)

type Node struct {
	offset   int64
	kind     types.NodeKind
	keys     [][]byte // leaf and internal nodes
	values   [][]byte // leaf: one per key; overflow: the chained values
	overflow []int64  // leaf: head of each key's overflow chain
	children []int64  // internal: len(keys)+1 child offsets
	free     []int64  // free-pool: released page offsets
	prev     int64    // leaf and overflow
	next     int64    // leaf, overflow and free-pool

	isDirty bool // to check if the node is modified
}

type BPlusTree struct {
	path     string
	cfg      *keycodec.Configuration
	pager    *diskmanager.Pager
	root     int64 // offset of the root node
	freeHead int64 // offset of the first free-pool page
	count    int64 // number of key/value pairs, duplicates included
	cmp      func(a, b []byte) int
	logger   *zap.Logger

	headerDirty bool // root, free-list head or count changed since the last header write
	closed      bool
	mu          sync.RWMutex // protects tree structure during splits/merges
}

type Options struct {
	// CachePages is handed to the pager's page cache.
	CachePages int64
	Logger     *zap.Logger
}

var DefaultOptions = Options{
	CachePages: 128,
}

func (o Options) pagerOptions() diskmanager.Options {
	return diskmanager.Options{CachePages: o.CachePages, Logger: o.Logger}
}
