package relation

import (
	"sync"

	heapfile "StrataDB/storage_engine/access/heapfile_manager"
	indexfile "StrataDB/storage_engine/access/indexfile_manager"
	bplus "StrataDB/storage_engine/access/indexfile_manager/bplustree"
	"StrataDB/types"

	"go.uber.org/zap"
)

const (
	HeapFile    = "rows.heap"
	rowIDTree   = "rowid"
	superKeyFmt = "superkey_%d"
	indexFmt    = "index_%d"
	nullFmt     = "null_%d"
)

// nullMarker is the value stored in a null tree under a row ID.
var nullMarker = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Table is one relation on disk: the row heap, the row ID tree that locates
// heap pages, one unique tree per superkey, one tree per index and one
// marker tree per nullable column. All of them live in a single directory
// together with meta.json.
type Table struct {
	dir       string
	meta      types.RelationMeta
	heap      *heapfile.HeapFile
	trees     *indexfile.IndexFileManager
	rowIDs    *bplus.BPlusTree
	superKeys []keyTree
	indices   []keyTree
	nulls     []nullTree
	opts      Options
	logger    *zap.Logger
	closed    bool
	mu        sync.RWMutex
}

// keyTree maps a projection of the row to row IDs.
type keyTree struct {
	columns []int
	tree    *bplus.BPlusTree
}

// nullTree holds the row IDs whose column is null.
type nullTree struct {
	column int
	tree   *bplus.BPlusTree
}

type Options struct {
	// CachePages is the page cache size of every file of the relation.
	CachePages int64
	Logger     *zap.Logger
}

var DefaultOptions = Options{
	CachePages: 128,
}
