package indexfile

import (
	"sync"

	bplus "StrataDB/storage_engine/access/indexfile_manager/bplustree"
)

// IndexFileManager owns every tree file of one relation directory, keyed by
// tree name (the file is <dir>/<name>.idx).
type IndexFileManager struct {
	baseDir string
	opts    bplus.Options
	indexes map[string]*bplus.BPlusTree
	mu      sync.RWMutex
}
