package catalog

import (
	"sync"

	"StrataDB/types"
)

// MetaFile is the schema file kept in every relation directory.
const MetaFile = "meta.json"

// CatalogManager maps relation names to their directories under dbRoot and
// caches the RelationMeta read from each meta.json.
type CatalogManager struct {
	dbRoot string
	metas  map[string]types.RelationMeta
	mu     sync.RWMutex
}
