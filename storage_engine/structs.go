package storageengine

import (
	"sync"

	"StrataDB/storage_engine/catalog"
	"StrataDB/storage_engine/relation"

	"go.uber.org/zap"
)

type StorageEngine struct {
	DbRoot         string
	CatalogManager *catalog.CatalogManager

	opts   Options
	logger *zap.Logger

	// Open relation handles, so every caller shares one Table per relation.
	// Closed on CloseRelation, DropRelation or engine shutdown.
	relationsMu sync.Mutex
	relations   map[string]*relation.Table
}

type Options struct {
	CachePages int64
	Logger     *zap.Logger
}

var DefaultOptions = Options{
	CachePages: relation.DefaultOptions.CachePages,
}
