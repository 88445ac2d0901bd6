package storageengine

import (
	"StrataDB/storage_engine/catalog"
	"StrataDB/storage_engine/relation"
	"StrataDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

/*
The main file of storage engine, that initializes the catalog manager and
hands out relation tables. A relation is opened once and the handle is
cached until it is closed or dropped; Close shuts every open relation down
in parallel.
*/

func NewStorageEngine(dbRoot string, opts Options) (*StorageEngine, error) {
	catalogManager, err := catalog.NewCatalogManager(dbRoot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init catalog manager")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageEngine{
		DbRoot:         dbRoot,
		CatalogManager: catalogManager,
		opts:           opts,
		logger:         logger,
		relations:      make(map[string]*relation.Table),
	}, nil
}

func (se *StorageEngine) relationOptions() relation.Options {
	return relation.Options{CachePages: se.opts.CachePages, Logger: se.logger}
}

// CreateRelation registers meta in the catalog and creates its files. The
// returned table stays open and cached.
func (se *StorageEngine) CreateRelation(meta types.RelationMeta) (*relation.Table, error) {
	se.relationsMu.Lock()
	defer se.relationsMu.Unlock()

	if meta.PageSize == 0 {
		meta.PageSize = types.DefaultPageSize
	}
	meta, err := se.CatalogManager.RegisterRelation(meta)
	if err != nil {
		return nil, err
	}
	tbl, err := relation.Create(se.CatalogManager.RelationDir(meta.Name), meta, se.relationOptions())
	if err != nil {
		if uerr := se.CatalogManager.UnregisterRelation(meta.Name); uerr != nil {
			se.logger.Warn("failed to roll back relation directory", zap.String("relation", meta.Name), zap.Error(uerr))
		}
		return nil, err
	}
	se.relations[meta.Name] = tbl
	return tbl, nil
}

// OpenRelation returns the cached table for name, resuming it from disk
// the first time.
func (se *StorageEngine) OpenRelation(name string) (*relation.Table, error) {
	se.relationsMu.Lock()
	defer se.relationsMu.Unlock()

	if tbl, ok := se.relations[name]; ok {
		return tbl, nil
	}
	meta, err := se.CatalogManager.GetRelationMeta(name)
	if err != nil {
		return nil, err
	}
	tbl, err := relation.Resume(se.CatalogManager.RelationDir(name), se.relationOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "resume relation %q", name)
	}
	if tbl.Meta().ID != meta.ID {
		tbl.Close()
		return nil, errors.Wrapf(types.ErrInvalidSchema, "relation %q changed on disk", name)
	}
	se.relations[name] = tbl
	return tbl, nil
}

// CloseRelation closes the cached handle of name, if any, and refreshes the
// catalog's copy of its schema.
func (se *StorageEngine) CloseRelation(name string) error {
	se.relationsMu.Lock()
	defer se.relationsMu.Unlock()
	return se.closeRelation(name)
}

func (se *StorageEngine) closeRelation(name string) error {
	tbl, ok := se.relations[name]
	if !ok {
		return nil
	}
	delete(se.relations, name)
	if err := tbl.Close(); err != nil {
		return err
	}
	return se.CatalogManager.SaveMeta(tbl.Meta())
}

// DropRelation closes name and deletes its directory.
func (se *StorageEngine) DropRelation(name string) error {
	se.relationsMu.Lock()
	defer se.relationsMu.Unlock()

	if err := se.closeRelation(name); err != nil {
		return err
	}
	if err := se.CatalogManager.UnregisterRelation(name); err != nil {
		return err
	}
	se.logger.Info("relation dropped", zap.String("relation", name))
	return nil
}

// Relations lists every relation in the database root.
func (se *StorageEngine) Relations() ([]string, error) {
	return se.CatalogManager.ListRelations()
}

// Close closes every open relation in parallel.
func (se *StorageEngine) Close() error {
	se.relationsMu.Lock()
	defer se.relationsMu.Unlock()

	var g errgroup.Group
	for name, tbl := range se.relations {
		name, tbl := name, tbl
		g.Go(func() error {
			if err := tbl.Close(); err != nil {
				return errors.Wrapf(err, "close relation %q", name)
			}
			return se.CatalogManager.SaveMeta(tbl.Meta())
		})
	}
	err := g.Wait()
	se.relations = make(map[string]*relation.Table)
	return err
}
