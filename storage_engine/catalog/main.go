package catalog

import (
	"os"
	"path/filepath"
	"sort"

	"StrataDB/types"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

/*
This file is the main access of the Catalog Manager.
The catalog keeps one directory per relation under the database root; the
directory holds meta.json (the relation schema) plus the relation's heap and
tree files. Schemas are loaded lazily and cached in memory.
*/

var (
	ErrRelationExists   = errors.New("relation already exists")
	ErrRelationNotFound = errors.New("relation does not exist")
)

func NewCatalogManager(dbRoot string) (*CatalogManager, error) {
	if err := os.MkdirAll(dbRoot, 0755); err != nil {
		return nil, errors.Wrapf(err, "create database root %s", dbRoot)
	}
	return &CatalogManager{
		dbRoot: dbRoot,
		metas:  make(map[string]types.RelationMeta),
	}, nil
}

func (cm *CatalogManager) Root() string { return cm.dbRoot }

// RelationDir is where the files of the named relation live.
func (cm *CatalogManager) RelationDir(name string) string {
	return filepath.Join(cm.dbRoot, name)
}

func (cm *CatalogManager) RelationExists(name string) bool {
	cm.mu.RLock()
	_, ok := cm.metas[name]
	cm.mu.RUnlock()
	if ok {
		return true
	}
	_, err := os.Stat(filepath.Join(cm.RelationDir(name), MetaFile))
	return err == nil
}

// RegisterRelation validates meta, gives it an ID if it has none, creates
// the relation directory and writes meta.json. The stored meta is returned.
func (cm *CatalogManager) RegisterRelation(meta types.RelationMeta) (types.RelationMeta, error) {
	if err := meta.Validate(); err != nil {
		return types.RelationMeta{}, err
	}
	if filepath.Base(meta.Name) != meta.Name || meta.Name == "." || meta.Name == ".." {
		return types.RelationMeta{}, errors.Wrapf(types.ErrInvalidSchema, "relation name %q is not a plain name", meta.Name)
	}
	if cm.RelationExists(meta.Name) {
		return types.RelationMeta{}, errors.Wrapf(ErrRelationExists, "%q", meta.Name)
	}
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}

	dir := cm.RelationDir(meta.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.RelationMeta{}, errors.Wrapf(err, "create relation directory %s", dir)
	}
	if err := WriteMeta(dir, meta); err != nil {
		return types.RelationMeta{}, err
	}

	cm.mu.Lock()
	cm.metas[meta.Name] = meta
	cm.mu.Unlock()
	return meta, nil
}

// UnregisterRelation removes the relation directory and every file in it.
func (cm *CatalogManager) UnregisterRelation(name string) error {
	if !cm.RelationExists(name) {
		return errors.Wrapf(ErrRelationNotFound, "%q", name)
	}
	cm.mu.Lock()
	delete(cm.metas, name)
	cm.mu.Unlock()

	dir := cm.RelationDir(name)
	return errors.Wrapf(os.RemoveAll(dir), "remove relation directory %s", dir)
}

func (cm *CatalogManager) GetRelationMeta(name string) (types.RelationMeta, error) {
	cm.mu.RLock()
	meta, ok := cm.metas[name]
	cm.mu.RUnlock()
	if ok {
		return meta, nil
	}

	dir := cm.RelationDir(name)
	if _, err := os.Stat(filepath.Join(dir, MetaFile)); os.IsNotExist(err) {
		return types.RelationMeta{}, errors.Wrapf(ErrRelationNotFound, "%q", name)
	}
	meta, err := ReadMeta(dir)
	if err != nil {
		return types.RelationMeta{}, err
	}

	cm.mu.Lock()
	cm.metas[name] = meta
	cm.mu.Unlock()
	return meta, nil
}

// SaveMeta rewrites the meta.json of an existing relation.
func (cm *CatalogManager) SaveMeta(meta types.RelationMeta) error {
	if !cm.RelationExists(meta.Name) {
		return errors.Wrapf(ErrRelationNotFound, "%q", meta.Name)
	}
	if err := WriteMeta(cm.RelationDir(meta.Name), meta); err != nil {
		return err
	}
	cm.mu.Lock()
	cm.metas[meta.Name] = meta
	cm.mu.Unlock()
	return nil
}

// ListRelations returns the names of every relation under the root, sorted.
func (cm *CatalogManager) ListRelations() ([]string, error) {
	entries, err := os.ReadDir(cm.dbRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "read database root %s", cm.dbRoot)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(cm.dbRoot, entry.Name(), MetaFile)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
