package indexfile

import (
	"os"
	"path/filepath"
	"sort"

	bplus "StrataDB/storage_engine/access/indexfile_manager/bplustree"
	"StrataDB/storage_engine/keycodec"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

/*
This file is the main file for Index File Manager that deals with the tree files
of one relation. A relation owns several trees (row ID map, superkeys, indices,
null markers); the manager creates or reopens them by name and closes them
together.
*/

var ErrIndexOpen = errors.New("index is already open")

func NewIndexFileManager(baseDir string, opts bplus.Options) (*IndexFileManager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create index directory")
	}
	return &IndexFileManager{
		baseDir: baseDir,
		opts:    opts,
		indexes: make(map[string]*bplus.BPlusTree),
	}, nil
}

func (ifm *IndexFileManager) Path(name string) string {
	return filepath.Join(ifm.baseDir, name+".idx")
}

// CreateIndex creates a fresh tree file for name.
func (ifm *IndexFileManager) CreateIndex(name string, cfg *keycodec.Configuration) (*bplus.BPlusTree, error) {
	return ifm.open(name, func(path string) (*bplus.BPlusTree, error) {
		return bplus.Create(path, cfg, ifm.opts)
	})
}

// OpenIndex reopens the tree file for name; its header must match cfg.
func (ifm *IndexFileManager) OpenIndex(name string, cfg *keycodec.Configuration) (*bplus.BPlusTree, error) {
	return ifm.open(name, func(path string) (*bplus.BPlusTree, error) {
		return bplus.Open(path, cfg, ifm.opts)
	})
}

func (ifm *IndexFileManager) open(name string, fn func(path string) (*bplus.BPlusTree, error)) (*bplus.BPlusTree, error) {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	if _, exists := ifm.indexes[name]; exists {
		return nil, errors.Wrapf(ErrIndexOpen, "%s", name)
	}
	tree, err := fn(ifm.Path(name))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index %q", name)
	}
	ifm.indexes[name] = tree
	return tree, nil
}

// GetIndex returns an open tree by name.
func (ifm *IndexFileManager) GetIndex(name string) (*bplus.BPlusTree, bool) {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()
	tree, ok := ifm.indexes[name]
	return tree, ok
}

// Names lists the open trees, sorted.
func (ifm *IndexFileManager) Names() []string {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()
	names := make([]string, 0, len(ifm.indexes))
	for name := range ifm.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseIndex closes one tree and forgets it.
func (ifm *IndexFileManager) CloseIndex(name string) error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	tree, exists := ifm.indexes[name]
	if !exists {
		return nil // not open, nothing to do
	}
	delete(ifm.indexes, name)
	return tree.Close()
}

// CloseAll closes every open tree in parallel; each tree compacts and syncs
// its own file. The first error is returned, but every tree is closed.
func (ifm *IndexFileManager) CloseAll() error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	var g errgroup.Group
	for name, tree := range ifm.indexes {
		name, tree := name, tree
		g.Go(func() error {
			return errors.Wrapf(tree.Close(), "close index %q", name)
		})
	}
	err := g.Wait()
	ifm.indexes = make(map[string]*bplus.BPlusTree)
	return err
}
