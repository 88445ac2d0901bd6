package bplus

import (
	diskmanager "StrataDB/storage_engine/disk_manager"
	"StrataDB/storage_engine/keycodec"
	"StrataDB/types"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Create makes a new tree file at path, replacing any file already there.
// The file starts with the header page and an empty ROOT-LEAF.
func Create(path string, cfg *keycodec.Configuration, opts Options) (*BPlusTree, error) {
	pager, err := diskmanager.Open(path, cfg.PageSize, true, opts.pagerOptions())
	if err != nil {
		return nil, errors.Wrap(err, "create tree file")
	}
	t := newTree(path, cfg, pager, opts)

	if _, err := pager.Allocate(2); err != nil {
		pager.Close()
		return nil, errors.Wrap(err, "reserve header and root pages")
	}
	root := &Node{
		offset:  int64(cfg.PageSize),
		kind:    types.NodeRootLeaf,
		prev:    nilOffset,
		next:    nilOffset,
		isDirty: true,
	}
	// writeNode moves t.root onto the new root and writes the header.
	if err := t.writeNode(root); err != nil {
		pager.Close()
		return nil, err
	}
	if err := pager.Sync(); err != nil {
		pager.Close()
		return nil, err
	}
	t.logger.Debug("tree created", zap.Stringer("config", cfg))
	return t, nil
}

// Open reopens an existing tree file. The configuration stored in the
// header must match cfg.
func Open(path string, cfg *keycodec.Configuration, opts Options) (*BPlusTree, error) {
	stored, st, err := readHeaderFile(path)
	if err != nil {
		return nil, err
	}
	if !stored.Equal(cfg) {
		return nil, errors.Wrapf(ErrConfigMismatch, "%s: file has %s, caller wants %s", path, stored, cfg)
	}
	return openWithState(path, cfg, st, opts)
}

// OpenFile reopens a tree file using the configuration recorded in its header.
func OpenFile(path string, opts Options) (*BPlusTree, error) {
	cfg, st, err := readHeaderFile(path)
	if err != nil {
		return nil, err
	}
	return openWithState(path, cfg, st, opts)
}

func openWithState(path string, cfg *keycodec.Configuration, st headerState, opts Options) (*BPlusTree, error) {
	pager, err := diskmanager.Open(path, cfg.PageSize, false, opts.pagerOptions())
	if err != nil {
		return nil, errors.Wrap(err, "open tree file")
	}
	t := newTree(path, cfg, pager, opts)
	t.root = st.root
	t.freeHead = st.freeHead
	t.count = st.count

	root, err := t.readNode(t.root)
	if err != nil {
		pager.Close()
		return nil, errors.Wrap(err, "read root")
	}
	if !root.kind.IsRoot() {
		pager.Close()
		return nil, errors.Wrapf(ErrCorruptPage, "header root %d points at a %s page", t.root, root.kind)
	}
	t.logger.Debug("tree opened",
		zap.Int64("root", t.root),
		zap.Int64("entries", t.count),
		zap.String("size", humanize.IBytes(uint64(pager.Size()))))
	return t, nil
}

func newTree(path string, cfg *keycodec.Configuration, pager *diskmanager.Pager, opts Options) *BPlusTree {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BPlusTree{
		path:     path,
		cfg:      cfg,
		pager:    pager,
		root:     nilOffset,
		freeHead: nilOffset,
		cmp:      cfg.CompareEncoded,
		logger:   logger.With(zap.String("tree", path)),
	}
}

func (t *BPlusTree) Path() string                           { return t.path }
func (t *BPlusTree) Configuration() *keycodec.Configuration { return t.cfg }

// Len returns the number of key/value pairs, duplicates included.
func (t *BPlusTree) Len() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Commit persists the header (root, free-list head, element count) and
// flushes the file.
func (t *BPlusTree) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	return t.commit()
}

func (t *BPlusTree) commit() error {
	if t.headerDirty {
		if err := t.writeHeader(); err != nil {
			return err
		}
	}
	return t.pager.Sync()
}

// Close compacts the free list, trims the file tail when it is worth it,
// commits and closes the file. Closing twice is a no-op.
func (t *BPlusTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	if err := t.compact(); err != nil {
		return errors.Wrap(err, "Close: compact")
	}
	if err := t.commit(); err != nil {
		return errors.Wrap(err, "Close: commit")
	}
	t.closed = true
	t.logger.Debug("tree closed",
		zap.Int64("entries", t.count),
		zap.String("size", humanize.IBytes(uint64(t.pager.Size()))))
	return t.pager.Close()
}

// checkEntry rejects keys and values whose width does not match the
// configuration.
func (t *BPlusTree) checkEntry(key, value []byte) error {
	if t.closed {
		return ErrClosed
	}
	if len(key) != t.cfg.KeySize() {
		return errors.Wrapf(ErrBadEntry, "key is %d bytes, want %d", len(key), t.cfg.KeySize())
	}
	if value != nil && len(value) != t.cfg.ValueSize {
		return errors.Wrapf(ErrBadEntry, "value is %d bytes, want %d", len(value), t.cfg.ValueSize)
	}
	return nil
}
