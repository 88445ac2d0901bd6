package relation

import (
	"fmt"
	"path/filepath"

	heapfile "StrataDB/storage_engine/access/heapfile_manager"
	indexfile "StrataDB/storage_engine/access/indexfile_manager"
	bplus "StrataDB/storage_engine/access/indexfile_manager/bplustree"
	"StrataDB/storage_engine/catalog"
	"StrataDB/storage_engine/keycodec"
	"StrataDB/storage_engine/page"
	"StrataDB/types"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

/*
This file opens and closes relation tables.
Create lays out a new relation directory: meta.json, an empty heap and one
empty tree per row ID map, superkey, index and nullable column. Resume
reopens every file and checks the trees against the schema and each other.
*/

// Create builds a new relation in dir from meta. Zero PageSize and
// HeapPageSize are filled with defaults, and a missing ID is generated.
func Create(dir string, meta types.RelationMeta, opts Options) (*Table, error) {
	if meta.PageSize == 0 {
		meta.PageSize = types.DefaultPageSize
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	rowSize := 0
	for _, c := range meta.ColumnTypes {
		rowSize += c.Width()
	}
	if meta.HeapPageSize == 0 {
		meta.HeapPageSize = heapfile.PageSizeFor(rowSize)
	}

	t, err := newTable(dir, meta, opts)
	if err != nil {
		return nil, err
	}
	if err := t.openFiles(true); err != nil {
		t.abort()
		return nil, err
	}
	if err := catalog.WriteMeta(dir, t.meta); err != nil {
		t.abort()
		return nil, err
	}
	t.logger.Info("relation created",
		zap.Strings("columns", meta.ColumnNames),
		zap.Int("superKeys", len(meta.SuperKeys)),
		zap.Int("indices", len(meta.Indices)),
		zap.Int("heapPageSize", meta.HeapPageSize))
	return t, nil
}

// Resume reopens the relation stored in dir.
func Resume(dir string, opts Options) (*Table, error) {
	meta, err := catalog.ReadMeta(dir)
	if err != nil {
		return nil, err
	}
	if meta.ID == uuid.Nil {
		return nil, errors.Wrapf(types.ErrInvalidSchema, "relation %q has no id", meta.Name)
	}
	t, err := newTable(dir, meta, opts)
	if err != nil {
		return nil, err
	}
	if err := t.openFiles(false); err != nil {
		t.abort()
		return nil, err
	}
	if err := t.checkCounts(); err != nil {
		t.abort()
		return nil, err
	}
	if err := t.recoverNextRowID(); err != nil {
		t.abort()
		return nil, err
	}
	t.logger.Info("relation resumed", zap.Int64("rows", t.heap.ElementCount()))
	return t, nil
}

func newTable(dir string, meta types.RelationMeta, opts Options) (*Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("relation", meta.Name), zap.Stringer("id", meta.ID))

	trees, err := indexfile.NewIndexFileManager(dir, bplus.Options{
		CachePages: opts.CachePages,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &Table{
		dir:    dir,
		meta:   meta,
		trees:  trees,
		opts:   opts,
		logger: logger,
	}, nil
}

func (t *Table) openFiles(create bool) error {
	open := t.trees.OpenIndex
	if create {
		open = t.trees.CreateIndex
	}

	cfg, err := rowIDConfig(t.meta.PageSize)
	if err != nil {
		return err
	}
	if t.rowIDs, err = open(rowIDTree, cfg); err != nil {
		return err
	}
	for i, cols := range t.meta.SuperKeys {
		tree, err := t.openKeyTree(open, fmt.Sprintf(superKeyFmt, i), cols, true)
		if err != nil {
			return err
		}
		t.superKeys = append(t.superKeys, keyTree{columns: cols, tree: tree})
	}
	for i, cols := range t.meta.Indices {
		tree, err := t.openKeyTree(open, fmt.Sprintf(indexFmt, i), cols, false)
		if err != nil {
			return err
		}
		t.indices = append(t.indices, keyTree{columns: cols, tree: tree})
	}
	for _, c := range t.meta.Nullable {
		tree, err := open(fmt.Sprintf(nullFmt, c), cfg)
		if err != nil {
			return err
		}
		t.nulls = append(t.nulls, nullTree{column: c, tree: tree})
	}

	heapOpts := heapfile.Options{
		PageSize:   t.meta.HeapPageSize,
		CachePages: t.opts.CachePages,
		Logger:     t.logger,
	}
	heapPath := filepath.Join(t.dir, HeapFile)
	if create {
		t.heap, err = heapfile.Create(heapPath, t.meta.ColumnTypes, heapOpts)
	} else {
		t.heap, err = heapfile.Open(heapPath, t.meta.ColumnTypes, heapOpts)
	}
	return err
}

func (t *Table) openKeyTree(open func(string, *keycodec.Configuration) (*bplus.BPlusTree, error), name string, cols []int, unique bool) (*bplus.BPlusTree, error) {
	cfg, err := keyConfig(&t.meta, cols, unique)
	if err != nil {
		return nil, errors.Wrapf(err, "%s on (%s)", name, t.columnList(cols))
	}
	return open(name, cfg)
}

// recoverNextRowID moves NextRowID past the largest stored row ID. meta.json
// is only rewritten on Close, so after an unclean stop it can lag the trees.
func (t *Table) recoverNextRowID() error {
	key, _, err := t.rowIDs.Last()
	if errors.Is(err, bplus.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read last row id")
	}
	if last := page.DecodeInt64(key); last >= t.meta.NextRowID {
		t.logger.Warn("next row id behind stored rows",
			zap.Int64("nextRowID", t.meta.NextRowID),
			zap.Int64("lastRowID", last))
		t.meta.NextRowID = last + 1
	}
	return nil
}

// checkCounts verifies every full tree holds one entry per heap row and
// no null tree holds more.
func (t *Table) checkCounts() error {
	rows := t.heap.ElementCount()
	check := func(name string, n int64) error {
		if n != rows {
			return errors.Wrapf(ErrInconsistent, "%s holds %d entries, heap holds %d rows", name, n, rows)
		}
		return nil
	}
	if err := check(rowIDTree, t.rowIDs.Len()); err != nil {
		return err
	}
	for i, kt := range t.superKeys {
		if err := check(fmt.Sprintf(superKeyFmt, i), kt.tree.Len()); err != nil {
			return err
		}
	}
	for i, kt := range t.indices {
		if err := check(fmt.Sprintf(indexFmt, i), kt.tree.Len()); err != nil {
			return err
		}
	}
	for _, nt := range t.nulls {
		if nt.tree.Len() > rows {
			return errors.Wrapf(ErrInconsistent, "null tree of %q holds %d entries, heap holds %d rows",
				t.meta.ColumnNames[nt.column], nt.tree.Len(), rows)
		}
	}
	return nil
}

// abort closes whatever openFiles managed to open.
func (t *Table) abort() {
	if t.heap != nil {
		t.heap.Close()
	}
	t.trees.CloseAll()
}

func (t *Table) Dir() string  { return t.dir }
func (t *Table) Name() string { return t.meta.Name }

// Meta returns a copy of the schema, including the next row ID.
func (t *Table) Meta() types.RelationMeta {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.meta
}

// Len is the number of live rows.
func (t *Table) Len() int64 {
	return t.heap.ElementCount()
}

// Close flushes the heap and every tree in parallel and records the next
// row ID in meta.json. Closing twice is a no-op.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var g errgroup.Group
	g.Go(func() error { return errors.Wrap(t.heap.Close(), "close heap") })
	g.Go(t.trees.CloseAll)
	err := g.Wait()
	if merr := catalog.WriteMeta(t.dir, t.meta); err == nil {
		err = merr
	}
	if err != nil {
		return errors.Wrapf(err, "close relation %q", t.meta.Name)
	}
	t.logger.Info("relation closed", zap.Int64("nextRowID", t.meta.NextRowID))
	return nil
}
