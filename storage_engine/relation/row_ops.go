package relation

import (
	"bytes"
	"slices"

	heapfile "StrataDB/storage_engine/access/heapfile_manager"
	"StrataDB/storage_engine/page"
	"StrataDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Row operations keep the heap and every tree in step. Writers validate the
whole row and probe the superkey trees before touching any file, so a
rejected row leaves no trace. A failure after the heap write (disk error,
crash) can leave the trees behind the heap; Resume reports that as
ErrInconsistent.
*/

func (t *Table) locator() heapfile.RowLocator {
	return heapfile.TreeLocator{Tree: t.rowIDs}
}

// Insert validates row, assigns it the next row ID and stores it.
func (t *Table) Insert(row types.Row) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	stored, nulls, err := t.prepareRow(row)
	if err != nil {
		return 0, err
	}
	keys, err := t.encodeKeys(t.superKeys, stored)
	if err != nil {
		return 0, err
	}
	for i, kt := range t.superKeys {
		if err := t.checkUnique(kt, keys[i]); err != nil {
			return 0, err
		}
	}
	idxKeys, err := t.encodeKeys(t.indices, stored)
	if err != nil {
		return 0, err
	}

	rowID := t.meta.NextRowID
	if _, err := t.heap.InsertRow(stored, rowID, t.locator()); err != nil {
		return 0, errors.Wrapf(err, "insert row %d", rowID)
	}
	t.meta.NextRowID++

	id := page.EncodeInt64(rowID)
	for i, kt := range t.superKeys {
		if err := kt.tree.Insert(keys[i], id); err != nil {
			return rowID, t.fanOutError(err, rowID)
		}
	}
	for i, kt := range t.indices {
		if err := kt.tree.Insert(idxKeys[i], id); err != nil {
			return rowID, t.fanOutError(err, rowID)
		}
	}
	for _, nt := range t.nulls {
		if !slices.Contains(nulls, nt.column) {
			continue
		}
		if err := nt.tree.Insert(id, nullMarker); err != nil {
			return rowID, t.fanOutError(err, rowID)
		}
	}
	return rowID, nil
}

// Delete removes a row from the heap and from every tree.
func (t *Table) Delete(rowID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	row, err := t.heap.ReadRow(rowID, t.locator())
	if err != nil {
		return t.rowError(err, rowID)
	}
	keys, err := t.encodeKeys(t.superKeys, row)
	if err != nil {
		return err
	}
	idxKeys, err := t.encodeKeys(t.indices, row)
	if err != nil {
		return err
	}
	if err := t.heap.DeleteRow(rowID, t.locator()); err != nil {
		return t.rowError(err, rowID)
	}

	id := page.EncodeInt64(rowID)
	for i, kt := range t.superKeys {
		if err := kt.tree.Delete(keys[i], id); err != nil {
			return t.fanOutError(err, rowID)
		}
	}
	for i, kt := range t.indices {
		if err := kt.tree.Delete(idxKeys[i], id); err != nil {
			return t.fanOutError(err, rowID)
		}
	}
	for _, nt := range t.nulls {
		isNull, err := nt.tree.Contains(id)
		if err != nil {
			return t.fanOutError(err, rowID)
		}
		if !isNull {
			continue
		}
		if err := nt.tree.Delete(id, nullMarker); err != nil {
			return t.fanOutError(err, rowID)
		}
	}
	return nil
}

// Update replaces the row stored under rowID, moving its superkey, index
// and null entries to match.
func (t *Table) Update(rowID int64, row types.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	stored, nulls, err := t.prepareRow(row)
	if err != nil {
		return err
	}
	old, err := t.heap.ReadRow(rowID, t.locator())
	if err != nil {
		return t.rowError(err, rowID)
	}

	oldKeys, err := t.encodeKeys(t.superKeys, old)
	if err != nil {
		return err
	}
	newKeys, err := t.encodeKeys(t.superKeys, stored)
	if err != nil {
		return err
	}
	for i, kt := range t.superKeys {
		if bytes.Equal(oldKeys[i], newKeys[i]) {
			continue
		}
		if err := t.checkUnique(kt, newKeys[i]); err != nil {
			return err
		}
	}
	oldIdx, err := t.encodeKeys(t.indices, old)
	if err != nil {
		return err
	}
	newIdx, err := t.encodeKeys(t.indices, stored)
	if err != nil {
		return err
	}

	if err := t.heap.UpdateRow(rowID, stored, t.locator()); err != nil {
		return t.rowError(err, rowID)
	}

	id := page.EncodeInt64(rowID)
	if err := moveKeys(t.superKeys, oldKeys, newKeys, id); err != nil {
		return t.fanOutError(err, rowID)
	}
	if err := moveKeys(t.indices, oldIdx, newIdx, id); err != nil {
		return t.fanOutError(err, rowID)
	}
	for _, nt := range t.nulls {
		wasNull, err := nt.tree.Contains(id)
		if err != nil {
			return t.fanOutError(err, rowID)
		}
		isNull := slices.Contains(nulls, nt.column)
		switch {
		case isNull && !wasNull:
			err = nt.tree.Insert(id, nullMarker)
		case wasNull && !isNull:
			err = nt.tree.Delete(id, nullMarker)
		}
		if err != nil {
			return t.fanOutError(err, rowID)
		}
	}
	return nil
}

func moveKeys(trees []keyTree, oldKeys, newKeys [][]byte, id []byte) error {
	for i, kt := range trees {
		if bytes.Equal(oldKeys[i], newKeys[i]) {
			continue
		}
		if err := kt.tree.Delete(oldKeys[i], id); err != nil {
			return err
		}
		if err := kt.tree.Insert(newKeys[i], id); err != nil {
			return err
		}
	}
	return nil
}

// ReadRows returns the rows with the given IDs, in the order asked for.
// IDs that do not exist are skipped.
func (t *Table) ReadRows(ids []int64) ([]types.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, ErrClosed
	}
	out := make([]types.Record, 0, len(ids))
	for _, id := range ids {
		row, err := t.heap.ReadRow(id, t.locator())
		if errors.Is(err, heapfile.ErrRowNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", id)
		}
		rec := types.Record{RowID: id, Row: row}
		if err := t.present(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SearchRows scans the heap and returns every row pred accepts, with nulls
// restored and string padding removed. A nil pred matches every row.
func (t *Table) SearchRows(pred func(types.Record) bool) ([]types.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, ErrClosed
	}
	var out []types.Record
	var scanErr error
	err := t.heap.Scan(func(rec types.Record) bool {
		if scanErr = t.present(&rec); scanErr != nil {
			return false
		}
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
		return true
	})
	if err == nil {
		err = scanErr
	}
	return out, err
}

// present turns a stored row into what callers see: null columns restored
// and string padding trimmed.
func (t *Table) present(rec *types.Record) error {
	if len(t.nulls) > 0 {
		id := page.EncodeInt64(rec.RowID)
		for _, nt := range t.nulls {
			isNull, err := nt.tree.Contains(id)
			if err != nil {
				return errors.Wrapf(err, "null marker of row %d", rec.RowID)
			}
			if isNull {
				rec.Row[nt.column] = types.Null
			}
		}
	}
	rec.Row.TrimPadding()
	return nil
}

func (t *Table) encodeKeys(trees []keyTree, row types.Row) ([][]byte, error) {
	keys := make([][]byte, len(trees))
	for i, kt := range trees {
		b, err := kt.tree.Configuration().Encode(row.Project(kt.columns))
		if err != nil {
			return nil, errors.Wrapf(err, "encode key on (%s)", t.columnList(kt.columns))
		}
		keys[i] = b
	}
	return keys, nil
}

func (t *Table) checkUnique(kt keyTree, key []byte) error {
	exists, err := kt.tree.Contains(key)
	if err != nil {
		return err
	}
	if exists {
		return constraint(ErrDuplicateValue, t.columnList(kt.columns), kt.tree.Configuration().FormatEncoded(key))
	}
	return nil
}

func (t *Table) rowError(err error, rowID int64) error {
	if errors.Is(err, heapfile.ErrRowNotFound) {
		return constraint(ErrRowNotFound, "", fmtRowID(rowID))
	}
	return errors.Wrapf(err, "row %d", rowID)
}

// fanOutError reports a tree write that failed after the heap already
// changed.
func (t *Table) fanOutError(err error, rowID int64) error {
	t.logger.Error("tree update failed after heap write",
		zap.Int64("rowID", rowID), zap.Error(err))
	return errors.Wrapf(err, "relation %q: row %d is only partly written", t.meta.Name, rowID)
}
