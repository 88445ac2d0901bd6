package heapfile

import "StrataDB/types"

/* this file contains the exported row operations on the heapfile, they take the heap lock before calling their internal function.
The internal functions must not lock, so one operation can be composed from others without deadlocking.
*/

// InsertRow stores row under rowID in the lowest free slot (growing the
// file by GrowBatch pages when none is free) and registers the slot with loc.
func (hf *HeapFile) InsertRow(row types.Row, rowID int64, loc RowLocator) (int64, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.insertRow(row, rowID, loc)
}

// DeleteRow frees the slot of rowID. Deleting a row twice, or a row that
// never existed, returns ErrRowNotFound.
func (hf *HeapFile) DeleteRow(rowID int64, loc RowLocator) error {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.deleteRow(rowID, loc)
}

func (hf *HeapFile) ReadRow(rowID int64, loc RowLocator) (types.Row, error) {
	hf.mu.RLock()
	defer hf.mu.RUnlock()
	return hf.readRow(rowID, loc)
}

// UpdateRow rewrites rowID's row in place.
func (hf *HeapFile) UpdateRow(rowID int64, row types.Row, loc RowLocator) error {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.updateRow(rowID, row, loc)
}

// SearchRows scans every live page and returns the rows pred accepts.
func (hf *HeapFile) SearchRows(pred func(types.Record) bool) ([]types.Record, error) {
	var out []types.Record
	err := hf.Scan(func(rec types.Record) bool {
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
		return true
	})
	return out, err
}

// Scan calls fn for every live row in file order until fn returns false.
func (hf *HeapFile) Scan(fn func(types.Record) bool) error {
	hf.mu.RLock()
	defer hf.mu.RUnlock()
	return hf.scan(fn)
}
