package heapfile

import (
	bplus "StrataDB/storage_engine/access/indexfile_manager/bplustree"
	"StrataDB/storage_engine/page"

	"github.com/pkg/errors"
)

// TreeLocator keeps the row ID -> page offset map in a unique tree keyed by
// the 8-byte row ID with the 8-byte offset as value.
type TreeLocator struct {
	Tree *bplus.BPlusTree
}

func (l TreeLocator) Locate(rowID int64) (int64, error) {
	v, err := l.Tree.Get(page.EncodeInt64(rowID))
	if errors.Is(err, bplus.ErrKeyNotFound) {
		return 0, errors.Wrapf(ErrRowNotFound, "row %d", rowID)
	}
	if err != nil {
		return 0, err
	}
	return page.DecodeInt64(v), nil
}

func (l TreeLocator) Register(rowID, offset int64) error {
	return l.Tree.Insert(page.EncodeInt64(rowID), page.EncodeInt64(offset))
}

func (l TreeLocator) Unregister(rowID, offset int64) error {
	return l.Tree.Delete(page.EncodeInt64(rowID), page.EncodeInt64(offset))
}
