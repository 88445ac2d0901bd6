package bplus

import (
	"StrataDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// createNewRoot creates a new root internal node with left and right as
// its two children.
func (t *BPlusTree) createNewRoot(left int64, key []byte, right int64) error {
	root, err := t.newNode(types.NodeRootInternal)
	if err != nil {
		return errors.Wrap(err, "createNewRoot: failed to allocate root")
	}
	root.keys = [][]byte{key}
	root.children = []int64{left, right}
	if err := t.writeNode(root); err != nil {
		return err
	}
	t.logger.Debug("tree grew a level", zap.Int64("root", root.offset))
	return nil
}
