package bplus

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// splitInternal promotes the median key of an overfull internal node: keys
// left of it stay, keys right of it (and their children) move to a new
// sibling.
func (t *BPlusTree) splitInternal(n *Node) (*splitResult, error) {
	mid := len(n.keys) / 2
	sep := n.keys[mid]
	kind := n.kind.AsChild()

	right, err := t.newNode(kind)
	if err != nil {
		return nil, errors.Wrap(err, "splitInternal: failed to allocate right sibling")
	}
	right.keys = append(right.keys, n.keys[mid+1:]...)
	right.children = append(right.children, n.children[mid+1:]...)

	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]
	n.kind = kind
	n.isDirty = true

	if err := t.writeNode(right); err != nil {
		return nil, err
	}
	if err := t.writeNode(n); err != nil {
		return nil, err
	}

	t.logger.Debug("internal split",
		zap.Int64("left", n.offset),
		zap.Int64("right", right.offset),
		zap.String("separator", t.cfg.FormatEncoded(sep)))
	return &splitResult{key: sep, right: right.offset}, nil
}
