package bplus

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// splitLeaf moves the upper half of an overfull leaf into a new right
// sibling and returns the separator to push into the parent. A root leaf
// becomes an ordinary leaf; the caller grows a new root above it.
func (t *BPlusTree) splitLeaf(leaf *Node) (*splitResult, error) {
	mid := len(leaf.keys) / 2
	kind := leaf.kind.AsChild()

	right, err := t.newNode(kind)
	if err != nil {
		return nil, errors.Wrap(err, "splitLeaf: failed to allocate right sibling")
	}
	right.keys = append(right.keys, leaf.keys[mid:]...)
	right.values = append(right.values, leaf.values[mid:]...)
	right.overflow = append(right.overflow, leaf.overflow[mid:]...)
	right.prev = leaf.offset
	right.next = leaf.next // right inherits leaf's old next pointer

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.overflow = leaf.overflow[:mid]
	leaf.next = right.offset
	leaf.kind = kind
	leaf.isDirty = true

	if right.next != nilOffset {
		next, err := t.readNode(right.next)
		if err != nil {
			return nil, errors.Wrap(err, "splitLeaf: failed to read next leaf")
		}
		next.prev = right.offset
		next.isDirty = true
		if err := t.writeNode(next); err != nil {
			return nil, err
		}
	}
	if err := t.writeNode(right); err != nil {
		return nil, err
	}
	if err := t.writeNode(leaf); err != nil {
		return nil, err
	}

	t.logger.Debug("leaf split",
		zap.Int64("left", leaf.offset),
		zap.Int64("right", right.offset),
		zap.Int("leftKeys", len(leaf.keys)),
		zap.Int("rightKeys", len(right.keys)))
	return &splitResult{key: right.keys[0], right: right.offset}, nil
}
