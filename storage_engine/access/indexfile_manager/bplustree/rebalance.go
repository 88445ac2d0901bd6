package bplus

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// rebalance fixes child (at position idx under parent) after it fell below
// its minimum. Order: borrow from the left sibling, borrow from the right
// sibling, merge into the left sibling, merge the right sibling in.
// Siblings are only ever taken from the same parent.
func (t *BPlusTree) rebalance(parent *Node, idx int, child *Node) error {
	var left, right *Node
	var err error
	if idx > 0 {
		if left, err = t.readNode(parent.children[idx-1]); err != nil {
			return errors.Wrap(err, "rebalance: failed to read left sibling")
		}
	}
	if idx < len(parent.children)-1 {
		if right, err = t.readNode(parent.children[idx+1]); err != nil {
			return errors.Wrap(err, "rebalance: failed to read right sibling")
		}
	}

	leaf := child.kind.IsLeaf()
	switch {
	case left != nil && t.canLend(left):
		if leaf {
			t.borrowLeafFromLeft(parent, idx, left, child)
		} else {
			t.borrowInternalFromLeft(parent, idx, left, child)
		}
		return t.writeNodes(left, child)
	case right != nil && t.canLend(right):
		if leaf {
			t.borrowLeafFromRight(parent, idx, child, right)
		} else {
			t.borrowInternalFromRight(parent, idx, child, right)
		}
		return t.writeNodes(child, right)
	case left != nil:
		return t.merge(parent, idx-1, left, child)
	case right != nil:
		return t.merge(parent, idx, child, right)
	}
	return errors.Wrapf(ErrCorruptPage, "rebalance: page %d has no sibling under %d", child.offset, parent.offset)
}

func (t *BPlusTree) writeNodes(nodes ...*Node) error {
	for _, n := range nodes {
		if err := t.writeNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (t *BPlusTree) borrowLeafFromLeft(parent *Node, idx int, left, child *Node) {
	last := len(left.keys) - 1
	child.keys = insert(child.keys, 0, left.keys[last])
	child.values = insert(child.values, 0, left.values[last])
	child.overflow = insert(child.overflow, 0, left.overflow[last])
	left.keys = left.keys[:last]
	left.values = left.values[:last]
	left.overflow = left.overflow[:last]
	parent.keys[idx-1] = child.keys[0]
	markDirty(parent, left, child)
}

func (t *BPlusTree) borrowLeafFromRight(parent *Node, idx int, child, right *Node) {
	child.keys = append(child.keys, right.keys[0])
	child.values = append(child.values, right.values[0])
	child.overflow = append(child.overflow, right.overflow[0])
	right.keys = remove(right.keys, 0)
	right.values = remove(right.values, 0)
	right.overflow = remove(right.overflow, 0)
	parent.keys[idx] = right.keys[0]
	markDirty(parent, child, right)
}

func (t *BPlusTree) borrowInternalFromLeft(parent *Node, idx int, left, child *Node) {
	lastKey := len(left.keys) - 1
	lastChild := len(left.children) - 1
	child.keys = insert(child.keys, 0, parent.keys[idx-1])
	child.children = insert(child.children, 0, left.children[lastChild])
	parent.keys[idx-1] = left.keys[lastKey]
	left.keys = left.keys[:lastKey]
	left.children = left.children[:lastChild]
	markDirty(parent, left, child)
}

func (t *BPlusTree) borrowInternalFromRight(parent *Node, idx int, child, right *Node) {
	child.keys = append(child.keys, parent.keys[idx])
	child.children = append(child.children, right.children[0])
	parent.keys[idx] = right.keys[0]
	right.keys = remove(right.keys, 0)
	right.children = remove(right.children, 0)
	markDirty(parent, child, right)
}

// merge folds right into left, drops the separator at sepIdx from the
// parent and releases right's page.
func (t *BPlusTree) merge(parent *Node, sepIdx int, left, right *Node) error {
	if left.kind.IsLeaf() {
		left.keys = append(left.keys, right.keys...)
		left.values = append(left.values, right.values...)
		left.overflow = append(left.overflow, right.overflow...)
		left.next = right.next
		if right.next != nilOffset {
			next, err := t.readNode(right.next)
			if err != nil {
				return errors.Wrap(err, "merge: failed to read next leaf")
			}
			next.prev = left.offset
			next.isDirty = true
			if err := t.writeNode(next); err != nil {
				return err
			}
		}
	} else {
		left.keys = append(left.keys, parent.keys[sepIdx])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}
	parent.keys = remove(parent.keys, sepIdx)
	parent.children = remove(parent.children, sepIdx+1)
	markDirty(parent, left)

	if err := t.writeNode(left); err != nil {
		return err
	}
	t.logger.Debug("nodes merged",
		zap.Stringer("kind", left.kind),
		zap.Int64("into", left.offset),
		zap.Int64("released", right.offset))
	return t.releasePage(right.offset)
}

func markDirty(nodes ...*Node) {
	for _, n := range nodes {
		n.isDirty = true
	}
}
