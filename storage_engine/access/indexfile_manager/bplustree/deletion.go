package bplus

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Delete removes the exact key/value pair. It returns ErrKeyNotFound when
// the tree does not hold that pair.
func (t *BPlusTree) Delete(key []byte, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkEntry(key, value); err != nil {
		return err
	}
	if value == nil {
		return errors.Wrap(ErrBadEntry, "Delete: nil value")
	}

	root, err := t.readNode(t.root)
	if err != nil {
		return errors.Wrap(err, "Delete: failed to read root")
	}
	if err := t.deleteFrom(root, key, value); err != nil {
		return err
	}

	if root.kind.IsInternal() && len(root.keys) == 0 {
		if err := t.collapseRoot(root); err != nil {
			return err
		}
	} else if err := t.writeNode(root); err != nil {
		return err
	}
	t.count--
	t.headerDirty = true
	return nil
}

// deleteFrom removes the pair from the subtree under n. Descendants are
// written (or rebalanced) before it returns; n itself is left dirty for the
// caller, which either writes it or rebalances it against a sibling.
func (t *BPlusTree) deleteFrom(n *Node, key, value []byte) error {
	if n.kind.IsLeaf() {
		return t.deleteFromLeaf(n, key, value)
	}
	idx := t.upperBound(n.keys, key)
	child, err := t.readNode(n.children[idx])
	if err != nil {
		return errors.Wrap(err, "Delete: failed to read child")
	}
	if err := t.deleteFrom(child, key, value); err != nil {
		return err
	}
	if t.underflows(child) {
		return t.rebalance(n, idx, child)
	}
	return t.writeNode(child)
}

func (t *BPlusTree) deleteFromLeaf(leaf *Node, key, value []byte) error {
	pos := t.find(leaf.keys, key)
	if pos < 0 {
		return errors.Wrapf(ErrKeyNotFound, "key %s", t.cfg.FormatEncoded(key))
	}

	if bytes.Equal(leaf.values[pos], value) {
		if leaf.overflow[pos] != nilOffset {
			// promote the last chained value into the leaf slot
			v, head, err := t.popOverflow(leaf.overflow[pos])
			if err != nil {
				return errors.Wrap(err, "Delete: failed to shorten overflow chain")
			}
			leaf.values[pos] = v
			leaf.overflow[pos] = head
			leaf.isDirty = true
			return nil
		}
		leaf.keys = remove(leaf.keys, pos)
		leaf.values = remove(leaf.values, pos)
		leaf.overflow = remove(leaf.overflow, pos)
		leaf.isDirty = true
		return nil
	}

	if leaf.overflow[pos] == nilOffset {
		return errors.Wrapf(ErrKeyNotFound, "key %s with that value", t.cfg.FormatEncoded(key))
	}
	head, found, err := t.removeOverflow(leaf.overflow[pos], value)
	if err != nil {
		return errors.Wrap(err, "Delete: failed to edit overflow chain")
	}
	if !found {
		return errors.Wrapf(ErrKeyNotFound, "key %s with that value", t.cfg.FormatEncoded(key))
	}
	if head != leaf.overflow[pos] {
		leaf.overflow[pos] = head
		leaf.isDirty = true
	}
	return nil
}

// collapseRoot replaces a root internal node left with a single child by
// that child.
func (t *BPlusTree) collapseRoot(root *Node) error {
	child, err := t.readNode(root.children[0])
	if err != nil {
		return errors.Wrap(err, "collapseRoot: failed to read only child")
	}
	child.kind = child.kind.AsRoot()
	child.isDirty = true
	if err := t.writeNode(child); err != nil {
		return err
	}
	t.logger.Debug("tree lost a level", zap.Int64("oldRoot", root.offset), zap.Int64("root", child.offset))
	return t.releasePage(root.offset)
}
