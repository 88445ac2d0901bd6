package bplus

import (
	"github.com/pkg/errors"
)

type splitResult struct {
	key   []byte // separator: first key of the right half
	right int64  // offset of the new right sibling
}

// Insert adds key/value. A unique tree rejects a key it already holds with
// ErrDuplicateKey; a non-unique tree chains the value to the key's overflow
// pages.
func (t *BPlusTree) Insert(key []byte, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkEntry(key, value); err != nil {
		return err
	}
	if value == nil {
		return errors.Wrap(ErrBadEntry, "Insertion: nil value")
	}
	key = append([]byte(nil), key...)
	value = append([]byte(nil), value...)

	root, err := t.readNode(t.root)
	if err != nil {
		return errors.Wrap(err, "Insertion: failed to read root")
	}
	split, err := t.insertInto(root, key, value)
	if err != nil {
		return err
	}
	if split != nil {
		if err := t.createNewRoot(root.offset, split.key, split.right); err != nil {
			return errors.Wrap(err, "Insertion: failed to grow root")
		}
	}
	t.count++
	t.headerDirty = true
	return nil
}

func (t *BPlusTree) insertInto(n *Node, key, value []byte) (*splitResult, error) {
	if n.kind.IsLeaf() {
		return t.insertIntoLeaf(n, key, value)
	}
	idx := t.upperBound(n.keys, key)
	child, err := t.readNode(n.children[idx])
	if err != nil {
		return nil, errors.Wrap(err, "Insertion: failed to read child")
	}
	split, err := t.insertInto(child, key, value)
	if err != nil || split == nil {
		return nil, err
	}
	return t.insertIntoParent(n, idx, split)
}

func (t *BPlusTree) insertIntoLeaf(leaf *Node, key, value []byte) (*splitResult, error) {
	pos := t.lowerBound(leaf.keys, key)
	if pos < len(leaf.keys) && t.cmp(leaf.keys[pos], key) == 0 {
		if t.cfg.Unique {
			return nil, errors.Wrapf(ErrDuplicateKey, "key %s", t.cfg.FormatEncoded(key))
		}
		head, err := t.appendOverflow(leaf.overflow[pos], value)
		if err != nil {
			return nil, errors.Wrap(err, "Insertion: failed to chain duplicate")
		}
		if head != leaf.overflow[pos] {
			leaf.overflow[pos] = head
			leaf.isDirty = true
		}
		return nil, t.writeNode(leaf)
	}

	leaf.keys = insert(leaf.keys, pos, key)
	leaf.values = insert(leaf.values, pos, value)
	leaf.overflow = insert(leaf.overflow, pos, int64(nilOffset))
	leaf.isDirty = true

	if len(leaf.keys) <= t.cfg.MaxLeafKeys() {
		return nil, t.writeNode(leaf)
	}
	return t.splitLeaf(leaf)
}
