package bplus

import "github.com/pkg/errors"

// findLeaf descends from the root to the leaf whose range holds key.
func (t *BPlusTree) findLeaf(key []byte) (*Node, error) {
	n, err := t.readNode(t.root)
	if err != nil {
		return nil, errors.Wrap(err, "findLeaf: read root")
	}
	for !n.kind.IsLeaf() {
		if !n.kind.IsInternal() {
			return nil, errors.Wrapf(ErrCorruptPage, "findLeaf: page %d is %s", n.offset, n.kind)
		}
		child := n.children[t.upperBound(n.keys, key)]
		if n, err = t.readNode(child); err != nil {
			return nil, errors.Wrap(err, "findLeaf: read child")
		}
	}
	return n, nil
}

// leftmostLeaf follows the first child pointer down to the first leaf.
func (t *BPlusTree) leftmostLeaf() (*Node, error) {
	n, err := t.readNode(t.root)
	if err != nil {
		return nil, err
	}
	for n.kind.IsInternal() {
		if n, err = t.readNode(n.children[0]); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// rightmostLeaf follows the last child pointer down to the last leaf.
func (t *BPlusTree) rightmostLeaf() (*Node, error) {
	n, err := t.readNode(t.root)
	if err != nil {
		return nil, err
	}
	for n.kind.IsInternal() {
		if n, err = t.readNode(n.children[len(n.children)-1]); err != nil {
			return nil, err
		}
	}
	return n, nil
}
