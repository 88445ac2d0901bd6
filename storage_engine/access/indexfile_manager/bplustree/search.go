package bplus

import "github.com/pkg/errors"

// Search returns every value stored under key: the leaf value first, then
// the overflow chain in insertion order. It returns nil if key is absent.
func (t *BPlusTree) Search(key []byte) ([][]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.checkEntry(key, nil); err != nil {
		return nil, err
	}
	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, err
	}
	i := t.find(leaf.keys, key)
	if i < 0 {
		return nil, nil
	}
	out := [][]byte{leaf.values[i]}
	if leaf.overflow[i] != nilOffset {
		rest, err := t.overflowValues(leaf.overflow[i])
		if err != nil {
			return nil, errors.Wrap(err, "Search: read overflow chain")
		}
		out = append(out, rest...)
	}
	return out, nil
}

// Get returns the first value stored under key, or ErrKeyNotFound.
func (t *BPlusTree) Get(key []byte) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.checkEntry(key, nil); err != nil {
		return nil, err
	}
	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, err
	}
	i := t.find(leaf.keys, key)
	if i < 0 {
		return nil, ErrKeyNotFound
	}
	return leaf.values[i], nil
}

func (t *BPlusTree) Contains(key []byte) (bool, error) {
	_, err := t.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Last returns the largest key and its first value, or ErrKeyNotFound when
// the tree is empty.
func (t *BPlusTree) Last() (key, value []byte, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, nil, ErrClosed
	}
	leaf, err := t.rightmostLeaf()
	if err != nil {
		return nil, nil, errors.Wrap(err, "Last: find last leaf")
	}
	n := len(leaf.keys)
	if n == 0 {
		return nil, nil, ErrKeyNotFound
	}
	return leaf.keys[n-1], leaf.values[n-1], nil
}
