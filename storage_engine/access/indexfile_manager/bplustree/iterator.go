package bplus

import "github.com/pkg/errors"

// Scan walks the leaf chain in key order starting at the first key >= start
// (or at the smallest key when start is nil) and calls fn for every stored
// pair, chained duplicates included. Returning false from fn stops the scan.
// The tree is read-locked for the duration; fn must not modify it.
func (t *BPlusTree) Scan(start []byte, fn func(key, value []byte) bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrClosed
	}
	var (
		leaf *Node
		i    int
		err  error
	)
	if start == nil {
		leaf, err = t.leftmostLeaf()
	} else {
		if err := t.checkEntry(start, nil); err != nil {
			return err
		}
		leaf, err = t.findLeaf(start)
		if err == nil {
			i = t.lowerBound(leaf.keys, start)
		}
	}
	if err != nil {
		return errors.Wrap(err, "Scan: failed to find first leaf")
	}

	for {
		for ; i < len(leaf.keys); i++ {
			if !fn(leaf.keys[i], leaf.values[i]) {
				return nil
			}
			if leaf.overflow[i] == nilOffset {
				continue
			}
			rest, err := t.overflowValues(leaf.overflow[i])
			if err != nil {
				return errors.Wrap(err, "Scan: read overflow chain")
			}
			for _, v := range rest {
				if !fn(leaf.keys[i], v) {
					return nil
				}
			}
		}
		if leaf.next == nilOffset {
			return nil
		}
		if leaf, err = t.readNode(leaf.next); err != nil {
			return errors.Wrap(err, "Scan: failed to read next leaf")
		}
		i = 0
	}
}
