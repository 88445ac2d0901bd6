package bplus

import (
	"bytes"

	"StrataDB/types"

	"github.com/pkg/errors"
)

// Duplicate keys of a non-unique tree keep their first value in the leaf
// entry and chain every further value through LEAF-OVERFLOW pages hanging
// off that entry. Every overflow page holds at least one value; a page that
// empties is unlinked and released.

func (t *BPlusTree) readOverflow(offset int64) (*Node, error) {
	n, err := t.readNode(offset)
	if err != nil {
		return nil, err
	}
	if n.kind != types.NodeLeafOverflow {
		return nil, errors.Wrapf(ErrCorruptPage, "page %d is %s, expected overflow", offset, n.kind)
	}
	return n, nil
}

// appendOverflow adds value to the chain starting at head and returns the
// (possibly new) head.
func (t *BPlusTree) appendOverflow(head int64, value []byte) (int64, error) {
	if head == nilOffset {
		n, err := t.newNode(types.NodeLeafOverflow)
		if err != nil {
			return head, err
		}
		n.values = [][]byte{value}
		return n.offset, t.writeNode(n)
	}

	tail, err := t.readOverflow(head)
	if err != nil {
		return head, err
	}
	for tail.next != nilOffset {
		if tail, err = t.readOverflow(tail.next); err != nil {
			return head, err
		}
	}
	if len(tail.values) < t.cfg.OverflowDegree {
		tail.values = append(tail.values, value)
		tail.isDirty = true
		return head, t.writeNode(tail)
	}

	n, err := t.newNode(types.NodeLeafOverflow)
	if err != nil {
		return head, err
	}
	n.values = [][]byte{value}
	n.prev = tail.offset
	tail.next = n.offset
	tail.isDirty = true
	if err := t.writeNode(n); err != nil {
		return head, err
	}
	return head, t.writeNode(tail)
}

// overflowValues collects every value chained from head, in chain order.
func (t *BPlusTree) overflowValues(head int64) ([][]byte, error) {
	var out [][]byte
	for off := head; off != nilOffset; {
		n, err := t.readOverflow(off)
		if err != nil {
			return nil, err
		}
		out = append(out, n.values...)
		off = n.next
	}
	return out, nil
}

// popOverflow removes the last value of the chain.
func (t *BPlusTree) popOverflow(head int64) ([]byte, int64, error) {
	tail, err := t.readOverflow(head)
	if err != nil {
		return nil, head, err
	}
	for tail.next != nilOffset {
		if tail, err = t.readOverflow(tail.next); err != nil {
			return nil, head, err
		}
	}
	last := len(tail.values) - 1
	value := tail.values[last]
	tail.values = tail.values[:last]
	tail.isDirty = true
	if len(tail.values) > 0 {
		return value, head, t.writeNode(tail)
	}
	head, err = t.unlinkOverflow(head, tail)
	return value, head, err
}

// removeOverflow deletes one occurrence of value from the chain.
func (t *BPlusTree) removeOverflow(head int64, value []byte) (int64, bool, error) {
	for off := head; off != nilOffset; {
		n, err := t.readOverflow(off)
		if err != nil {
			return head, false, err
		}
		for i, v := range n.values {
			if !bytes.Equal(v, value) {
				continue
			}
			n.values = remove(n.values, i)
			n.isDirty = true
			if len(n.values) > 0 {
				return head, true, t.writeNode(n)
			}
			head, err = t.unlinkOverflow(head, n)
			return head, true, err
		}
		off = n.next
	}
	return head, false, nil
}

// unlinkOverflow drops an emptied page from its chain and releases it.
func (t *BPlusTree) unlinkOverflow(head int64, n *Node) (int64, error) {
	if n.prev == nilOffset {
		head = n.next
	} else {
		prev, err := t.readOverflow(n.prev)
		if err != nil {
			return head, err
		}
		prev.next = n.next
		prev.isDirty = true
		if err := t.writeNode(prev); err != nil {
			return head, err
		}
	}
	if n.next != nilOffset {
		next, err := t.readOverflow(n.next)
		if err != nil {
			return head, err
		}
		next.prev = n.prev
		next.isDirty = true
		if err := t.writeNode(next); err != nil {
			return head, err
		}
	}
	return head, t.releasePage(n.offset)
}
