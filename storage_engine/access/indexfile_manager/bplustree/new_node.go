package bplus

import (
	"fmt"

	"StrataDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// newNode reserves a page (from the free list when possible) for a node of
// the given kind. Nothing is written until writeNode.
func (t *BPlusTree) newNode(kind types.NodeKind) (*Node, error) {
	offset, err := t.allocatePage()
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %s page", kind)
	}
	return &Node{
		offset:  offset,
		kind:    kind,
		prev:    nilOffset,
		next:    nilOffset,
		isDirty: true,
	}, nil
}

func (t *BPlusTree) readNode(offset int64) (*Node, error) {
	if offset <= 0 {
		return nil, errors.Wrapf(ErrCorruptPage, "dangling page offset %d", offset)
	}
	data, err := t.pager.ReadPage(offset)
	if err != nil {
		return nil, errors.Wrapf(err, "read node at %d", offset)
	}
	return t.decodeNode(offset, data)
}

// writeNode validates and persists a dirty node. Writing a root node also
// points the header's root slot at it.
func (t *BPlusTree) writeNode(n *Node) error {
	if !n.isDirty {
		return nil
	}
	t.validateNode(n)
	if err := t.pager.WritePage(n.offset, t.encodeNode(n)); err != nil {
		return errors.Wrapf(err, "write %s node at %d", n.kind, n.offset)
	}
	n.isDirty = false

	if n.kind.IsRoot() && t.root != n.offset {
		t.logger.Debug("root moved", zap.Int64("from", t.root), zap.Int64("to", n.offset), zap.Stringer("kind", n.kind))
		t.root = n.offset
		return t.writeHeader()
	}
	return nil
}

// validateNode panics with an InvariantError when a node's entry count is
// outside its kind's capacity or its slices disagree with each other.
func (t *BPlusTree) validateNode(n *Node) {
	lo, hi := t.cfg.Capacity(n.kind)
	if hi < 0 {
		panic(&InvariantError{Offset: n.offset, Kind: n.kind, Detail: "unknown node kind"})
	}
	count := n.entries()
	if count < lo || count > hi {
		panic(&InvariantError{
			Offset: n.offset,
			Kind:   n.kind,
			Detail: fmt.Sprintf("%d entries outside [%d, %d]", count, lo, hi),
		})
	}
	switch {
	case n.kind.IsLeaf():
		if len(n.values) != count || len(n.overflow) != count {
			panic(&InvariantError{Offset: n.offset, Kind: n.kind, Detail: "keys, values and overflow heads differ in length"})
		}
	case n.kind.IsInternal():
		if len(n.children) != count+1 {
			panic(&InvariantError{Offset: n.offset, Kind: n.kind, Detail: fmt.Sprintf("%d keys but %d children", count, len(n.children))})
		}
	}
}

// underflows reports whether a non-root node dropped below its minimum.
func (t *BPlusTree) underflows(n *Node) bool {
	lo, _ := t.cfg.Capacity(n.kind)
	return n.entries() < lo
}

// canLend reports whether a sibling can give up one entry and stay legal.
func (t *BPlusTree) canLend(n *Node) bool {
	lo, _ := t.cfg.Capacity(n.kind)
	return n.entries() > lo
}
