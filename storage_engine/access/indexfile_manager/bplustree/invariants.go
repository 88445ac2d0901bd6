package bplus

import (
	"bytes"
	"fmt"

	"StrataDB/types"

	"github.com/pkg/errors"
)

// CheckInvariants walks the whole file and reports the first structural
// problem it finds:
//
//   - every node's entry count is within its kind's capacity
//   - only the root carries a root tag, and the header points at it
//   - keys are strictly ascending and inside their parent's separator range
//   - all leaves sit at the same depth and the prev/next chain visits them in order
//   - overflow chains are well linked and non-empty
//   - the element count matches the stored pairs
//   - every page is exactly one of: header, reachable node, free page
func (t *BPlusTree) CheckInvariants() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c := &checker{t: t, owner: make(map[int64]string), leafDepth: -1}
	c.owner[0] = "header"
	if err := c.node(t.root, nil, nil, 0, true); err != nil {
		return err
	}
	if err := c.leafChain(); err != nil {
		return err
	}
	if c.pairs != t.count {
		return errors.Errorf("element count %d, but %d pairs are stored", t.count, c.pairs)
	}

	free, err := t.freePages()
	if err != nil {
		return err
	}
	for _, off := range free {
		if what, ok := c.owner[off]; ok {
			return errors.Errorf("free page %d is also %s", off, what)
		}
		c.owner[off] = "free"
	}
	pageSize := int64(t.cfg.PageSize)
	numPages := t.pager.NumPages()
	for p := int64(0); p < numPages; p++ {
		if _, ok := c.owner[p*pageSize]; !ok {
			return errors.Errorf("page %d is neither reachable nor free", p*pageSize)
		}
	}
	if int64(len(c.owner)) != numPages {
		return errors.Errorf("%d pages accounted for, file has %d", len(c.owner), numPages)
	}
	return nil
}

type checker struct {
	t         *BPlusTree
	owner     map[int64]string
	leaves    []int64
	leafDepth int
	pairs     int64
}

func (c *checker) claim(off int64, what string) error {
	if off <= 0 || off%int64(c.t.cfg.PageSize) != 0 {
		return errors.Errorf("%s has bad offset %d", what, off)
	}
	if prev, ok := c.owner[off]; ok {
		return errors.Errorf("page %d is both %s and %s", off, prev, what)
	}
	c.owner[off] = what
	return nil
}

// node checks the subtree at off; its keys must lie in [lo, hi).
func (c *checker) node(off int64, lo, hi []byte, depth int, isRoot bool) error {
	t := c.t
	if err := c.claim(off, "node"); err != nil {
		return err
	}
	n, err := t.readNode(off)
	if err != nil {
		return err
	}
	if n.kind.IsRoot() != isRoot {
		return errors.Errorf("page %d: %s tag at root=%t", off, n.kind, isRoot)
	}
	if isRoot && off != t.root {
		return errors.Errorf("header root %d, root node at %d", t.root, off)
	}
	if !n.kind.IsLeaf() && !n.kind.IsInternal() {
		return errors.Errorf("page %d: %s reachable as a tree node", off, n.kind)
	}
	if err := c.capacity(n); err != nil {
		return err
	}
	for i, k := range n.keys {
		if i > 0 && t.cmp(n.keys[i-1], k) >= 0 {
			return errors.Errorf("page %d: keys not strictly ascending at %d", off, i)
		}
		if lo != nil && t.cmp(k, lo) < 0 {
			return errors.Errorf("page %d: key %s below separator %s", off, t.cfg.FormatEncoded(k), t.cfg.FormatEncoded(lo))
		}
		if hi != nil && t.cmp(k, hi) >= 0 {
			return errors.Errorf("page %d: key %s not below separator %s", off, t.cfg.FormatEncoded(k), t.cfg.FormatEncoded(hi))
		}
	}

	if n.kind.IsLeaf() {
		if c.leafDepth < 0 {
			c.leafDepth = depth
		} else if c.leafDepth != depth {
			return errors.Errorf("leaf %d at depth %d, others at %d", off, depth, c.leafDepth)
		}
		c.leaves = append(c.leaves, off)
		c.pairs += int64(len(n.keys))
		for i, head := range n.overflow {
			if head == nilOffset {
				continue
			}
			if t.cfg.Unique {
				return errors.Errorf("leaf %d: overflow chain in a unique tree", off)
			}
			if err := c.overflowChain(head, fmt.Sprintf("leaf %d entry %d", off, i)); err != nil {
				return err
			}
		}
		return nil
	}

	for i, child := range n.children {
		clo, chi := lo, hi
		if i > 0 {
			clo = n.keys[i-1]
		}
		if i < len(n.keys) {
			chi = n.keys[i]
		}
		if err := c.node(child, clo, chi, depth+1, false); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) capacity(n *Node) error {
	lo, hi := c.t.cfg.Capacity(n.kind)
	if e := n.entries(); e < lo || e > hi {
		return errors.Errorf("page %d (%s): %d entries outside [%d, %d]", n.offset, n.kind, e, lo, hi)
	}
	return nil
}

func (c *checker) overflowChain(head int64, owner string) error {
	prev := int64(nilOffset)
	for off := head; off != nilOffset; {
		if err := c.claim(off, "overflow of "+owner); err != nil {
			return err
		}
		n, err := c.t.readNode(off)
		if err != nil {
			return err
		}
		if n.kind != types.NodeLeafOverflow {
			return errors.Errorf("page %d in overflow chain of %s is %s", off, owner, n.kind)
		}
		if err := c.capacity(n); err != nil {
			return err
		}
		if n.prev != prev {
			return errors.Errorf("overflow page %d: prev %d, expected %d", off, n.prev, prev)
		}
		c.pairs += int64(len(n.values))
		prev, off = off, n.next
	}
	return nil
}

// leafChain follows prev/next from the leftmost leaf and compares the walk
// with the leaves found top-down.
func (c *checker) leafChain() error {
	if len(c.leaves) == 0 {
		return errors.New("tree has no leaves")
	}
	prev := int64(nilOffset)
	var prevLast []byte
	off := c.leaves[0]
	for i := 0; ; i++ {
		if i >= len(c.leaves) {
			return errors.Errorf("leaf chain runs past the %d known leaves", len(c.leaves))
		}
		if off != c.leaves[i] {
			return errors.Errorf("leaf chain visits %d, expected %d", off, c.leaves[i])
		}
		n, err := c.t.readNode(off)
		if err != nil {
			return err
		}
		if n.prev != prev {
			return errors.Errorf("leaf %d: prev %d, expected %d", off, n.prev, prev)
		}
		if len(n.keys) > 0 {
			if prevLast != nil && bytes.Compare(prevLast, n.keys[0]) == 0 {
				return errors.Errorf("leaf %d repeats key of previous leaf", off)
			}
			if prevLast != nil && c.t.cmp(prevLast, n.keys[0]) > 0 {
				return errors.Errorf("leaf %d starts below previous leaf", off)
			}
			prevLast = n.keys[len(n.keys)-1]
		}
		if n.next == nilOffset {
			if i != len(c.leaves)-1 {
				return errors.Errorf("leaf chain stops after %d of %d leaves", i+1, len(c.leaves))
			}
			return nil
		}
		prev, off = off, n.next
	}
}
