package bplus

import (
	"StrataDB/storage_engine/keycodec"
	"StrataDB/storage_engine/page"
	"StrataDB/types"

	"github.com/pkg/errors"
)

/*
Node page layouts (big-endian, every page starts with tag u16, count u16):

	LEAF / ROOT-LEAF         prev i64, next i64, count x (key, value, overflow head i64)
	INTERNAL / ROOT-INTERNAL child0 i64, count x (key, child i64)
	LEAF-OVERFLOW            prev i64, next i64, count x value
	FREE-POOL                next i64, count x page offset i64
*/

func (t *BPlusTree) encodeNode(n *Node) []byte {
	p := page.New(n.offset, t.cfg.PageSize)
	k, v := t.cfg.KeySize(), t.cfg.ValueSize
	p.PutUint16(0, uint16(n.kind))

	switch {
	case n.kind.IsLeaf():
		p.PutUint16(2, uint16(len(n.keys)))
		p.PutInt64(4, n.prev)
		p.PutInt64(12, n.next)
		at := keycodec.LeafHeaderSize
		for i := range n.keys {
			p.PutBytes(at, n.keys[i])
			p.PutBytes(at+k, n.values[i])
			p.PutInt64(at+k+v, n.overflow[i])
			at += k + v + keycodec.PointerSize
		}
	case n.kind.IsInternal():
		p.PutUint16(2, uint16(len(n.keys)))
		p.PutInt64(4, n.children[0])
		at := keycodec.InternalHeaderSize
		for i := range n.keys {
			p.PutBytes(at, n.keys[i])
			p.PutInt64(at+k, n.children[i+1])
			at += k + keycodec.PointerSize
		}
	case n.kind == types.NodeLeafOverflow:
		p.PutUint16(2, uint16(len(n.values)))
		p.PutInt64(4, n.prev)
		p.PutInt64(12, n.next)
		at := keycodec.OverflowHeaderSize
		for _, val := range n.values {
			p.PutBytes(at, val)
			at += v
		}
	case n.kind == types.NodeFreePool:
		p.PutUint16(2, uint16(len(n.free)))
		p.PutInt64(4, n.next)
		at := keycodec.FreePoolHeaderSize
		for _, off := range n.free {
			p.PutInt64(at, off)
			at += keycodec.PointerSize
		}
	}
	return p.Data
}

func (t *BPlusTree) decodeNode(offset int64, data []byte) (*Node, error) {
	p := page.Wrap(offset, data)
	k, v := t.cfg.KeySize(), t.cfg.ValueSize
	n := &Node{
		offset: offset,
		kind:   types.NodeKind(p.Uint16(0)),
		prev:   nilOffset,
		next:   nilOffset,
	}
	count := int(p.Uint16(2))
	if _, hi := t.cfg.Capacity(n.kind); count > hi {
		return nil, errors.Wrapf(ErrCorruptPage, "page %d: tag %d with %d entries", offset, n.kind, count)
	}

	switch {
	case n.kind.IsLeaf():
		n.prev = p.Int64(4)
		n.next = p.Int64(12)
		n.keys = make([][]byte, count)
		n.values = make([][]byte, count)
		n.overflow = make([]int64, count)
		at := keycodec.LeafHeaderSize
		for i := 0; i < count; i++ {
			n.keys[i] = p.Bytes(at, k)
			n.values[i] = p.Bytes(at+k, v)
			n.overflow[i] = p.Int64(at + k + v)
			at += k + v + keycodec.PointerSize
		}
	case n.kind.IsInternal():
		n.keys = make([][]byte, count)
		n.children = make([]int64, count+1)
		n.children[0] = p.Int64(4)
		at := keycodec.InternalHeaderSize
		for i := 0; i < count; i++ {
			n.keys[i] = p.Bytes(at, k)
			n.children[i+1] = p.Int64(at + k)
			at += k + keycodec.PointerSize
		}
	case n.kind == types.NodeLeafOverflow:
		n.prev = p.Int64(4)
		n.next = p.Int64(12)
		n.values = make([][]byte, count)
		at := keycodec.OverflowHeaderSize
		for i := 0; i < count; i++ {
			n.values[i] = p.Bytes(at, v)
			at += v
		}
	case n.kind == types.NodeFreePool:
		n.next = p.Int64(4)
		n.free = make([]int64, count)
		at := keycodec.FreePoolHeaderSize
		for i := 0; i < count; i++ {
			n.free[i] = p.Int64(at)
			at += keycodec.PointerSize
		}
	}
	return n, nil
}

// entries is the count stored in the node's header.
func (n *Node) entries() int {
	switch {
	case n.kind.IsLeaf(), n.kind.IsInternal():
		return len(n.keys)
	case n.kind == types.NodeLeafOverflow:
		return len(n.values)
	case n.kind == types.NodeFreePool:
		return len(n.free)
	}
	return 0
}
