package types

const (
	DefaultPageSize = 4096 // tree page size when a relation does not pick one
	NilPointer      = -1   // absent page offset / sibling / overflow chain
)

// NodeKind is the 2-byte tag at the start of every B+ tree page.
type NodeKind uint16

const (
	NodeUnknown NodeKind = iota
	NodeLeaf
	NodeInternal
	NodeRootInternal
	NodeRootLeaf
	NodeLeafOverflow
	NodeFreePool
)

func (k NodeKind) String() string {
	switch k {
	case NodeLeaf:
		return "LEAF"
	case NodeInternal:
		return "INTERNAL"
	case NodeRootInternal:
		return "ROOT-INTERNAL"
	case NodeRootLeaf:
		return "ROOT-LEAF"
	case NodeLeafOverflow:
		return "LEAF-OVERFLOW"
	case NodeFreePool:
		return "FREE-POOL"
	}
	return "UNKNOWN"
}

func (k NodeKind) IsLeaf() bool {
	return k == NodeLeaf || k == NodeRootLeaf
}

func (k NodeKind) IsInternal() bool {
	return k == NodeInternal || k == NodeRootInternal
}

func (k NodeKind) IsRoot() bool {
	return k == NodeRootLeaf || k == NodeRootInternal
}

// AsRoot returns the root variant of a leaf/internal kind, AsChild the inverse.
func (k NodeKind) AsRoot() NodeKind {
	switch k {
	case NodeLeaf:
		return NodeRootLeaf
	case NodeInternal:
		return NodeRootInternal
	}
	return k
}

func (k NodeKind) AsChild() NodeKind {
	switch k {
	case NodeRootLeaf:
		return NodeLeaf
	case NodeRootInternal:
		return NodeInternal
	}
	return k
}
