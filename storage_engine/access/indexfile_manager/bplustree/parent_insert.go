package bplus

// insertIntoParent places a child's separator and new right sibling into
// the parent at the child's position idx, splitting the parent in turn
// when it overflows.
func (t *BPlusTree) insertIntoParent(parent *Node, idx int, split *splitResult) (*splitResult, error) {
	parent.keys = insert(parent.keys, idx, split.key)
	parent.children = insert(parent.children, idx+1, split.right)
	parent.isDirty = true

	if len(parent.keys) <= t.cfg.MaxInternalKeys() {
		return nil, t.writeNode(parent)
	}
	return t.splitInternal(parent)
}
