package bplus

import (
	"fmt"

	"StrataDB/types"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateKey   = errors.New("key already exists")
	ErrKeyNotFound    = errors.New("key not found")
	ErrConfigMismatch = errors.New("tree file does not match configuration")
	ErrBadHeader      = errors.New("not a tree file")
	ErrCorruptPage    = errors.New("corrupt tree page")
	ErrClosed         = errors.New("tree is closed")
	ErrBadEntry       = errors.New("key or value has the wrong width")
)

// InvariantError reports a node whose shape breaks the tree's capacity rules.
// It is raised with panic: it means the engine itself is broken, and no
// caller can recover a consistent tree from it.
type InvariantError struct {
	Offset int64
	Kind   types.NodeKind
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tree invariant violated at page %d (%s): %s", e.Offset, e.Kind, e.Detail)
}
