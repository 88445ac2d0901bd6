package keycodec

import "StrataDB/types"

// Op is a comparison operator usable in predicates.
type Op uint8

const (
	OpLT Op = iota
	OpLE
	OpEQ
	OpNE
	OpGT
	OpGE
)

func (op Op) String() string {
	switch op {
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	}
	return "?"
}

// Compare orders two keys column-wise; the first differing column decides.
// A shorter key that is a prefix of the longer one sorts first.
func Compare(a, b types.Key) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if r := a[i].Compare(b[i]); r != 0 {
			return r
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func CompareOp(a, b types.Key, op Op) bool {
	return apply(Compare(a, b), op)
}

// CompareValue applies op to a single pair of values.
func CompareValue(a, b types.Value, op Op) bool {
	return apply(a.Compare(b), op)
}

func apply(r int, op Op) bool {
	switch op {
	case OpLT:
		return r < 0
	case OpLE:
		return r <= 0
	case OpEQ:
		return r == 0
	case OpNE:
		return r != 0
	case OpGT:
		return r > 0
	case OpGE:
		return r >= 0
	}
	return false
}
