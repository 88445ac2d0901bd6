package types

import "strings"

// Row holds one value per relation column, in schema order.
type Row []Value

// Record is a row together with the row ID it is stored under.
type Record struct {
	RowID int64
	Row   Row
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Project picks the given columns, in the given order.
func (r Row) Project(columns []int) Key {
	out := make(Key, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// TrimPadding strips the space padding strings pick up on disk.
func (r Row) TrimPadding() {
	for i, v := range r {
		if v.kind == KindString {
			r[i] = StringValue(strings.TrimRight(v.s, " "))
		}
	}
}

func (r Row) String() string {
	return Key(r).String()
}
