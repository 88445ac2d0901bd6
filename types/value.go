package types

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ColumnKind is the closed set of storable column types. The zero kind is
// only ever carried by a null Value.
type ColumnKind uint8

const (
	KindNull ColumnKind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
)

var ErrUnknownColumnType = errors.New("unknown column type")

func (k ColumnKind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	}
	return "null"
}

// ColumnType is a kind plus its declared byte width. Size only matters for
// strings; fixed-width kinds report their own width.
type ColumnType struct {
	Kind ColumnKind
	Size int
}

func Int32Type() ColumnType       { return ColumnType{Kind: KindInt32, Size: 4} }
func Int64Type() ColumnType       { return ColumnType{Kind: KindInt64, Size: 8} }
func Float32Type() ColumnType     { return ColumnType{Kind: KindFloat32, Size: 4} }
func Float64Type() ColumnType     { return ColumnType{Kind: KindFloat64, Size: 8} }
func StringType(n int) ColumnType { return ColumnType{Kind: KindString, Size: n} }

// Width is the number of bytes the column occupies in an encoded key.
func (c ColumnType) Width() int {
	switch c.Kind {
	case KindInt32, KindFloat32:
		return 4
	case KindInt64, KindFloat64:
		return 8
	case KindString:
		return c.Size
	}
	return 0
}

func (c ColumnType) Valid() bool {
	switch c.Kind {
	case KindInt32, KindInt64, KindFloat32, KindFloat64:
		return true
	case KindString:
		return c.Size > 0
	}
	return false
}

func (c ColumnType) String() string {
	if c.Kind == KindString {
		return fmt.Sprintf("string(%d)", c.Size)
	}
	return c.Kind.String()
}

// ParseColumnType accepts the canonical names plus the int/long/float/double
// aliases used by relation schemas.
func ParseColumnType(s string) (ColumnType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "int", "int32", "integer":
		return Int32Type(), nil
	case "long", "int64", "bigint":
		return Int64Type(), nil
	case "float", "float32", "real":
		return Float32Type(), nil
	case "double", "float64":
		return Float64Type(), nil
	}
	for _, prefix := range []string{"string(", "varchar(", "char("} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ")") {
			n, err := strconv.Atoi(s[len(prefix) : len(s)-1])
			if err != nil || n <= 0 {
				return ColumnType{}, errors.Wrapf(ErrUnknownColumnType, "bad string width in %q", s)
			}
			return StringType(n), nil
		}
	}
	return ColumnType{}, errors.Wrapf(ErrUnknownColumnType, "%q", s)
}

func (c ColumnType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.Wrapf(ErrUnknownColumnType, "kind %d size %d", c.Kind, c.Size)
	}
	return []byte(c.String()), nil
}

func (c *ColumnType) UnmarshalText(b []byte) error {
	ct, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// Value is one column of a row or key. The zero Value is null.
type Value struct {
	kind ColumnKind
	i    int64
	f    float64
	s    string
}

var Null = Value{}

func Int32Value(v int32) Value     { return Value{kind: KindInt32, i: int64(v)} }
func Int64Value(v int64) Value     { return Value{kind: KindInt64, i: v} }
func Float32Value(v float32) Value { return Value{kind: KindFloat32, f: float64(v)} }
func Float64Value(v float64) Value { return Value{kind: KindFloat64, f: v} }
func StringValue(s string) Value   { return Value{kind: KindString, s: s} }

// ZeroValue is what a nullable column stores on disk when the row holds null.
func ZeroValue(c ColumnType) Value {
	switch c.Kind {
	case KindInt32:
		return Int32Value(0)
	case KindInt64:
		return Int64Value(0)
	case KindFloat32:
		return Float32Value(0)
	case KindFloat64:
		return Float64Value(0)
	case KindString:
		return StringValue("")
	}
	return Null
}

func (v Value) Kind() ColumnKind { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) Int() int64       { return v.i }
func (v Value) Float() float64   { return v.f }
func (v Value) Str() string      { return v.s }

func (v Value) String() string {
	switch v.kind {
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	}
	return "NULL"
}

// Compare orders two values of the same kind by their native ordering.
// Null sorts before everything; values of different kinds order by kind.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return cmp.Compare(v.kind, o.kind)
	}
	switch v.kind {
	case KindInt32, KindInt64:
		return cmp.Compare(v.i, o.i)
	case KindFloat32, KindFloat64:
		return cmp.Compare(v.f, o.f)
	case KindString:
		return strings.Compare(v.s, o.s)
	}
	return 0
}

// Key is an ordered composite of column values.
type Key []Value

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
