package relation

import (
	"fmt"
	"math"
	"strings"

	"StrataDB/storage_engine/keycodec"
	"StrataDB/types"
)

func rowIDConfig(pageSize int) (*keycodec.Configuration, error) {
	return keycodec.NewConfiguration(pageSize, []types.ColumnType{types.Int64Type()}, nil, 8, true)
}

func keyConfig(meta *types.RelationMeta, columns []int, unique bool) (*keycodec.Configuration, error) {
	return keycodec.NewConfiguration(meta.PageSize, meta.ProjectTypes(columns), columns, 8, unique)
}

func (t *Table) columnList(columns []int) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = t.meta.ColumnNames[c]
	}
	return strings.Join(names, ",")
}

// prepareRow checks a row against the schema and returns it in storage
// form (nulls replaced by zero values, numbers converted to the column
// type) together with the null columns.
func (t *Table) prepareRow(row types.Row) (types.Row, []int, error) {
	if len(row) != t.meta.ColumnCount() {
		return nil, nil, constraint(ErrArityMismatch, "",
			fmt.Sprintf("got %d, want %d", len(row), t.meta.ColumnCount()))
	}
	out := make(types.Row, len(row))
	var nulls []int
	for i, v := range row {
		col := t.meta.ColumnTypes[i]
		if v.IsNull() {
			if !t.meta.IsNullable(i) {
				return nil, nil, constraint(ErrNullViolation, t.meta.ColumnNames[i], "")
			}
			out[i] = types.ZeroValue(col)
			nulls = append(nulls, i)
			continue
		}
		cv, err := coerce(col, v)
		if err != nil {
			return nil, nil, constraint(err, t.meta.ColumnNames[i], fmt.Sprintf("%s into %s", v, col))
		}
		out[i] = cv
	}
	return out, nulls, nil
}

// coerce converts v to the kind of col. Integers widen to any numeric
// column; int64 narrows to int32 only when it fits.
func coerce(col types.ColumnType, v types.Value) (types.Value, error) {
	isInt := v.Kind() == types.KindInt32 || v.Kind() == types.KindInt64
	isFloat := v.Kind() == types.KindFloat32 || v.Kind() == types.KindFloat64

	switch col.Kind {
	case types.KindInt32:
		if isInt && v.Int() >= math.MinInt32 && v.Int() <= math.MaxInt32 {
			return types.Int32Value(int32(v.Int())), nil
		}
	case types.KindInt64:
		if isInt {
			return types.Int64Value(v.Int()), nil
		}
	case types.KindFloat32:
		if isFloat {
			return types.Float32Value(float32(v.Float())), nil
		}
		if isInt {
			return types.Float32Value(float32(v.Int())), nil
		}
	case types.KindFloat64:
		if isFloat {
			return types.Float64Value(v.Float()), nil
		}
		if isInt {
			return types.Float64Value(float64(v.Int())), nil
		}
	case types.KindString:
		if v.Kind() == types.KindString {
			if len(v.Str()) > col.Size {
				return types.Null, ErrStringTooLong
			}
			return v, nil
		}
	}
	return types.Null, ErrTypeMismatch
}
