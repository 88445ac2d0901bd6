package relation

import (
	"slices"
	"strconv"
	"strings"

	"StrataDB/storage_engine/keycodec"
	"StrataDB/storage_engine/page"
	"StrataDB/types"

	"github.com/pkg/errors"
)

func fmtRowID(id int64) string { return "row " + strconv.FormatInt(id, 10) }

// Lookup returns, in ascending order, the IDs of the rows whose columns
// equal key. The column list must match a superkey or an index exactly;
// superkeys are tried first.
func (t *Table) Lookup(columns []string, key types.Key) ([]int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, ErrClosed
	}
	if len(columns) != len(key) {
		return nil, constraint(ErrArityMismatch, "", "key does not match column list")
	}
	cols := make([]int, len(columns))
	for i, name := range columns {
		if cols[i] = t.meta.ColumnIndex(name); cols[i] < 0 {
			return nil, constraint(ErrTypeMismatch, name, "no such column")
		}
	}
	kt, ok := t.treeFor(cols)
	if !ok {
		return nil, errors.Wrapf(ErrNoIndex, "(%s)", t.columnList(cols))
	}

	probe := make(types.Key, len(key))
	for i, v := range key {
		cv, err := coerce(t.meta.ColumnTypes[cols[i]], v)
		if err != nil {
			return nil, constraint(err, columns[i], v.String())
		}
		probe[i] = cv
	}
	enc, err := kt.tree.Configuration().Encode(probe)
	if err != nil {
		return nil, err
	}
	values, err := kt.tree.Search(enc)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id := page.DecodeInt64(v)
		// null columns are stored as zero values and must not match
		isNull, err := t.anyNull(id, cols)
		if err != nil {
			return nil, err
		}
		if !isNull {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (t *Table) treeFor(cols []int) (keyTree, bool) {
	for _, kt := range t.superKeys {
		if slices.Equal(kt.columns, cols) {
			return kt, true
		}
	}
	for _, kt := range t.indices {
		if slices.Equal(kt.columns, cols) {
			return kt, true
		}
	}
	return keyTree{}, false
}

func (t *Table) anyNull(rowID int64, cols []int) (bool, error) {
	id := page.EncodeInt64(rowID)
	for _, nt := range t.nulls {
		if !slices.Contains(cols, nt.column) {
			continue
		}
		isNull, err := nt.tree.Contains(id)
		if err != nil || isNull {
			return isNull, err
		}
	}
	return false, nil
}

// Where builds a SearchRows predicate comparing one column against v. A null
// column only matches OpEQ against Null, and OpNE against anything else.
func (t *Table) Where(column string, op keycodec.Op, v types.Value) (func(types.Record) bool, error) {
	col := t.meta.ColumnIndex(column)
	if col < 0 {
		return nil, constraint(ErrTypeMismatch, column, "no such column")
	}
	if v.IsNull() {
		if op != keycodec.OpEQ && op != keycodec.OpNE {
			return nil, constraint(ErrTypeMismatch, column, "null only compares with = and !=")
		}
		return func(r types.Record) bool {
			return r.Row[col].IsNull() == (op == keycodec.OpEQ)
		}, nil
	}

	cv, err := coerce(t.meta.ColumnTypes[col], v)
	if errors.Is(err, ErrStringTooLong) {
		// no stored value can be this long, but ordering still applies
		cv, err = v, nil
	}
	if err != nil {
		return nil, constraint(err, column, v.String())
	}
	if cv.Kind() == types.KindString {
		cv = types.StringValue(strings.TrimRight(cv.Str(), " "))
	}
	return func(r types.Record) bool {
		x := r.Row[col]
		if x.IsNull() {
			return op == keycodec.OpNE
		}
		return keycodec.CompareValue(x, cv, op)
	}, nil
}
