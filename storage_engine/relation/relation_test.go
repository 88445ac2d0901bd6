package relation

import (
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"StrataDB/storage_engine/catalog"
	"StrataDB/storage_engine/keycodec"
	"StrataDB/types"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
)

func testMeta() types.RelationMeta {
	return types.RelationMeta{
		Name:        "people",
		ColumnNames: []string{"a", "b", "c"},
		ColumnTypes: []types.ColumnType{types.Int32Type(), types.Float64Type(), types.StringType(5)},
		Nullable:    []int{2},
		SuperKeys:   [][]int{{0}},
		Indices:     [][]int{{1}},
	}
}

func testOptions(t *testing.T) Options {
	opts := DefaultOptions
	opts.Logger = zaptest.NewLogger(t)
	return opts
}

func newTestTable(t *testing.T) (*Table, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "people")
	tbl, err := Create(dir, testMeta(), testOptions(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return tbl, dir
}

func row(a int32, b float64, c string) types.Row {
	return types.Row{types.Int32Value(a), types.Float64Value(b), types.StringValue(c)}
}

func sameRow(a, b types.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind() != b[i].Kind() || a[i].Compare(b[i]) != 0 {
			return false
		}
	}
	return true
}

func insertHundred(t *testing.T, tbl *Table) {
	t.Helper()
	for i := 0; i < 100; i++ {
		id, err := tbl.Insert(row(int32(i), float64(i), "you"))
		if err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
		if id != int64(i) {
			t.Fatalf("Insert(%d) got row ID %d", i, id)
		}
	}
}

func TestInsertAndSearchScenario(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()

	insertHundred(t, tbl)
	if tbl.Len() != 100 {
		t.Fatalf("Len = %d, want 100", tbl.Len())
	}

	pred, err := tbl.Where("a", keycodec.OpEQ, types.Int32Value(50))
	if err != nil {
		t.Fatalf("Where: %v", err)
	}
	recs, err := tbl.SearchRows(pred)
	if err != nil {
		t.Fatalf("SearchRows: %v", err)
	}
	if len(recs) != 1 || !sameRow(recs[0].Row, row(50, 50, "you")) {
		t.Fatalf("SearchRows(a = 50) = %v", recs)
	}

	_, err = tbl.Insert(row(50, 7, "dup"))
	var cerr *ConstraintError
	if !errors.As(err, &cerr) || !errors.Is(err, ErrDuplicateValue) {
		t.Fatalf("duplicate insert = %v, want ErrDuplicateValue", err)
	}
	if cerr.Column != "a" {
		t.Fatalf("duplicate reported on %q", cerr.Column)
	}
	if tbl.Len() != 100 {
		t.Fatalf("Len after rejected insert = %d", tbl.Len())
	}
}

func TestDeleteAndResumeScenario(t *testing.T) {
	tbl, dir := newTestTable(t)
	insertHundred(t, tbl)
	id := tbl.Meta().ID

	for i := 0; i < 90; i++ {
		if err := tbl.Delete(int64(i)); err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
	}
	if tbl.Len() != 10 {
		t.Fatalf("Len = %d, want 10", tbl.Len())
	}
	before, err := tbl.SearchRows(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tbl, err = Resume(dir, testOptions(t))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	defer tbl.Close()

	if tbl.Meta().ID != id {
		t.Fatalf("relation id changed across resume")
	}
	if tbl.Len() != 10 {
		t.Fatalf("Len after resume = %d, want 10", tbl.Len())
	}
	after, err := tbl.SearchRows(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("rows after resume = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i].RowID != before[i].RowID || !sameRow(after[i].Row, before[i].Row) {
			t.Fatalf("row %d: %v -> %v", i, before[i], after[i])
		}
	}

	// row IDs keep counting from where they stopped
	newID, err := tbl.Insert(row(200, 2, "new"))
	if err != nil {
		t.Fatal(err)
	}
	if newID != 100 {
		t.Fatalf("row ID after resume = %d, want 100", newID)
	}
	// freed superkeys are free again
	if _, err := tbl.Insert(row(5, 5, "again")); err != nil {
		t.Fatalf("reinsert deleted key: %v", err)
	}
}

func TestConstraintErrors(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()

	cases := []struct {
		name string
		row  types.Row
		want error
	}{
		{"arity", types.Row{types.Int32Value(1)}, ErrArityMismatch},
		{"null in not-null column", types.Row{types.Null, types.Float64Value(1), types.StringValue("x")}, ErrNullViolation},
		{"string in int column", types.Row{types.StringValue("1"), types.Float64Value(1), types.StringValue("x")}, ErrTypeMismatch},
		{"int64 out of int32 range", types.Row{types.Int64Value(1 << 40), types.Float64Value(1), types.StringValue("x")}, ErrTypeMismatch},
		{"string too long", row(1, 1, "toolong"), ErrStringTooLong},
	}
	for _, c := range cases {
		_, err := tbl.Insert(c.row)
		if !errors.Is(err, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.want)
		}
		var cerr *ConstraintError
		if !errors.As(err, &cerr) {
			t.Errorf("%s: %T is not a ConstraintError", c.name, err)
		}
	}
	if tbl.Len() != 0 || tbl.Meta().NextRowID != 0 {
		t.Fatalf("rejected rows changed state: len=%d next=%d", tbl.Len(), tbl.Meta().NextRowID)
	}

	if err := tbl.Delete(12); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("Delete(missing) = %v", err)
	}
	if err := tbl.Update(12, row(1, 1, "x")); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("Update(missing) = %v", err)
	}
}

func TestNumericValuesAreConverted(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()

	id, err := tbl.Insert(types.Row{types.Int64Value(7), types.Int32Value(3), types.StringValue("x")})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	recs, _ := tbl.ReadRows([]int64{id})
	if len(recs) != 1 || !sameRow(recs[0].Row, row(7, 3, "x")) {
		t.Fatalf("ReadRows = %v", recs)
	}
}

func TestNullOverlay(t *testing.T) {
	tbl, dir := newTestTable(t)

	withNull, err := tbl.Insert(types.Row{types.Int32Value(1), types.Float64Value(1), types.Null})
	if err != nil {
		t.Fatalf("Insert null: %v", err)
	}
	// the empty string is stored the same way as a null, the marker tells them apart
	empty, err := tbl.Insert(row(2, 1, ""))
	if err != nil {
		t.Fatal(err)
	}

	check := func(tbl *Table) {
		t.Helper()
		recs, err := tbl.ReadRows([]int64{withNull, empty, 99})
		if err != nil {
			t.Fatalf("ReadRows: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("ReadRows = %d records, want 2", len(recs))
		}
		if !recs[0].Row[2].IsNull() {
			t.Fatalf("row %d column c = %v, want null", withNull, recs[0].Row[2])
		}
		if recs[1].Row[2].IsNull() || recs[1].Row[2].Str() != "" {
			t.Fatalf("row %d column c = %v, want empty string", empty, recs[1].Row[2])
		}

		isNull, _ := tbl.Where("c", keycodec.OpEQ, types.Null)
		recs, _ = tbl.SearchRows(isNull)
		if len(recs) != 1 || recs[0].RowID != withNull {
			t.Fatalf("c = null matched %v", recs)
		}
		notEmpty, _ := tbl.Where("c", keycodec.OpNE, types.StringValue(""))
		recs, _ = tbl.SearchRows(notEmpty)
		if len(recs) != 1 || recs[0].RowID != withNull {
			t.Fatalf("c != '' matched %v", recs)
		}
	}
	check(tbl)
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}
	tbl, err = Resume(dir, testOptions(t))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	defer tbl.Close()
	check(tbl)

	// clearing the null moves the row out of the null tree
	if err := tbl.Update(withNull, row(1, 1, "set")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	isNull, _ := tbl.Where("c", keycodec.OpEQ, types.Null)
	recs, _ := tbl.SearchRows(isNull)
	if len(recs) != 0 {
		t.Fatalf("null rows after update = %v", recs)
	}
	if err := tbl.Delete(withNull); err != nil {
		t.Fatal(err)
	}
}

func TestLookup(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()

	// b repeats every 10 rows, so the index tree chains values
	for i := 0; i < 50; i++ {
		if _, err := tbl.Insert(row(int32(i), float64(i%10), "x")); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := tbl.Lookup([]string{"a"}, types.Key{types.Int32Value(17)})
	if err != nil {
		t.Fatalf("Lookup(a): %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{17}) {
		t.Fatalf("Lookup(a = 17) = %v", ids)
	}

	ids, err = tbl.Lookup([]string{"b"}, types.Key{types.Float64Value(3)})
	if err != nil {
		t.Fatalf("Lookup(b): %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{3, 13, 23, 33, 43}) {
		t.Fatalf("Lookup(b = 3) = %v", ids)
	}

	if err := tbl.Delete(23); err != nil {
		t.Fatal(err)
	}
	ids, _ = tbl.Lookup([]string{"b"}, types.Key{types.Float64Value(3)})
	if !reflect.DeepEqual(ids, []int64{3, 13, 33, 43}) {
		t.Fatalf("Lookup(b = 3) after delete = %v", ids)
	}

	ids, _ = tbl.Lookup([]string{"a"}, types.Key{types.Int32Value(1000)})
	if len(ids) != 0 {
		t.Fatalf("Lookup(a = 1000) = %v", ids)
	}
	if _, err := tbl.Lookup([]string{"c"}, types.Key{types.StringValue("x")}); !errors.Is(err, ErrNoIndex) {
		t.Fatalf("Lookup(c) = %v, want ErrNoIndex", err)
	}
}

func TestUpdateMovesKeys(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()

	for i := 0; i < 3; i++ {
		if _, err := tbl.Insert(row(int32(i), float64(i), "x")); err != nil {
			t.Fatal(err)
		}
	}
	if err := tbl.Update(1, row(2, 9, "y")); !errors.Is(err, ErrDuplicateValue) {
		t.Fatalf("Update onto taken key = %v", err)
	}
	// keeping the same superkey is not a duplicate
	if err := tbl.Update(1, row(1, 9, "y")); err != nil {
		t.Fatalf("Update same key: %v", err)
	}
	if err := tbl.Update(1, row(10, 9, "z")); err != nil {
		t.Fatalf("Update new key: %v", err)
	}

	if ids, _ := tbl.Lookup([]string{"a"}, types.Key{types.Int32Value(1)}); len(ids) != 0 {
		t.Fatalf("old key still found: %v", ids)
	}
	ids, _ := tbl.Lookup([]string{"a"}, types.Key{types.Int32Value(10)})
	if !reflect.DeepEqual(ids, []int64{1}) {
		t.Fatalf("new key = %v", ids)
	}
	ids, _ = tbl.Lookup([]string{"b"}, types.Key{types.Float64Value(9)})
	if !reflect.DeepEqual(ids, []int64{1}) {
		t.Fatalf("index after update = %v", ids)
	}
	recs, _ := tbl.ReadRows([]int64{1})
	if len(recs) != 1 || !sameRow(recs[0].Row, row(10, 9, "z")) {
		t.Fatalf("ReadRows(1) = %v", recs)
	}
	if _, err := tbl.Insert(row(1, 0, "w")); err != nil {
		t.Fatalf("freed key not reusable: %v", err)
	}
}

func TestWhereOperators(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()
	insertHundred(t, tbl)

	cases := []struct {
		col  string
		op   keycodec.Op
		v    types.Value
		want int
	}{
		{"a", keycodec.OpLT, types.Int32Value(10), 10},
		{"a", keycodec.OpLE, types.Int32Value(10), 11},
		{"a", keycodec.OpGT, types.Int64Value(89), 10},
		{"b", keycodec.OpGE, types.Int32Value(95), 5},
		{"a", keycodec.OpNE, types.Int32Value(3), 99},
		{"c", keycodec.OpEQ, types.StringValue("you"), 100},
		{"c", keycodec.OpEQ, types.StringValue("you  "), 100},
		{"c", keycodec.OpLT, types.StringValue("zzzzzzzz"), 100},
	}
	for _, c := range cases {
		pred, err := tbl.Where(c.col, c.op, c.v)
		if err != nil {
			t.Fatalf("Where(%s %s %s): %v", c.col, c.op, c.v, err)
		}
		recs, err := tbl.SearchRows(pred)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != c.want {
			t.Errorf("%s %s %s matched %d rows, want %d", c.col, c.op, c.v, len(recs), c.want)
		}
	}
	if _, err := tbl.Where("zz", keycodec.OpEQ, types.Int32Value(1)); err == nil {
		t.Error("Where on unknown column succeeded")
	}
	if _, err := tbl.Where("a", keycodec.OpLT, types.Null); err == nil {
		t.Error("Where a < null succeeded")
	}
}

func TestResumeDetectsMismatchedTrees(t *testing.T) {
	tbl, dir := newTestTable(t)
	insertHundred(t, tbl)
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}

	// replace the index with an empty tree of the same shape
	meta := testMeta()
	meta.PageSize = types.DefaultPageSize
	other, err := Create(filepath.Join(t.TempDir(), "other"), meta, testOptions(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Close(); err != nil {
		t.Fatal(err)
	}
	copyFile(t, filepath.Join(other.Dir(), "index_0.idx"), filepath.Join(dir, "index_0.idx"))

	if _, err := Resume(dir, testOptions(t)); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("Resume = %v, want ErrInconsistent", err)
	}
}

func TestResumeAdvancesStaleNextRowID(t *testing.T) {
	tbl, dir := newTestTable(t)
	for i := 0; i < 10; i++ {
		if _, err := tbl.Insert(row(int32(i), float64(i), "x")); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}

	// meta.json as it was before the last inserts reached it
	meta, err := catalog.ReadMeta(dir)
	if err != nil {
		t.Fatal(err)
	}
	meta.NextRowID = 3
	if err := catalog.WriteMeta(dir, meta); err != nil {
		t.Fatal(err)
	}

	tbl, err = Resume(dir, testOptions(t))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	defer tbl.Close()
	if next := tbl.Meta().NextRowID; next != 10 {
		t.Fatalf("NextRowID = %d, want 10", next)
	}
	id, err := tbl.Insert(row(10, 10, "x"))
	if err != nil {
		t.Fatalf("Insert after resume: %v", err)
	}
	if id != 10 {
		t.Fatalf("Insert after resume got row ID %d, want 10", id)
	}
	if tbl.Len() != 11 {
		t.Fatalf("Len = %d, want 11", tbl.Len())
	}
}

func TestResumeKeepsNextRowIDAfterDeletes(t *testing.T) {
	tbl, dir := newTestTable(t)
	insertHundred(t, tbl)
	for id := int64(90); id < 100; id++ {
		if err := tbl.Delete(id); err != nil {
			t.Fatalf("Delete(%d): %v", id, err)
		}
	}
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}

	tbl, err := Resume(dir, testOptions(t))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	defer tbl.Close()
	// IDs of deleted rows are never handed out again
	if next := tbl.Meta().NextRowID; next != 100 {
		t.Fatalf("NextRowID = %d, want 100", next)
	}
}

func TestCreateFillsDefaults(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()

	meta := tbl.Meta()
	if meta.ID == uuid.Nil {
		t.Error("no relation id")
	}
	if meta.PageSize != types.DefaultPageSize {
		t.Errorf("PageSize = %d", meta.PageSize)
	}
	if meta.HeapPageSize != 32 {
		t.Errorf("HeapPageSize = %d, want 32", meta.HeapPageSize)
	}

	bad := testMeta()
	bad.SuperKeys = [][]int{{2}}
	if _, err := Create(filepath.Join(t.TempDir(), "bad"), bad, testOptions(t)); !errors.Is(err, types.ErrInvalidSchema) {
		t.Fatalf("nullable superkey: %v", err)
	}
}

func TestClosedTable(t *testing.T) {
	tbl, _ := newTestTable(t)
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := tbl.Insert(row(1, 1, "x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Insert after close = %v", err)
	}
	if _, err := tbl.SearchRows(nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("SearchRows after close = %v", err)
	}
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	tbl, _ := newTestTable(t)
	defer tbl.Close()
	insertHundred(t, tbl)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				recs, err := tbl.SearchRows(nil)
				if err != nil {
					errs <- err
					return
				}
				if n := len(recs); n < 100 || n > 150 {
					errs <- errors.Errorf("saw %d rows", n)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 100; i < 150; i++ {
			if _, err := tbl.Insert(row(int32(i), float64(i), "w")); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if tbl.Len() != 150 {
		t.Fatalf("Len = %d, want 150", tbl.Len())
	}
}
