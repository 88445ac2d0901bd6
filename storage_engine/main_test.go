package storageengine

import (
	"testing"

	"StrataDB/storage_engine/catalog"
	"StrataDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
)

func testMeta(name string) types.RelationMeta {
	return types.RelationMeta{
		Name:        name,
		ColumnNames: []string{"id", "name"},
		ColumnTypes: []types.ColumnType{types.Int64Type(), types.StringType(8)},
		SuperKeys:   [][]int{{0}},
	}
}

func newTestEngine(t *testing.T, root string) *StorageEngine {
	t.Helper()
	opts := DefaultOptions
	opts.Logger = zaptest.NewLogger(t)
	se, err := NewStorageEngine(root, opts)
	if err != nil {
		t.Fatalf("NewStorageEngine: %v", err)
	}
	return se
}

func TestCreateOpenClose(t *testing.T) {
	root := t.TempDir()
	se := newTestEngine(t, root)

	tbl, err := se.CreateRelation(testMeta("users"))
	if err != nil {
		t.Fatalf("CreateRelation: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := tbl.Insert(types.Row{types.Int64Value(int64(i)), types.StringValue("u")}); err != nil {
			t.Fatal(err)
		}
	}
	same, err := se.OpenRelation("users")
	if err != nil {
		t.Fatalf("OpenRelation: %v", err)
	}
	if same != tbl {
		t.Fatal("OpenRelation did not return the cached handle")
	}
	if _, err := se.CreateRelation(testMeta("users")); !errors.Is(err, catalog.ErrRelationExists) {
		t.Fatalf("second CreateRelation = %v", err)
	}
	if err := se.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// a new engine resumes the relation from disk
	se = newTestEngine(t, root)
	defer se.Close()
	tbl, err = se.OpenRelation("users")
	if err != nil {
		t.Fatalf("OpenRelation after restart: %v", err)
	}
	if tbl.Len() != 10 {
		t.Fatalf("Len = %d, want 10", tbl.Len())
	}
	meta, err := se.CatalogManager.GetRelationMeta("users")
	if err != nil {
		t.Fatal(err)
	}
	if meta.NextRowID != 10 {
		t.Fatalf("catalog NextRowID = %d, want 10", meta.NextRowID)
	}
}

func TestDropRelation(t *testing.T) {
	se := newTestEngine(t, t.TempDir())
	defer se.Close()

	for _, n := range []string{"a", "b"} {
		if _, err := se.CreateRelation(testMeta(n)); err != nil {
			t.Fatal(err)
		}
	}
	if err := se.DropRelation("a"); err != nil {
		t.Fatalf("DropRelation: %v", err)
	}
	names, err := se.Relations()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "b" {
		t.Fatalf("Relations = %v", names)
	}
	if _, err := se.OpenRelation("a"); !errors.Is(err, catalog.ErrRelationNotFound) {
		t.Fatalf("OpenRelation(a) = %v", err)
	}
	if err := se.DropRelation("a"); !errors.Is(err, catalog.ErrRelationNotFound) {
		t.Fatalf("second DropRelation = %v", err)
	}
}

func TestCreateRelationRejectsBadSchema(t *testing.T) {
	se := newTestEngine(t, t.TempDir())
	defer se.Close()

	meta := testMeta("bad")
	meta.ColumnTypes = meta.ColumnTypes[:1]
	if _, err := se.CreateRelation(meta); !errors.Is(err, types.ErrInvalidSchema) {
		t.Fatalf("CreateRelation = %v", err)
	}
	if se.CatalogManager.RelationExists("bad") {
		t.Fatal("rejected relation left in catalog")
	}
}
