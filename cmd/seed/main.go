// Seed program: creates relation "people" in databases/demo, inserts 100 rows,
// deletes the first 90 and reopens the relation.
// Run: go run ./cmd/seed
// Then inspect: databases/demo/people/ (rows.heap, *.idx, meta.json).
package main

import (
	"fmt"
	"log"
	"os"

	storageengine "StrataDB/storage_engine"
	"StrataDB/storage_engine/keycodec"
	"StrataDB/types"

	"go.uber.org/zap"
)

const dbRoot = "databases/demo"

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// start clean so the row IDs match the printout
	if err := os.RemoveAll(dbRoot); err != nil {
		log.Fatalf("clean %s: %v", dbRoot, err)
	}

	opts := storageengine.DefaultOptions
	opts.Logger = logger
	se, err := storageengine.NewStorageEngine(dbRoot, opts)
	if err != nil {
		log.Fatalf("storage engine: %v", err)
	}

	tbl, err := se.CreateRelation(types.RelationMeta{
		Name:        "people",
		ColumnNames: []string{"a", "b", "c"},
		ColumnTypes: []types.ColumnType{types.Int32Type(), types.Float64Type(), types.StringType(5)},
		Nullable:    []int{2},
		SuperKeys:   [][]int{{0}},
		Indices:     [][]int{{1}},
	})
	if err != nil {
		log.Fatalf("create relation: %v", err)
	}

	for i := 0; i < 100; i++ {
		row := types.Row{types.Int32Value(int32(i)), types.Float64Value(float64(i)), types.StringValue("you")}
		if _, err := tbl.Insert(row); err != nil {
			log.Fatalf("insert %d: %v", i, err)
		}
	}
	fmt.Printf("inserted: %d rows\n", tbl.Len())

	pred, err := tbl.Where("a", keycodec.OpEQ, types.Int32Value(50))
	if err != nil {
		log.Fatalf("where: %v", err)
	}
	recs, err := tbl.SearchRows(pred)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	for _, r := range recs {
		fmt.Printf("a = 50: #%d %s\n", r.RowID, r.Row)
	}

	dup := types.Row{types.Int32Value(50), types.Float64Value(0), types.StringValue("dup")}
	if _, err := tbl.Insert(dup); err != nil {
		fmt.Printf("duplicate insert rejected: %v\n", err)
	}

	for i := int64(0); i < 90; i++ {
		if err := tbl.Delete(i); err != nil {
			log.Fatalf("delete %d: %v", i, err)
		}
	}
	fmt.Printf("after delete: %d rows\n", tbl.Len())

	if err := se.CloseRelation("people"); err != nil {
		log.Fatalf("close: %v", err)
	}
	tbl, err = se.OpenRelation("people")
	if err != nil {
		log.Fatalf("reopen: %v", err)
	}
	recs, err = tbl.SearchRows(nil)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}
	fmt.Printf("after reopen: %d rows\n", len(recs))
	for _, r := range recs {
		fmt.Printf("  #%d %s\n", r.RowID, r.Row)
	}

	if err := se.Close(); err != nil {
		log.Fatalf("close engine: %v", err)
	}
}
