package types

import (
	"testing"

	"github.com/pkg/errors"
)

func TestParseColumnType(t *testing.T) {
	cases := []struct {
		in   string
		want ColumnType
	}{
		{"int", Int32Type()},
		{"INT32", Int32Type()},
		{"long", Int64Type()},
		{"int64", Int64Type()},
		{"float", Float32Type()},
		{"double", Float64Type()},
		{" float64 ", Float64Type()},
		{"string(5)", StringType(5)},
		{"varchar(32)", StringType(32)},
	}
	for _, c := range cases {
		got, err := ParseColumnType(c.in)
		if err != nil {
			t.Errorf("ParseColumnType(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseColumnType(%q) = %s, want %s", c.in, got, c.want)
		}
		if back, _ := ParseColumnType(got.String()); back != got {
			t.Errorf("%s does not parse back", got)
		}
	}

	for _, bad := range []string{"", "bool", "string(0)", "string(x)", "string(5"} {
		if _, err := ParseColumnType(bad); !errors.Is(err, ErrUnknownColumnType) {
			t.Errorf("ParseColumnType(%q) = %v, want ErrUnknownColumnType", bad, err)
		}
	}
}

func TestValueCompare(t *testing.T) {
	if Int32Value(1).Compare(Int32Value(2)) >= 0 {
		t.Error("1 >= 2")
	}
	if StringValue("b").Compare(StringValue("a")) <= 0 {
		t.Error("b <= a")
	}
	if !Null.IsNull() || Int32Value(0).IsNull() {
		t.Error("null detection")
	}
	if ZeroValue(StringType(3)).Str() != "" || ZeroValue(Float64Type()).Float() != 0 {
		t.Error("zero values")
	}
}

func TestValidateSchema(t *testing.T) {
	meta := RelationMeta{
		Name:        "t",
		ColumnNames: []string{"a", "b"},
		ColumnTypes: []ColumnType{Int32Type(), StringType(4)},
		Nullable:    []int{1},
		SuperKeys:   [][]int{{0}},
		Indices:     [][]int{{1, 0}},
	}
	if err := meta.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := []func(m *RelationMeta){
		func(m *RelationMeta) { m.Name = "" },
		func(m *RelationMeta) { m.ColumnNames = []string{"a", "a"} },
		func(m *RelationMeta) { m.SuperKeys = [][]int{{1}} },
		func(m *RelationMeta) { m.Indices = [][]int{{2}} },
		func(m *RelationMeta) { m.Indices = [][]int{{0, 0}} },
		func(m *RelationMeta) { m.SuperKeys = [][]int{{}} },
		func(m *RelationMeta) { m.ColumnTypes = []ColumnType{Int32Type()} },
	}
	for i, mutate := range bad {
		m := meta
		mutate(&m)
		if err := m.Validate(); err == nil {
			t.Errorf("case %d: Validate accepted a broken schema", i)
		}
	}
}
