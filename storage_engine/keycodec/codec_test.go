package keycodec

import (
	"math/rand"
	"testing"

	"StrataDB/types"

	"github.com/pkg/errors"
)

func allColumns() []types.ColumnType {
	return []types.ColumnType{
		types.Int32Type(),
		types.Int64Type(),
		types.Float32Type(),
		types.Float64Type(),
		types.StringType(5),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec, err := NewCodec(allColumns())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if codec.Size() != 4+8+4+8+5 {
		t.Fatalf("unexpected key size %d", codec.Size())
	}

	keys := []types.Key{
		{types.Int32Value(0), types.Int64Value(0), types.Float32Value(0), types.Float64Value(0), types.StringValue("")},
		{types.Int32Value(-7), types.Int64Value(-1 << 40), types.Float32Value(-1.5), types.Float64Value(3.25), types.StringValue("you")},
		{types.Int32Value(1<<31 - 1), types.Int64Value(1<<63 - 1), types.Float32Value(1e30), types.Float64Value(-1e300), types.StringValue("hello")},
	}
	for _, key := range keys {
		b, err := codec.Encode(key)
		if err != nil {
			t.Fatalf("Encode(%v): %v", key, err)
		}
		got, err := codec.Decode(b)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		want, err := codec.Normalize(key)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if Compare(got, want) != 0 {
			t.Errorf("round trip: got %v, want %v", got, want)
		}
		for i := 0; i < 4; i++ {
			if got[i] != key[i] {
				t.Errorf("column %d: got %v, want %v", i, got[i], key[i])
			}
		}
	}
}

func TestStringPadding(t *testing.T) {
	codec, err := NewCodec([]types.ColumnType{types.StringType(5)})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	b, err := codec.Encode(types.Key{types.StringValue("you")})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(b) != "you  " {
		t.Fatalf("expected space padding, got %q", b)
	}
	got, _ := codec.Decode(b)
	if got[0].Str() != "you  " {
		t.Errorf("decode should keep padding, got %q", got[0].Str())
	}

	// exactly the declared width is fine, one more byte is not
	if _, err := codec.Encode(types.Key{types.StringValue("abcde")}); err != nil {
		t.Errorf("full width string rejected: %v", err)
	}
	_, err = codec.Encode(types.Key{types.StringValue("abcdef")})
	if !errors.Is(err, ErrStringTooLong) {
		t.Errorf("expected ErrStringTooLong, got %v", err)
	}
}

func TestEncodeRejectsWrongShape(t *testing.T) {
	codec, _ := NewCodec([]types.ColumnType{types.Int32Type(), types.Float64Type()})
	if _, err := codec.Encode(types.Key{types.Int32Value(1)}); !errors.Is(err, ErrKeyShape) {
		t.Errorf("short key: expected ErrKeyShape, got %v", err)
	}
	if _, err := codec.Encode(types.Key{types.Int64Value(1), types.Float64Value(1)}); !errors.Is(err, ErrKeyShape) {
		t.Errorf("wrong kind: expected ErrKeyShape, got %v", err)
	}
	if _, err := NewCodec([]types.ColumnType{{Kind: types.KindString}}); !errors.Is(err, types.ErrUnknownColumnType) {
		t.Errorf("zero width string: expected ErrUnknownColumnType, got %v", err)
	}
}

func TestCompareOperators(t *testing.T) {
	a := types.Key{types.Int32Value(1), types.StringValue("b")}
	b := types.Key{types.Int32Value(1), types.StringValue("c")}
	c := types.Key{types.Int32Value(2), types.StringValue("a")}

	tests := []struct {
		x, y types.Key
		op   Op
		want bool
	}{
		{a, b, OpLT, true},
		{b, a, OpLT, false},
		{a, a, OpLE, true},
		{a, a, OpEQ, true},
		{a, b, OpNE, true},
		{c, b, OpGT, true},
		{b, c, OpGE, false},
		{a, a, OpNE, false},
	}
	for _, tt := range tests {
		if got := CompareOp(tt.x, tt.y, tt.op); got != tt.want {
			t.Errorf("%v %s %v = %t, want %t", tt.x, tt.op, tt.y, got, tt.want)
		}
	}
}

func randomKey(r *rand.Rand) types.Key {
	letters := "abc"
	s := make([]byte, r.Intn(4))
	for i := range s {
		s[i] = letters[r.Intn(len(letters))]
	}
	return types.Key{
		types.Int32Value(int32(r.Intn(5) - 2)),
		types.Int64Value(int64(r.Intn(5) - 2)),
		types.Float32Value(float32(r.Intn(3)) / 2),
		types.Float64Value(float64(r.Intn(5)-2) * 0.25),
		types.StringValue(string(s)),
	}
}

// Encoded and decoded comparisons must agree and form a total order.
func TestCompareTotalOrder(t *testing.T) {
	codec, _ := NewCodec(allColumns())
	r := rand.New(rand.NewSource(7))

	keys := make([]types.Key, 60)
	enc := make([][]byte, len(keys))
	for i := range keys {
		k, err := codec.Normalize(randomKey(r))
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		keys[i] = k
		enc[i], _ = codec.Encode(k)
	}

	for i := range keys {
		for j := range keys {
			ab := Compare(keys[i], keys[j])
			ba := Compare(keys[j], keys[i])
			if ab != -ba {
				t.Fatalf("not antisymmetric: %v vs %v", keys[i], keys[j])
			}
			if got := codec.CompareEncoded(enc[i], enc[j]); sign(got) != sign(ab) {
				t.Fatalf("encoded compare %d disagrees with decoded %d for %v vs %v", got, ab, keys[i], keys[j])
			}
			if CompareOp(keys[i], keys[j], OpLT) != (ab < 0) {
				t.Fatalf("OpLT disagrees with Compare")
			}
			for k := range keys {
				if ab <= 0 && Compare(keys[j], keys[k]) <= 0 && Compare(keys[i], keys[k]) > 0 {
					t.Fatalf("not transitive: %v <= %v <= %v", keys[i], keys[j], keys[k])
				}
			}
		}
	}
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}

func TestNegativeIntegersOrderBeforePositive(t *testing.T) {
	codec, _ := NewCodec([]types.ColumnType{types.Int64Type()})
	neg, _ := codec.Encode(types.Key{types.Int64Value(-5)})
	pos, _ := codec.Encode(types.Key{types.Int64Value(3)})
	if codec.CompareEncoded(neg, pos) >= 0 {
		t.Errorf("-5 should sort before 3")
	}
}
