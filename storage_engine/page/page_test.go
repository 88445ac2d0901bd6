package page

import "testing"

func TestAccessorsAreBigEndian(t *testing.T) {
	p := New(64, 32)
	p.PutUint16(0, 0x0102)
	p.PutInt64(2, -2)
	p.PutUint32(10, 7)
	p.PutBytes(14, []byte("abc"))

	if p.Data[0] != 0x01 || p.Data[1] != 0x02 {
		t.Fatalf("uint16 not big-endian: % x", p.Data[:2])
	}
	if got := p.Int64(2); got != -2 {
		t.Errorf("Int64 = %d, want -2", got)
	}
	if got := p.Uint32(10); got != 7 {
		t.Errorf("Uint32 = %d, want 7", got)
	}
	b := p.Bytes(14, 3)
	if string(b) != "abc" {
		t.Errorf("Bytes = %q", b)
	}
	b[0] = 'z'
	if p.Data[14] != 'a' {
		t.Errorf("Bytes should return a copy")
	}

	p.Zero()
	for i, c := range p.Data {
		if c != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
}

func TestInt64Codec(t *testing.T) {
	for _, v := range []int64{0, -1, 1 << 40, -1 << 62} {
		if got := DecodeInt64(EncodeInt64(v)); got != v {
			t.Errorf("DecodeInt64(EncodeInt64(%d)) = %d", v, got)
		}
	}
}
