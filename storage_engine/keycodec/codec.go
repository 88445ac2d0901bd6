package keycodec

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"math"
	"strings"

	"StrataDB/types"

	"github.com/pkg/errors"
)

var (
	ErrStringTooLong = errors.New("string exceeds declared column width")
	ErrKeyShape      = errors.New("key does not match configuration")
)

/*
Encoded key layout, columns left to right, no separators:

	int32    4 bytes big-endian two's complement
	int64    8 bytes big-endian two's complement
	float32  4 bytes big-endian IEEE-754 bits
	float64  8 bytes big-endian IEEE-754 bits
	string   n bytes, right-padded with ' ' to the declared width

The encoding is fixed-width but not byte-order comparable; use Compare or
CompareEncoded for ordering.
*/

// Codec encodes and orders keys of one fixed column layout.
type Codec struct {
	columns []types.ColumnType
	offsets []int
	size    int
}

func NewCodec(columns []types.ColumnType) (*Codec, error) {
	if len(columns) == 0 {
		return nil, errors.Wrap(ErrKeyShape, "no columns")
	}
	c := &Codec{
		columns: append([]types.ColumnType(nil), columns...),
		offsets: make([]int, len(columns)),
	}
	for i, col := range columns {
		if !col.Valid() {
			return nil, errors.Wrapf(types.ErrUnknownColumnType, "column %d: kind %d size %d", i, col.Kind, col.Size)
		}
		c.offsets[i] = c.size
		c.size += col.Width()
	}
	return c, nil
}

func (c *Codec) Columns() []types.ColumnType { return c.columns }

// Size is the encoded width of a full key.
func (c *Codec) Size() int { return c.size }

// Encode writes key into a new buffer of Size() bytes.
func (c *Codec) Encode(key types.Key) ([]byte, error) {
	buf := make([]byte, c.size)
	if err := c.EncodeTo(buf, key); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeTo writes key into buf, which must hold at least Size() bytes.
func (c *Codec) EncodeTo(buf []byte, key types.Key) error {
	if len(key) != len(c.columns) {
		return errors.Wrapf(ErrKeyShape, "got %d columns, want %d", len(key), len(c.columns))
	}
	if len(buf) < c.size {
		return errors.Wrapf(ErrKeyShape, "buffer holds %d bytes, key needs %d", len(buf), c.size)
	}
	for i, col := range c.columns {
		v := key[i]
		if v.Kind() != col.Kind {
			return errors.Wrapf(ErrKeyShape, "column %d: got %s, want %s", i, v.Kind(), col)
		}
		b := buf[c.offsets[i] : c.offsets[i]+col.Width()]
		switch col.Kind {
		case types.KindInt32:
			binary.BigEndian.PutUint32(b, uint32(int32(v.Int())))
		case types.KindInt64:
			binary.BigEndian.PutUint64(b, uint64(v.Int()))
		case types.KindFloat32:
			binary.BigEndian.PutUint32(b, math.Float32bits(float32(v.Float())))
		case types.KindFloat64:
			binary.BigEndian.PutUint64(b, math.Float64bits(v.Float()))
		case types.KindString:
			s := v.Str()
			if len(s) > col.Size {
				return errors.Wrapf(ErrStringTooLong, "column %d: %d bytes, width %d", i, len(s), col.Size)
			}
			n := copy(b, s)
			for j := n; j < len(b); j++ {
				b[j] = ' '
			}
		}
	}
	return nil
}

// Decode is the inverse of Encode. String padding is kept.
func (c *Codec) Decode(buf []byte) (types.Key, error) {
	if len(buf) < c.size {
		return nil, errors.Wrapf(ErrKeyShape, "buffer holds %d bytes, key needs %d", len(buf), c.size)
	}
	key := make(types.Key, len(c.columns))
	for i, col := range c.columns {
		b := buf[c.offsets[i] : c.offsets[i]+col.Width()]
		switch col.Kind {
		case types.KindInt32:
			key[i] = types.Int32Value(int32(binary.BigEndian.Uint32(b)))
		case types.KindInt64:
			key[i] = types.Int64Value(int64(binary.BigEndian.Uint64(b)))
		case types.KindFloat32:
			key[i] = types.Float32Value(math.Float32frombits(binary.BigEndian.Uint32(b)))
		case types.KindFloat64:
			key[i] = types.Float64Value(math.Float64frombits(binary.BigEndian.Uint64(b)))
		case types.KindString:
			key[i] = types.StringValue(string(b))
		}
	}
	return key, nil
}

// Normalize returns the key as it reads back from disk, so strings carry
// their padding and compare the same way stored keys do.
func (c *Codec) Normalize(key types.Key) (types.Key, error) {
	b, err := c.Encode(key)
	if err != nil {
		return nil, err
	}
	return c.Decode(b)
}

// CompareEncoded orders two encoded keys column by column without decoding
// them into Values.
func (c *Codec) CompareEncoded(a, b []byte) int {
	for i, col := range c.columns {
		lo, hi := c.offsets[i], c.offsets[i]+col.Width()
		x, y := a[lo:hi], b[lo:hi]
		var r int
		switch col.Kind {
		case types.KindInt32:
			r = cmp.Compare(int32(binary.BigEndian.Uint32(x)), int32(binary.BigEndian.Uint32(y)))
		case types.KindInt64:
			r = cmp.Compare(int64(binary.BigEndian.Uint64(x)), int64(binary.BigEndian.Uint64(y)))
		case types.KindFloat32:
			r = cmp.Compare(math.Float32frombits(binary.BigEndian.Uint32(x)), math.Float32frombits(binary.BigEndian.Uint32(y)))
		case types.KindFloat64:
			r = cmp.Compare(math.Float64frombits(binary.BigEndian.Uint64(x)), math.Float64frombits(binary.BigEndian.Uint64(y)))
		case types.KindString:
			r = bytes.Compare(x, y)
		}
		if r != 0 {
			return r
		}
	}
	return 0
}

// FormatEncoded renders an encoded key for logs and inspectors.
func (c *Codec) FormatEncoded(b []byte) string {
	key, err := c.Decode(b)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	for i, v := range key {
		if v.Kind() == types.KindString {
			key[i] = types.StringValue(strings.TrimRight(v.Str(), " "))
		}
	}
	return key.String()
}
