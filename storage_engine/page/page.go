package page

import "encoding/binary"

/*
Page is a raw fixed-size buffer read from or written to a data file at a
byte offset. Both the B+ tree node codec and the row heap lay their records
out through these accessors, so every multi-byte field on disk is big-endian.

	offset 0 of the file is always the file's header page
	every other page starts at a multiple of the page size
*/

type Page struct {
	Offset int64
	Data   []byte
}

func New(offset int64, size int) *Page {
	return &Page{Offset: offset, Data: make([]byte, size)}
}

// Wrap uses data as the page buffer without copying.
func Wrap(offset int64, data []byte) *Page {
	return &Page{Offset: offset, Data: data}
}

func (p *Page) Size() int { return len(p.Data) }

func (p *Page) Uint16(at int) uint16 {
	return binary.BigEndian.Uint16(p.Data[at:])
}

func (p *Page) PutUint16(at int, v uint16) {
	binary.BigEndian.PutUint16(p.Data[at:], v)
}

func (p *Page) Uint32(at int) uint32 {
	return binary.BigEndian.Uint32(p.Data[at:])
}

func (p *Page) PutUint32(at int, v uint32) {
	binary.BigEndian.PutUint32(p.Data[at:], v)
}

func (p *Page) Int32(at int) int32 {
	return int32(binary.BigEndian.Uint32(p.Data[at:]))
}

func (p *Page) PutInt32(at int, v int32) {
	binary.BigEndian.PutUint32(p.Data[at:], uint32(v))
}

func (p *Page) Uint64(at int) uint64 {
	return binary.BigEndian.Uint64(p.Data[at:])
}

func (p *Page) PutUint64(at int, v uint64) {
	binary.BigEndian.PutUint64(p.Data[at:], v)
}

func (p *Page) Int64(at int) int64 {
	return int64(binary.BigEndian.Uint64(p.Data[at:]))
}

func (p *Page) PutInt64(at int, v int64) {
	binary.BigEndian.PutUint64(p.Data[at:], uint64(v))
}

// Bytes returns a copy of n bytes starting at at.
func (p *Page) Bytes(at, n int) []byte {
	out := make([]byte, n)
	copy(out, p.Data[at:at+n])
	return out
}

func (p *Page) PutBytes(at int, b []byte) {
	copy(p.Data[at:], b)
}

// Zero clears the page, e.g. before re-serializing a node into it.
func (p *Page) Zero() {
	clear(p.Data)
}

// EncodeInt64 is the 8-byte big-endian form used for row IDs, offsets and
// tree values.
func EncodeInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func DecodeInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
