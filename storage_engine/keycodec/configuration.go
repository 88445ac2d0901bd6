package keycodec

import (
	"fmt"
	"math"

	"StrataDB/types"

	"github.com/pkg/errors"
)

var (
	ErrDegreeTooSmall = errors.New("node degree below 2")
	ErrDegreeTooLarge = errors.New("node degree above the u16 entry count")
	ErrHeaderTooLarge = errors.New("key columns do not fit the header page")
)

// Per-node-kind header and entry costs in bytes.
const (
	PointerSize        = 8
	TagSize            = 2
	CountSize          = 2
	LeafHeaderSize     = TagSize + CountSize + 2*PointerSize // tag, count, prev, next
	InternalHeaderSize = TagSize + CountSize + PointerSize   // tag, count, child 0
	OverflowHeaderSize = TagSize + CountSize + 2*PointerSize // tag, count, prev, next
	FreePoolHeaderSize = TagSize + CountSize + PointerSize   // tag, count, next pool page

	// Node entry counts are stored as u16.
	MaxDegree = math.MaxUint16
)

// Tree header page: fixed fields, one descriptor per key column, and the
// root and free-list head offsets in the last 16 bytes.
const (
	HeaderFixedSize   = 54
	ColumnDescSize    = 9 // kind u8, size u32, column id i32
	HeaderTrailerSize = 2 * PointerSize
)

// HeaderSize is the number of header page bytes a key of n columns needs.
func HeaderSize(n int) int {
	return HeaderFixedSize + n*ColumnDescSize + HeaderTrailerSize
}

// Configuration describes one tree: its key layout, value width and the node
// capacities derived from the page size. It never changes after construction.
type Configuration struct {
	*Codec

	PageSize  int
	ColumnIDs []int
	ValueSize int
	Unique    bool

	LeafDegree     int // max keys in a leaf
	InternalDegree int // max children of an internal node
	OverflowDegree int // max values in an overflow page
	FreePoolDegree int // max offsets in a free-pool page
}

// Degree is the number of entries of entryCost bytes that fit in a page
// after headerCost bytes of header.
func Degree(pageSize, entryCost, headerCost int) int {
	if entryCost <= 0 || pageSize <= headerCost {
		return 0
	}
	return (pageSize - headerCost) / entryCost
}

func NewConfiguration(pageSize int, columns []types.ColumnType, columnIDs []int, valueSize int, unique bool) (*Configuration, error) {
	codec, err := NewCodec(columns)
	if err != nil {
		return nil, err
	}
	if columnIDs == nil {
		columnIDs = make([]int, len(columns))
		for i := range columnIDs {
			columnIDs[i] = i
		}
	}
	if len(columnIDs) != len(columns) {
		return nil, errors.Wrapf(ErrKeyShape, "%d column ids for %d columns", len(columnIDs), len(columns))
	}
	if valueSize <= 0 {
		return nil, errors.Errorf("value size must be positive, got %d", valueSize)
	}

	k := codec.Size()
	cfg := &Configuration{
		Codec:     codec,
		PageSize:  pageSize,
		ColumnIDs: append([]int(nil), columnIDs...),
		ValueSize: valueSize,
		Unique:    unique,

		LeafDegree:     Degree(pageSize, k+valueSize+PointerSize, LeafHeaderSize),
		OverflowDegree: Degree(pageSize, valueSize, OverflowHeaderSize),
		FreePoolDegree: Degree(pageSize, PointerSize, FreePoolHeaderSize),
	}
	maxInternalKeys := Degree(pageSize, k+PointerSize, InternalHeaderSize)
	cfg.InternalDegree = maxInternalKeys + 1

	for _, d := range []struct {
		name string
		v    int
	}{
		{"leaf", cfg.LeafDegree},
		{"internal", maxInternalKeys},
		{"overflow", cfg.OverflowDegree},
		{"free-pool", cfg.FreePoolDegree},
	} {
		if d.v < 2 {
			return nil, errors.Wrapf(ErrDegreeTooSmall, "%s degree %d (page size %d, key size %d, value size %d)",
				d.name, d.v, pageSize, k, valueSize)
		}
		if d.v > MaxDegree {
			return nil, errors.Wrapf(ErrDegreeTooLarge, "%s degree %d (page size %d, key size %d, value size %d)",
				d.name, d.v, pageSize, k, valueSize)
		}
	}
	if need := HeaderSize(len(columns)); need > pageSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d columns need %d bytes, page size %d", len(columns), need, pageSize)
	}
	return cfg, nil
}

func (c *Configuration) KeySize() int { return c.Codec.Size() }

func (c *Configuration) MaxLeafKeys() int     { return c.LeafDegree }
func (c *Configuration) MinLeafKeys() int     { return c.LeafDegree / 2 }
func (c *Configuration) MaxInternalKeys() int { return c.InternalDegree - 1 }
func (c *Configuration) MinInternalKeys() int { return (c.InternalDegree - 1) / 2 }

// Capacity returns the allowed entry count range for a node kind. Roots are
// exempt from the minimum, except that a root internal node needs one key.
func (c *Configuration) Capacity(kind types.NodeKind) (lo, hi int) {
	switch kind {
	case types.NodeLeaf:
		return c.MinLeafKeys(), c.MaxLeafKeys()
	case types.NodeRootLeaf:
		return 0, c.MaxLeafKeys()
	case types.NodeInternal:
		return c.MinInternalKeys(), c.MaxInternalKeys()
	case types.NodeRootInternal:
		return 1, c.MaxInternalKeys()
	case types.NodeLeafOverflow:
		return 1, c.OverflowDegree
	case types.NodeFreePool:
		return 0, c.FreePoolDegree
	}
	return 0, -1
}

// Equal reports whether two configurations describe the same on-disk layout.
func (c *Configuration) Equal(o *Configuration) bool {
	if c.PageSize != o.PageSize || c.ValueSize != o.ValueSize || c.Unique != o.Unique {
		return false
	}
	if len(c.columns) != len(o.columns) {
		return false
	}
	for i := range c.columns {
		if c.columns[i] != o.columns[i] || c.ColumnIDs[i] != o.ColumnIDs[i] {
			return false
		}
	}
	return true
}

func (c *Configuration) String() string {
	return fmt.Sprintf("page=%d key=%d value=%d unique=%t degrees(leaf=%d internal=%d overflow=%d free=%d) columns=%v",
		c.PageSize, c.KeySize(), c.ValueSize, c.Unique,
		c.LeafDegree, c.InternalDegree, c.OverflowDegree, c.FreePoolDegree, c.columns)
}
