package bplus

import (
	"os"

	"StrataDB/storage_engine/keycodec"
	"StrataDB/storage_engine/page"
	"StrataDB/types"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

/*
Header page layout (page 0, big-endian):

	0   magic "BPT1"         4   format version u16   6  flags u16 (bit 0 = unique)
	8   page size u32        12  key size u32         16 value size u32
	20  leaf degree u32      24  internal degree u32
	28  overflow degree u32  32  free-pool degree u32
	36  element count i64    44  layout fingerprint u64
	52  column count u16     54  per column: kind u8, size u32, column id i32

	pageSize-16  root page offset i64
	pageSize-8   free-pool head offset i64
*/

const (
	headerMagic   = "BPT1"
	formatVersion = 1
	flagUnique    = 1

	hdrVersion     = 4
	hdrFlags       = 6
	hdrPageSize    = 8
	hdrKeySize     = 12
	hdrValueSize   = 16
	hdrLeafDeg     = 20
	hdrInternalDeg = 24
	hdrOverflowDeg = 28
	hdrFreeDeg     = 32
	hdrCount       = 36
	hdrFingerprint = 44
	hdrColumnCount = 52
	hdrColumns     = keycodec.HeaderFixedSize
	columnDescSize = keycodec.ColumnDescSize
)

type headerState struct {
	root     int64
	freeHead int64
	count    int64
}

func rootSlot(pageSize int) int     { return pageSize - 16 }
func freeHeadSlot(pageSize int) int { return pageSize - 8 }

// fingerprint hashes everything that fixes the on-disk layout, so a file
// reopened with a different configuration is caught before any page is read.
func fingerprint(cfg *keycodec.Configuration) uint64 {
	p := page.New(0, hdrColumns-hdrPageSize+len(cfg.Columns())*columnDescSize)
	p.PutUint32(0, uint32(cfg.PageSize))
	p.PutUint32(4, uint32(cfg.KeySize()))
	p.PutUint32(8, uint32(cfg.ValueSize))
	if cfg.Unique {
		p.PutUint16(12, flagUnique)
	}
	at := hdrColumns - hdrPageSize
	for i, col := range cfg.Columns() {
		p.Data[at] = byte(col.Kind)
		p.PutUint32(at+1, uint32(col.Size))
		p.PutInt32(at+5, int32(cfg.ColumnIDs[i]))
		at += columnDescSize
	}
	return xxhash.Sum64(p.Data)
}

func encodeHeader(cfg *keycodec.Configuration, st headerState) []byte {
	p := page.New(0, cfg.PageSize)
	p.PutBytes(0, []byte(headerMagic))
	p.PutUint16(hdrVersion, formatVersion)
	if cfg.Unique {
		p.PutUint16(hdrFlags, flagUnique)
	}
	p.PutUint32(hdrPageSize, uint32(cfg.PageSize))
	p.PutUint32(hdrKeySize, uint32(cfg.KeySize()))
	p.PutUint32(hdrValueSize, uint32(cfg.ValueSize))
	p.PutUint32(hdrLeafDeg, uint32(cfg.LeafDegree))
	p.PutUint32(hdrInternalDeg, uint32(cfg.InternalDegree))
	p.PutUint32(hdrOverflowDeg, uint32(cfg.OverflowDegree))
	p.PutUint32(hdrFreeDeg, uint32(cfg.FreePoolDegree))
	p.PutInt64(hdrCount, st.count)
	p.PutUint64(hdrFingerprint, fingerprint(cfg))

	cols := cfg.Columns()
	p.PutUint16(hdrColumnCount, uint16(len(cols)))
	at := hdrColumns
	for i, col := range cols {
		p.Data[at] = byte(col.Kind)
		p.PutUint32(at+1, uint32(col.Size))
		p.PutInt32(at+5, int32(cfg.ColumnIDs[i]))
		at += columnDescSize
	}

	p.PutInt64(rootSlot(cfg.PageSize), st.root)
	p.PutInt64(freeHeadSlot(cfg.PageSize), st.freeHead)
	return p.Data
}

func decodeHeader(data []byte) (*keycodec.Configuration, headerState, error) {
	var st headerState
	if len(data) < hdrColumns || string(data[:4]) != headerMagic {
		return nil, st, ErrBadHeader
	}
	p := page.Wrap(0, data)
	if v := p.Uint16(hdrVersion); v != formatVersion {
		return nil, st, errors.Wrapf(ErrBadHeader, "format version %d", v)
	}
	pageSize := int(p.Uint32(hdrPageSize))
	if pageSize != len(data) {
		return nil, st, errors.Wrapf(ErrBadHeader, "header says page size %d, page is %d bytes", pageSize, len(data))
	}

	n := int(p.Uint16(hdrColumnCount))
	if hdrColumns+n*columnDescSize > rootSlot(pageSize) {
		return nil, st, errors.Wrapf(ErrBadHeader, "%d columns do not fit the header", n)
	}
	cols := make([]types.ColumnType, n)
	ids := make([]int, n)
	at := hdrColumns
	for i := 0; i < n; i++ {
		kind := types.ColumnKind(p.Data[at])
		size := int(p.Uint32(at + 1))
		cols[i] = types.ColumnType{Kind: kind, Size: size}
		if kind != types.KindString {
			cols[i].Size = cols[i].Width()
		}
		ids[i] = int(p.Int32(at + 5))
		at += columnDescSize
	}

	cfg, err := keycodec.NewConfiguration(pageSize, cols, ids, int(p.Uint32(hdrValueSize)), p.Uint16(hdrFlags)&flagUnique != 0)
	if err != nil {
		return nil, st, errors.Wrap(err, "rebuild configuration from header")
	}
	if fingerprint(cfg) != p.Uint64(hdrFingerprint) ||
		cfg.KeySize() != int(p.Uint32(hdrKeySize)) ||
		cfg.LeafDegree != int(p.Uint32(hdrLeafDeg)) ||
		cfg.InternalDegree != int(p.Uint32(hdrInternalDeg)) ||
		cfg.OverflowDegree != int(p.Uint32(hdrOverflowDeg)) ||
		cfg.FreePoolDegree != int(p.Uint32(hdrFreeDeg)) {
		return nil, st, errors.Wrap(ErrBadHeader, "layout fingerprint does not match stored degrees")
	}

	st.count = p.Int64(hdrCount)
	st.root = p.Int64(rootSlot(pageSize))
	st.freeHead = p.Int64(freeHeadSlot(pageSize))
	return cfg, st, nil
}

// ReadConfiguration reads the configuration a tree file was created with.
func ReadConfiguration(path string) (*keycodec.Configuration, error) {
	cfg, _, err := readHeaderFile(path)
	return cfg, err
}

func readHeaderFile(path string) (*keycodec.Configuration, headerState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, headerState{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	prefix := make([]byte, hdrColumns)
	if _, err := f.ReadAt(prefix, 0); err != nil {
		return nil, headerState{}, errors.Wrapf(ErrBadHeader, "%s: %v", path, err)
	}
	if string(prefix[:4]) != headerMagic {
		return nil, headerState{}, errors.Wrapf(ErrBadHeader, "%s", path)
	}
	pageSize := int(page.Wrap(0, prefix).Uint32(hdrPageSize))
	if pageSize < hdrColumns+16 {
		return nil, headerState{}, errors.Wrapf(ErrBadHeader, "%s: page size %d", path, pageSize)
	}
	data := make([]byte, pageSize)
	if _, err := f.ReadAt(data, 0); err != nil {
		return nil, headerState{}, errors.Wrapf(ErrBadHeader, "%s: %v", path, err)
	}
	cfg, st, err := decodeHeader(data)
	if err != nil {
		return nil, st, errors.Wrapf(err, "%s", path)
	}
	return cfg, st, nil
}

// writeHeader persists the header page with the current root, free-list
// head and element count.
func (t *BPlusTree) writeHeader() error {
	data := encodeHeader(t.cfg, headerState{root: t.root, freeHead: t.freeHead, count: t.count})
	if err := t.pager.WritePage(0, data); err != nil {
		return errors.Wrap(err, "write tree header")
	}
	t.headerDirty = false
	return nil
}
