package keycodec

import (
	"testing"

	"StrataDB/types"

	"github.com/pkg/errors"
)

func TestDegree(t *testing.T) {
	if got := Degree(128, 24, LeafHeaderSize); got != 4 {
		t.Errorf("Degree(128, 24, 20) = %d, want 4", got)
	}
	if got := Degree(10, 8, 12); got != 0 {
		t.Errorf("page smaller than header should give 0, got %d", got)
	}
}

func TestNewConfigurationDegrees(t *testing.T) {
	cfg, err := NewConfiguration(128, []types.ColumnType{types.Int64Type()}, nil, 8, true)
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	if cfg.KeySize() != 8 {
		t.Errorf("key size %d", cfg.KeySize())
	}
	if cfg.LeafDegree != 4 {
		t.Errorf("leaf degree %d, want 4", cfg.LeafDegree)
	}
	if cfg.MaxInternalKeys() != 7 || cfg.InternalDegree != 8 {
		t.Errorf("internal: max keys %d, degree %d", cfg.MaxInternalKeys(), cfg.InternalDegree)
	}
	if cfg.OverflowDegree != 13 {
		t.Errorf("overflow degree %d, want 13", cfg.OverflowDegree)
	}
	if cfg.FreePoolDegree != 14 {
		t.Errorf("free-pool degree %d, want 14", cfg.FreePoolDegree)
	}
	if lo, hi := cfg.Capacity(types.NodeRootInternal); lo != 1 || hi != 7 {
		t.Errorf("root internal capacity [%d, %d]", lo, hi)
	}
	if lo, _ := cfg.Capacity(types.NodeRootLeaf); lo != 0 {
		t.Errorf("root leaf should be exempt from minimum, got %d", lo)
	}
}

func TestNewConfigurationRejectsSmallDegree(t *testing.T) {
	// a 40 byte key leaves room for a single leaf entry in a 96 byte page
	_, err := NewConfiguration(96, []types.ColumnType{types.StringType(40)}, nil, 8, true)
	if !errors.Is(err, ErrDegreeTooSmall) {
		t.Fatalf("expected ErrDegreeTooSmall, got %v", err)
	}
}

func TestNewConfigurationRejectsLargeDegree(t *testing.T) {
	// 2 MiB pages give an int32 leaf 104856 entries, past the u16 count
	_, err := NewConfiguration(2<<20, []types.ColumnType{types.Int32Type()}, nil, 8, true)
	if !errors.Is(err, ErrDegreeTooLarge) {
		t.Fatalf("expected ErrDegreeTooLarge, got %v", err)
	}
	// value-only pages overflow first: 1 MiB holds 131069 overflow values
	_, err = NewConfiguration(1<<20, []types.ColumnType{types.StringType(64)}, nil, 8, true)
	if !errors.Is(err, ErrDegreeTooLarge) {
		t.Fatalf("expected ErrDegreeTooLarge for overflow pages, got %v", err)
	}

	cfg, err := NewConfiguration(512<<10, []types.ColumnType{types.Int64Type()}, nil, 8, true)
	if err != nil {
		t.Fatalf("512 KiB pages: %v", err)
	}
	if cfg.FreePoolDegree != 65534 || cfg.OverflowDegree != 65533 {
		t.Fatalf("degrees free=%d overflow=%d", cfg.FreePoolDegree, cfg.OverflowDegree)
	}
}

func TestNewConfigurationRejectsOversizedHeader(t *testing.T) {
	// leaf degree 2 fits 72 bytes, the 79 byte header does not
	_, err := NewConfiguration(72, []types.ColumnType{types.Int64Type()}, nil, 8, true)
	if !errors.Is(err, ErrHeaderTooLarge) {
		t.Fatalf("expected ErrHeaderTooLarge, got %v", err)
	}
	if HeaderSize(1) != 79 {
		t.Fatalf("HeaderSize(1) = %d, want 79", HeaderSize(1))
	}
	if _, err := NewConfiguration(80, []types.ColumnType{types.Int64Type()}, nil, 8, true); err != nil {
		t.Fatalf("80 byte page: %v", err)
	}
}

// Every page size either yields degrees in [2, MaxDegree] everywhere and a
// header that fits, or fails.
func TestDegreeValidity(t *testing.T) {
	layouts := [][]types.ColumnType{
		{types.Int32Type()},
		{types.Int64Type(), types.Float64Type()},
		{types.StringType(17), types.Int32Type()},
		{types.StringType(200)},
	}
	for _, cols := range layouts {
		pages := []int{}
		for page := 16; page <= 1024; page += 8 {
			pages = append(pages, page)
		}
		for page := 256 << 10; page <= 4<<20; page *= 2 {
			pages = append(pages, page-8, page, page+8)
		}
		for _, page := range pages {
			cfg, err := NewConfiguration(page, cols, nil, 8, false)
			if err != nil {
				if !errors.Is(err, ErrDegreeTooSmall) && !errors.Is(err, ErrDegreeTooLarge) && !errors.Is(err, ErrHeaderTooLarge) {
					t.Fatalf("page %d: unexpected error %v", page, err)
				}
				continue
			}
			if cfg.LeafDegree < 2 || cfg.MaxInternalKeys() < 2 || cfg.OverflowDegree < 2 || cfg.FreePoolDegree < 2 {
				t.Fatalf("page %d: accepted configuration with small degree: %s", page, cfg)
			}
			if cfg.LeafDegree > MaxDegree || cfg.MaxInternalKeys() > MaxDegree || cfg.OverflowDegree > MaxDegree || cfg.FreePoolDegree > MaxDegree {
				t.Fatalf("page %d: accepted configuration with degree past the u16 count: %s", page, cfg)
			}
			if HeaderSize(len(cols)) > page {
				t.Fatalf("page %d: accepted configuration whose header does not fit: %s", page, cfg)
			}
			if cfg.MinLeafKeys() < 1 || cfg.MinInternalKeys() < 1 {
				t.Fatalf("page %d: minimum capacity below 1: %s", page, cfg)
			}
		}
	}
}

func TestConfigurationEqual(t *testing.T) {
	a, _ := NewConfiguration(256, []types.ColumnType{types.Int32Type()}, []int{3}, 8, true)
	b, _ := NewConfiguration(256, []types.ColumnType{types.Int32Type()}, []int{3}, 8, true)
	c, _ := NewConfiguration(256, []types.ColumnType{types.Int32Type()}, []int{4}, 8, true)
	if !a.Equal(b) {
		t.Errorf("identical configurations reported different")
	}
	if a.Equal(c) {
		t.Errorf("different column ids reported equal")
	}
}
