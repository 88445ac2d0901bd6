package diskmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
)

func openTestPager(t *testing.T, path string, create bool) *Pager {
	t.Helper()
	opts := DefaultOptions
	opts.Logger = zaptest.NewLogger(t)
	p, err := Open(path, 64, create, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return p
}

func TestPagerAllocateReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.pg")
	p := openTestPager(t, path, true)

	first, err := p.Allocate(3)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if first != 0 || p.NumPages() != 3 {
		t.Fatalf("first=%d pages=%d", first, p.NumPages())
	}

	data := make([]byte, 64)
	copy(data, "page-two")
	if err := p.WritePage(128, data); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	got, err := p.ReadPage(128)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if string(got[:8]) != "page-two" {
		t.Errorf("read back %q", got[:8])
	}

	// fresh pages read as zeroes
	got, err = p.ReadPage(64)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for _, b := range got {
		if b != 0 {
			t.Fatalf("new page not zeroed")
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p = openTestPager(t, path, false)
	defer p.Close()
	if p.NumPages() != 3 {
		t.Fatalf("reopened with %d pages", p.NumPages())
	}
	got, err = p.ReadPage(128)
	if err != nil {
		t.Fatalf("ReadPage after reopen: %v", err)
	}
	if string(got[:8]) != "page-two" {
		t.Errorf("read back after reopen %q", got[:8])
	}
}

func TestPagerRejectsBadOffsets(t *testing.T) {
	p := openTestPager(t, filepath.Join(t.TempDir(), "data.pg"), true)
	defer p.Close()
	if _, err := p.Allocate(2); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	for _, off := range []int64{-64, 10, 128, 640} {
		if _, err := p.ReadPage(off); !errors.Is(err, ErrBadOffset) {
			t.Errorf("ReadPage(%d): expected ErrBadOffset, got %v", off, err)
		}
	}
	if err := p.WritePage(0, make([]byte, 10)); !errors.Is(err, ErrWrongPageSize) {
		t.Errorf("short write: expected ErrWrongPageSize, got %v", err)
	}
}

func TestPagerTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.pg")
	p := openTestPager(t, path, true)
	defer p.Close()

	if _, err := p.Allocate(10); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := p.Truncate(4); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if p.NumPages() != 4 {
		t.Fatalf("pages after truncate = %d", p.NumPages())
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() != 4*64 {
		t.Errorf("file size %d, want %d", st.Size(), 4*64)
	}
	if _, err := p.ReadPage(5 * 64); !errors.Is(err, ErrBadOffset) {
		t.Errorf("read past truncation: expected ErrBadOffset, got %v", err)
	}
	if err := p.Truncate(0); err == nil {
		t.Errorf("truncating away the header page should fail")
	}
}

func TestPagerRejectsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.pg")
	if err := os.WriteFile(path, make([]byte, 100), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path, 64, false, DefaultOptions); !errors.Is(err, ErrPartialFile) {
		t.Fatalf("expected ErrPartialFile, got %v", err)
	}
}
