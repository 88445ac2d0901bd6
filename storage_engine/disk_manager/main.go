package diskmanager

import (
	"io"
	"os"

	"StrataDB/storage_engine/bufferpool"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
The pager is the only code that touches file descriptors. It owns:

	reading/writing whole pages at page-aligned offsets (ReadAt, WriteAt)
	growing the file by whole pages (Allocate) and shrinking it (Truncate)
	the per-file page cache

It knows nothing about what a page holds; the tree and the heap bring their
own layouts.
*/

var (
	ErrClosed        = errors.New("pager is closed")
	ErrBadOffset     = errors.New("offset is not a page in this file")
	ErrBadPageSize   = errors.New("page size must be a positive multiple of 8")
	ErrPartialFile   = errors.New("file length is not a multiple of the page size")
	ErrWrongPageSize = errors.New("page buffer does not match page size")
)

// Open opens (and with create, creates) a paged file.
func Open(path string, pageSize int, create bool, opts Options) (*Pager, error) {
	if pageSize <= 0 || pageSize%8 != 0 {
		return nil, errors.Wrapf(ErrBadPageSize, "got %d", pageSize)
	}
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if stat.Size()%int64(pageSize) != 0 {
		file.Close()
		return nil, errors.Wrapf(ErrPartialFile, "%s is %d bytes, page size %d", path, stat.Size(), pageSize)
	}

	cache, err := bufferpool.NewPageCache(opts.CachePages, pageSize)
	if err != nil {
		file.Close()
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pager{
		path:     path,
		file:     file,
		pageSize: pageSize,
		numPages: stat.Size() / int64(pageSize),
		cache:    cache,
		logger:   logger.With(zap.String("file", path)),
	}
	p.logger.Debug("pager opened",
		zap.Int("pageSize", pageSize),
		zap.Int64("pages", p.numPages),
		zap.Bool("created", create))
	return p, nil
}

func (p *Pager) Path() string  { return p.path }
func (p *Pager) PageSize() int { return p.pageSize }

func (p *Pager) NumPages() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numPages
}

// Size is the file length in bytes.
func (p *Pager) Size() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numPages * int64(p.pageSize)
}

func (p *Pager) checkOffset(offset int64) error {
	if p.file == nil {
		return ErrClosed
	}
	if offset < 0 || offset%int64(p.pageSize) != 0 || offset/int64(p.pageSize) >= p.numPages {
		return errors.Wrapf(ErrBadOffset, "offset %d (pages %d, page size %d)", offset, p.numPages, p.pageSize)
	}
	return nil
}

// ReadPage returns a copy of the page at offset.
func (p *Pager) ReadPage(offset int64) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkOffset(offset); err != nil {
		return nil, err
	}
	if data, ok := p.cache.Get(offset); ok {
		return data, nil
	}

	data := make([]byte, p.pageSize)
	n, err := p.file.ReadAt(data, offset)
	if err != nil && !(err == io.EOF && n == p.pageSize) {
		return nil, errors.Wrapf(err, "read page at %d", offset)
	}
	p.cache.Put(offset, data)
	return data, nil
}

// WritePage writes a whole page at offset. The page must already exist;
// use Allocate to grow the file.
func (p *Pager) WritePage(offset int64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkOffset(offset); err != nil {
		return err
	}
	if len(data) != p.pageSize {
		return errors.Wrapf(ErrWrongPageSize, "got %d bytes, page size %d", len(data), p.pageSize)
	}
	if _, err := p.file.WriteAt(data, offset); err != nil {
		return errors.Wrapf(err, "write page at %d", offset)
	}
	p.cache.Put(offset, data)
	return nil
}

// Allocate grows the file by n zeroed pages and returns the offset of the
// first new page.
func (p *Pager) Allocate(n int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return 0, ErrClosed
	}
	if n <= 0 {
		return 0, errors.Errorf("allocate %d pages", n)
	}
	first := p.numPages * int64(p.pageSize)
	size := (p.numPages + int64(n)) * int64(p.pageSize)
	if err := p.file.Truncate(size); err != nil {
		return 0, errors.Wrapf(err, "grow to %d pages", p.numPages+int64(n))
	}
	p.numPages += int64(n)
	return first, nil
}

// Truncate shrinks (or grows) the file to numPages pages.
func (p *Pager) Truncate(numPages int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrClosed
	}
	if numPages < 1 {
		return errors.Errorf("truncate to %d pages would drop the header page", numPages)
	}
	if err := p.file.Truncate(numPages * int64(p.pageSize)); err != nil {
		return errors.Wrapf(err, "truncate to %d pages", numPages)
	}
	if numPages < p.numPages {
		p.cache.Clear()
	}
	p.logger.Debug("file truncated",
		zap.Int64("from", p.numPages),
		zap.Int64("to", numPages),
		zap.String("size", humanize.IBytes(uint64(numPages*int64(p.pageSize)))))
	p.numPages = numPages
	return nil
}

func (p *Pager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrClosed
	}
	return errors.Wrapf(p.file.Sync(), "sync %s", p.path)
}

// Close syncs and closes the file. Closing twice is a no-op.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil
	}
	hits, misses := p.cache.Stats()
	p.cache.Close()

	syncErr := p.file.Sync()
	closeErr := p.file.Close()
	p.file = nil
	p.logger.Debug("pager closed",
		zap.Int64("pages", p.numPages),
		zap.String("size", humanize.IBytes(uint64(p.numPages*int64(p.pageSize)))),
		zap.Uint64("cacheHits", hits),
		zap.Uint64("cacheMisses", misses))
	if syncErr != nil {
		return errors.Wrapf(syncErr, "sync %s", p.path)
	}
	return errors.Wrapf(closeErr, "close %s", p.path)
}
