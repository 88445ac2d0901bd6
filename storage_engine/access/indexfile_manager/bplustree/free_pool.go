package bplus

import (
	"sort"

	"StrataDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Released pages form a linked list of FREE-POOL pages rooted at the header's
free-head slot. The head pool page collects released offsets until it is
full; after that the next released page itself becomes the new head.
Allocation pops from the head page and, once it is empty, hands out the
pool page itself.
*/

func (t *BPlusTree) allocatePage() (int64, error) {
	if t.freeHead == nilOffset {
		return t.pager.Allocate(1)
	}
	head, err := t.readNode(t.freeHead)
	if err != nil {
		return 0, errors.Wrap(err, "read free-pool head")
	}
	if head.kind != types.NodeFreePool {
		return 0, errors.Wrapf(ErrCorruptPage, "free-pool head %d is %s", head.offset, head.kind)
	}
	t.headerDirty = true
	if n := len(head.free); n > 0 {
		offset := head.free[n-1]
		head.free = head.free[:n-1]
		head.isDirty = true
		return offset, t.writeNode(head)
	}
	t.freeHead = head.next
	return head.offset, nil
}

func (t *BPlusTree) releasePage(offset int64) error {
	t.headerDirty = true
	if t.freeHead != nilOffset {
		head, err := t.readNode(t.freeHead)
		if err != nil {
			return errors.Wrap(err, "read free-pool head")
		}
		if len(head.free) < t.cfg.FreePoolDegree {
			head.free = append(head.free, offset)
			head.isDirty = true
			return t.writeNode(head)
		}
	}
	pool := &Node{
		offset:  offset,
		kind:    types.NodeFreePool,
		prev:    nilOffset,
		next:    t.freeHead,
		isDirty: true,
	}
	if err := t.writeNode(pool); err != nil {
		return err
	}
	t.freeHead = offset
	return nil
}

// freePages lists every page on the free list, pool pages included, sorted.
func (t *BPlusTree) freePages() ([]int64, error) {
	var out []int64
	seen := make(map[int64]bool)
	for off := t.freeHead; off != nilOffset; {
		if seen[off] {
			return nil, errors.Wrapf(ErrCorruptPage, "free list loops at %d", off)
		}
		seen[off] = true
		pool, err := t.readNode(off)
		if err != nil {
			return nil, err
		}
		if pool.kind != types.NodeFreePool {
			return nil, errors.Wrapf(ErrCorruptPage, "free list page %d is %s", off, pool.kind)
		}
		out = append(out, off)
		out = append(out, pool.free...)
		off = pool.next
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// compact gives free pages at the end of the file back to the file system
// when at least TrimThreshold of them are contiguous with EOF, then rewrites
// the free list from what is left.
func (t *BPlusTree) compact() error {
	free, err := t.freePages()
	if err != nil {
		return errors.Wrap(err, "collect free pages")
	}
	pageSize := int64(t.cfg.PageSize)
	numPages := t.pager.NumPages()

	run := 0
	for i := len(free) - 1; i >= 0; i-- {
		if free[i] != (numPages-1-int64(run))*pageSize {
			break
		}
		run++
	}
	if run >= TrimThreshold {
		if err := t.pager.Truncate(numPages - int64(run)); err != nil {
			return err
		}
		free = free[:len(free)-run]
		t.logger.Info("trimmed free tail pages",
			zap.Int("pages", run),
			zap.Int64("remaining", numPages-int64(run)))
	} else if run > 0 {
		t.logger.Debug("keeping free tail pages as slack", zap.Int("pages", run))
	}
	return t.rebuildFreeList(free)
}

// rebuildFreeList writes free (sorted) back as a chain of pool pages.
// The highest offsets become pool pages, so allocation hands out low pages
// first after the next open.
func (t *BPlusTree) rebuildFreeList(free []int64) error {
	t.freeHead = nilOffset
	t.headerDirty = true
	for len(free) > 0 {
		pool := free[len(free)-1]
		free = free[:len(free)-1]
		n := min(t.cfg.FreePoolDegree, len(free))
		entries := make([]int64, n)
		copy(entries, free[len(free)-n:])
		free = free[:len(free)-n]

		node := &Node{
			offset:  pool,
			kind:    types.NodeFreePool,
			prev:    nilOffset,
			next:    t.freeHead,
			free:    entries,
			isDirty: true,
		}
		if err := t.writeNode(node); err != nil {
			return err
		}
		t.freeHead = pool
	}
	return nil
}
