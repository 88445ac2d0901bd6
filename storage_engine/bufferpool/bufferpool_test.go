package bufferpool

import "testing"

func TestPageCachePutGet(t *testing.T) {
	pc, err := NewPageCache(16, 32)
	if err != nil {
		t.Fatalf("NewPageCache: %v", err)
	}
	defer pc.Close()

	data := make([]byte, 32)
	data[0] = 1
	pc.Put(32, data)

	// the cache must own its copy
	data[0] = 9

	got, ok := pc.Get(32)
	if ok && got[0] != 1 {
		t.Fatalf("cached page changed under the caller: %d", got[0])
	}

	data[0] = 2
	pc.Put(32, data)
	if got, ok := pc.Get(32); ok && got[0] != 2 {
		t.Fatalf("stale page after Put: %d", got[0])
	}

	pc.Invalidate(32)
	if _, ok := pc.Get(32); ok {
		t.Fatalf("page still cached after Invalidate")
	}
}

func TestNilPageCache(t *testing.T) {
	pc, err := NewPageCache(0, 32)
	if err != nil {
		t.Fatalf("NewPageCache: %v", err)
	}
	if pc != nil {
		t.Fatalf("expected nil cache for zero capacity")
	}
	pc.Put(0, make([]byte, 32))
	if _, ok := pc.Get(0); ok {
		t.Fatalf("nil cache returned a page")
	}
	pc.Clear()
	pc.Close()
}
