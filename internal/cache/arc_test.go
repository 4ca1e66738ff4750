package cache

import (
	"testing"

	"ixdb/internal/page"
)

func testResource() page.ResourceID { return page.NewResourceID() }

func TestAddPageThenGetAndPinHits(t *testing.T) {
	c := New(4)
	r := testResource()
	buf := make([]byte, 8)
	if _, err := c.AddPage(r, 1, buf); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, ok := c.GetAndPin(r, 1)
	if !ok {
		t.Fatal("expected hit after AddPage")
	}
	if len(got) != 8 {
		t.Fatalf("buffer length = %d, want 8", len(got))
	}
}

func TestAddPageDuplicateIsRejected(t *testing.T) {
	c := New(4)
	r := testResource()
	if _, err := c.AddPage(r, 1, make([]byte, 8)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.AddPage(r, 1, make([]byte, 8)); err == nil {
		t.Fatal("expected DuplicateCacheEntry on re-add")
	}
}

func TestEvictionWritesBackDirtyPage(t *testing.T) {
	c := New(2)
	r := testResource()
	buf1 := make([]byte, 4)
	buf2 := make([]byte, 4)
	buf3 := make([]byte, 4)

	if _, err := c.AddPage(r, 1, buf1); err != nil {
		t.Fatalf("add 1: %v", err)
	}
	c.Unpin(r, 1)
	c.MarkDirty(r, 1)

	if _, err := c.AddPage(r, 2, buf2); err != nil {
		t.Fatalf("add 2: %v", err)
	}
	c.Unpin(r, 2)

	// Cache is full (capacity 2); adding a third page must evict one.
	evicted, err := c.AddPage(r, 3, buf3)
	if err != nil {
		t.Fatalf("add 3: %v", err)
	}
	if evicted == nil {
		t.Fatal("expected an eviction when the cache is full")
	}
	if evicted.Key.Page == 1 && !evicted.Dirty {
		t.Fatal("page 1 was marked dirty and should have evicted dirty")
	}
}

func TestPinBlocksEviction(t *testing.T) {
	c := New(1)
	r := testResource()
	if _, err := c.AddPage(r, 1, make([]byte, 4)); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Page 1 stays pinned (pin count 1 from AddPage, never unpinned).
	if _, err := c.AddPage(r, 2, make([]byte, 4)); err == nil {
		t.Fatal("expected CachePinned when the only resident page is pinned")
	}
}

func TestUnpinAllowsEviction(t *testing.T) {
	c := New(1)
	r := testResource()
	if _, err := c.AddPage(r, 1, make([]byte, 4)); err != nil {
		t.Fatalf("add: %v", err)
	}
	c.Unpin(r, 1)
	evicted, err := c.AddPage(r, 2, make([]byte, 4))
	if err != nil {
		t.Fatalf("add after unpin: %v", err)
	}
	if evicted == nil || evicted.Key.Page != 1 {
		t.Fatalf("expected page 1 to be evicted, got %+v", evicted)
	}
}

func TestGhostHitAdaptsTargetSize(t *testing.T) {
	c := New(2)
	r := testResource()
	c.AddPage(r, 1, make([]byte, 4))
	c.Unpin(r, 1)
	c.AddPage(r, 2, make([]byte, 4))
	c.Unpin(r, 2)
	// Evict page 1 into B1 by forcing a third distinct page in.
	c.AddPage(r, 3, make([]byte, 4))
	c.Unpin(r, 3)

	pBefore := c.p
	// Re-request page 1: a ghost (B1) hit, which should grow p.
	if _, err := c.AddPage(r, 1, make([]byte, 4)); err != nil {
		t.Fatalf("re-add ghost page: %v", err)
	}
	if c.p <= pBefore {
		t.Fatalf("expected p to grow on a B1 ghost hit: before=%d after=%d", pBefore, c.p)
	}
}

func TestExpelAllForResourceDropsOnlyThatResource(t *testing.T) {
	c := New(4)
	r := testResource()
	other := testResource()
	c.AddPage(r, 1, make([]byte, 4))
	c.Unpin(r, 1)
	c.AddPage(other, 1, make([]byte, 4))
	c.Unpin(other, 1)

	c.ExpelAllForResource(r)
	if _, ok := c.GetAndPin(r, 1); ok {
		t.Fatal("expected resource r's page to be gone after expulsion")
	}
	if _, ok := c.GetAndPin(other, 1); !ok {
		t.Fatal("expulsion of r must not disturb other resources")
	}
}

func TestExpelPinnedPageMarksExpired(t *testing.T) {
	c := New(4)
	r := testResource()
	c.AddPage(r, 1, make([]byte, 4)) // stays pinned (count 1)
	c.ExpelAllForResource(r)
	if !c.IsExpired(r, 1) {
		t.Fatal("a pinned page expelled mid-use should be marked expired, not removed")
	}
}
