package cache

import (
	"testing"

	"ixdb/internal/page"
)

// fakeResource is an in-memory stand-in for internal/resource.Manager,
// used so the buffer pool's fetch-on-miss and write-back paths can be
// tested without touching a file.
type fakeResource struct {
	id    page.ResourceID
	pages map[page.Number][]byte
	next  page.Number
	reads int
}

func newFakeResource() *fakeResource {
	return &fakeResource{id: page.NewResourceID(), pages: make(map[page.Number][]byte), next: 1}
}

func (f *fakeResource) ID() page.ResourceID { return f.id }

func (f *fakeResource) ReadPage(n page.Number) ([]byte, error) {
	f.reads++
	buf, ok := f.pages[n]
	if !ok {
		return nil, errNotFound(n)
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return cp, nil
}

func (f *fakeResource) WritePage(n page.Number, buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.pages[n] = cp
	return nil
}

func (f *fakeResource) ReserveNewPage() (page.Number, []byte, error) {
	n := f.next
	f.next++
	buf := make([]byte, 8)
	f.pages[n] = buf
	return n, buf, nil
}

type notFoundErr struct{ n page.Number }

func (e notFoundErr) Error() string { return "page not found" }
func errNotFound(n page.Number) error { return notFoundErr{n} }

func TestBufferPoolFetchMissReadsThrough(t *testing.T) {
	bp := NewBufferPool(4)
	rm := newFakeResource()
	rm.pages[1] = []byte{1, 2, 3, 4}
	bp.Register(rm)

	buf, err := bp.FetchAndPin(rm.ID(), 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if buf[0] != 1 {
		t.Fatalf("read-through buffer = %v", buf)
	}
	if rm.reads != 1 {
		t.Fatalf("expected exactly one read-through, got %d", rm.reads)
	}

	bp.Unpin(rm.ID(), 1)
	if _, err := bp.FetchAndPin(rm.ID(), 1); err != nil {
		t.Fatalf("second fetch should hit cache: %v", err)
	}
	if rm.reads != 1 {
		t.Fatalf("second fetch should not re-read, got %d reads", rm.reads)
	}
}

func TestBufferPoolEvictionWritesBackThroughOwner(t *testing.T) {
	bp := NewBufferPool(1)
	rm := newFakeResource()
	rm.pages[1] = []byte{0, 0, 0, 0}
	rm.pages[2] = []byte{0, 0, 0, 0}
	bp.Register(rm)

	buf, err := bp.FetchAndPin(rm.ID(), 1)
	if err != nil {
		t.Fatalf("fetch 1: %v", err)
	}
	buf[0] = 0xAB
	bp.MarkDirty(rm.ID(), 1)
	bp.Unpin(rm.ID(), 1)

	if _, err := bp.FetchAndPin(rm.ID(), 2); err != nil {
		t.Fatalf("fetch 2 (forces eviction of 1): %v", err)
	}
	if rm.pages[1][0] != 0xAB {
		t.Fatalf("dirty page 1 was not written back on eviction, got %v", rm.pages[1])
	}
}

func TestBufferPoolUnregisterFlushesDirtyPages(t *testing.T) {
	bp := NewBufferPool(4)
	rm := newFakeResource()
	rm.pages[1] = []byte{0}
	bp.Register(rm)

	buf, err := bp.FetchAndPin(rm.ID(), 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	buf[0] = 9
	bp.MarkDirty(rm.ID(), 1)
	bp.Unpin(rm.ID(), 1)

	if err := bp.Unregister(rm.ID()); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if rm.pages[1][0] != 9 {
		t.Fatal("dirty page should be flushed on unregister")
	}
	if _, err := bp.FetchAndPin(rm.ID(), 1); err == nil {
		t.Fatal("fetching from an unregistered resource should fail")
	}
}
