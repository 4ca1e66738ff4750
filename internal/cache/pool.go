package cache

import (
	"sync"

	"ixdb/errs"
	"ixdb/internal/page"
)

// ResourceManager is the narrow view of internal/resource.Manager that
// the buffer pool needs: paged I/O for one resource. Declared here
// rather than imported so the cache package stays free of a dependency
// on the resource package.
type ResourceManager interface {
	ID() page.ResourceID
	ReadPage(n page.Number) ([]byte, error)
	WritePage(n page.Number, buf []byte) error
	ReserveNewPage() (page.Number, []byte, error)
}

// BufferPool is the fetch-on-miss layer above the bare ARC cache: a
// miss reads through to the owning resource manager and the result is
// registered with AddPage; an eviction is written back before its slot
// is reused. The cache itself never performs I/O (§9 design notes).
type BufferPool struct {
	mu        sync.Mutex
	cache     *Cache
	resources map[page.ResourceID]ResourceManager
}

// NewBufferPool wraps a fresh ARC cache sized for capacity resident pages.
func NewBufferPool(capacity int) *BufferPool {
	return &BufferPool{
		cache:     New(capacity),
		resources: make(map[page.ResourceID]ResourceManager),
	}
}

// Register makes rm's pages fetchable through the pool.
func (bp *BufferPool) Register(rm ResourceManager) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.resources[rm.ID()] = rm
}

// Unregister expels every cached page for rm's resource, writing back
// whatever is dirty and unpinned, then forgets the resource manager.
// Pages still pinned are marked expired; later pin attempts fail with
// PageExpired rather than silently reading stale data.
func (bp *BufferPool) Unregister(resourceID page.ResourceID) error {
	bp.mu.Lock()
	rm := bp.resources[resourceID]
	delete(bp.resources, resourceID)
	bp.mu.Unlock()

	evicted := bp.cache.ExpelAllForResource(resourceID)
	if rm == nil {
		return nil
	}
	for _, e := range evicted {
		if e.Dirty {
			if err := rm.WritePage(e.Key.Page, e.Buf); err != nil {
				return err
			}
		}
	}
	logger.Printf("unregistered resource %v, wrote back %d dirty page(s)", resourceID, len(evicted))
	return nil
}

func (bp *BufferPool) resourceFor(id page.ResourceID) (ResourceManager, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	rm, ok := bp.resources[id]
	if !ok {
		return nil, errs.New(errs.IllegalOperation, "cache: resource %v is not registered with this buffer pool", id)
	}
	return rm, nil
}

// FetchAndPin returns the pinned buffer for (resourceID, number),
// reading through to the resource manager on a cache miss and writing
// back any page evicted to make room.
func (bp *BufferPool) FetchAndPin(resourceID page.ResourceID, number page.Number) ([]byte, error) {
	if bp.cache.IsExpired(resourceID, number) {
		return nil, errs.New(errs.PageExpired, "cache: page %d of resource %v has expired", number, resourceID)
	}
	if buf, ok := bp.cache.GetAndPin(resourceID, number); ok {
		return buf, nil
	}

	rm, err := bp.resourceFor(resourceID)
	if err != nil {
		return nil, err
	}
	buf, err := rm.ReadPage(number)
	if err != nil {
		return nil, err
	}
	if err := bp.addAndWriteBack(resourceID, number, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReservePinned allocates a fresh page through rm and registers it in
// the cache already pinned, evicting and writing back as needed.
func (bp *BufferPool) ReservePinned(resourceID page.ResourceID) (page.Number, []byte, error) {
	rm, err := bp.resourceFor(resourceID)
	if err != nil {
		return 0, nil, err
	}
	n, buf, err := rm.ReserveNewPage()
	if err != nil {
		return 0, nil, err
	}
	if err := bp.addAndWriteBack(resourceID, n, buf); err != nil {
		return 0, nil, err
	}
	return n, buf, nil
}

func (bp *BufferPool) addAndWriteBack(resourceID page.ResourceID, number page.Number, buf []byte) error {
	evicted, err := bp.cache.AddPage(resourceID, number, buf)
	if err != nil {
		return err
	}
	if evicted != nil && evicted.Dirty {
		owner, err := bp.resourceFor(evicted.Key.Resource)
		if err == nil {
			if werr := owner.WritePage(evicted.Key.Page, evicted.Buf); werr != nil {
				return werr
			}
			logger.Printf("evicted dirty page %d of resource %v, wrote back", evicted.Key.Page, evicted.Key.Resource)
		}
	}
	return nil
}

// Unpin releases a pin acquired through FetchAndPin or ReservePinned.
func (bp *BufferPool) Unpin(resourceID page.ResourceID, number page.Number) {
	bp.cache.Unpin(resourceID, number)
}

// MarkDirty flags a pinned page as modified so eviction writes it back.
func (bp *BufferPool) MarkDirty(resourceID page.ResourceID, number page.Number) {
	bp.cache.MarkDirty(resourceID, number)
}

// Flush writes back every dirty resident page belonging to resourceID
// without evicting it, leaving pins and recency untouched.
func (bp *BufferPool) Flush(resourceID page.ResourceID) error {
	rm, err := bp.resourceFor(resourceID)
	if err != nil {
		return err
	}
	for _, k := range bp.cache.residentKeysFor(resourceID) {
		buf, ok := bp.cache.GetPage(resourceID, k.Page)
		if !ok {
			continue
		}
		if bp.cache.isDirty(k) {
			if err := rm.WritePage(k.Page, buf); err != nil {
				return err
			}
			bp.cache.clearDirty(k)
		}
	}
	return nil
}
