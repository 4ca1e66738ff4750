// Package cache implements the adaptive-replacement page cache (§4.2):
// an arena of fixed page-sized slots, addressed by (resourceId,
// pageNumber), replaced under the ARC algorithm's T1/T2/B1/B2 lists with
// an adaptively tuned target size p. The cache owns pin counts and dirty
// bits; it never performs I/O itself — eviction hands a dirty buffer
// back to the caller for write-back through the resource manager.
package cache

import (
	"sync"

	"golang.org/x/exp/slices"

	"ixdb/errs"
	"ixdb/internal/page"
)

// frame is one arena slot backing a resident (T1 or T2) page. Ghost
// entries (B1/B2) carry no frame — only the key survives eviction.
type frame struct {
	buf      []byte
	dirty    bool
	pinCount int
	expired  bool
}

// EvictedEntry is handed back to the caller whenever REPLACE reclaims a
// page's slot. When Dirty is set, the caller (the buffer pool) is
// responsible for writing it back through the resource manager before the
// slot is reused.
type EvictedEntry struct {
	Key   Key
	Buf   []byte
	Dirty bool
}

// Cache is one adaptive-replacement cache shared across every open
// resource. Capacity is the total number of resident (T1+T2) slots; the
// ghost lists (B1, B2) are bounded by the same capacity and carry no
// page data.
type Cache struct {
	mu       sync.Mutex
	capacity int
	p        int // target size of T1, 0 <= p <= capacity

	resident map[Key]*frame
	t1       []Key // MRU at the front, LRU at the back
	t2       []Key
	b1       []Key
	b2       []Key
}

// New builds an empty cache with room for capacity resident pages.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		resident: make(map[Key]*frame, capacity),
	}
}

// Len returns the number of pages currently resident (T1 + T2).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.t1) + len(c.t2)
}

func indexOf(list []Key, k Key) int {
	for i, e := range list {
		if e == k {
			return i
		}
	}
	return -1
}

func removeAt(list []Key, i int) []Key {
	return slices.Delete(list, i, i+1)
}

// pushMRU prepends k to the front (MRU end) of list.
func pushMRU(list []Key, k Key) []Key {
	return slices.Insert(list, 0, k)
}

// GetPage returns the buffer for (resource, number) without pinning or
// adjusting recency — a residency peek that leaves pin counts and ARC
// order untouched (BufferPool.Flush uses it).
func (c *Cache) GetPage(resourceID page.ResourceID, number page.Number) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := Key{Resource: resourceID, Page: number}
	f, ok := c.resident[k]
	if !ok || f.expired {
		return nil, false
	}
	return f.buf, true
}

// GetAndPin performs an ARC access on k: a hit in T1 or T2 promotes the
// page to the MRU end of T2 and increments its pin count. A page that is
// not resident (including a B1/B2 ghost) or is expired returns ok=false
// so the caller can fetch the page and call AddPage.
func (c *Cache) GetAndPin(resourceID page.ResourceID, number page.Number) (buf []byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := Key{Resource: resourceID, Page: number}
	f, resident := c.resident[k]
	if !resident || f.expired {
		return nil, false
	}
	if i := indexOf(c.t1, k); i >= 0 {
		c.t1 = removeAt(c.t1, i)
		c.t2 = pushMRU(c.t2, k)
	} else if i := indexOf(c.t2, k); i >= 0 {
		c.t2 = removeAt(c.t2, i)
		c.t2 = pushMRU(c.t2, k)
	}
	f.pinCount++
	return f.buf, true
}

// Unpin decrements a page's pin count. A page at pin count 0 is eligible
// for eviction again.
func (c *Cache) Unpin(resourceID page.ResourceID, number page.Number) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := Key{Resource: resourceID, Page: number}
	if f, ok := c.resident[k]; ok && f.pinCount > 0 {
		f.pinCount--
	}
}

// UnpinAll resets every pin count to zero. Intended for test teardown and
// diagnostic recovery only — normal operation always unpins in balance
// with pins.
func (c *Cache) UnpinAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.resident {
		f.pinCount = 0
	}
}

// MarkDirty flags a resident page as modified, so a future eviction
// writes it back rather than discarding it silently.
func (c *Cache) MarkDirty(resourceID page.ResourceID, number page.Number) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.resident[Key{Resource: resourceID, Page: number}]; ok {
		f.dirty = true
	}
}

// adaptOnB1Hit applies the ARC target-size update for a ghost hit in B1,
// growing p by the B2/B1 length ratio (at least 1); adaptOnB2Hit is its
// mirror image for B2, shrinking p.
func (c *Cache) adaptOnB1Hit() {
	delta := 1
	if len(c.b1) > 0 {
		d := len(c.b2) / len(c.b1)
		if d > delta {
			delta = d
		}
	}
	c.p += delta
	if c.p > c.capacity {
		c.p = c.capacity
	}
}

func (c *Cache) adaptOnB2Hit() {
	delta := 1
	if len(c.b2) > 0 {
		d := len(c.b1) / len(c.b2)
		if d > delta {
			delta = d
		}
	}
	c.p -= delta
	if c.p < 0 {
		c.p = 0
	}
}

// replace evicts one resident page to make room for the incoming key,
// per the ARC REPLACE procedure: prefer evicting the LRU of T1 when T1 is
// non-empty and either above its target size p, or exactly at p while the
// incoming key is a B2 ghost hit; otherwise prefer T2's LRU end. Pinned
// candidates are skipped, falling back to the other list. Returns the evicted entry,
// or CachePinned if no unpinned candidate exists in either list.
func (c *Cache) replace(incomingInB2 bool) (EvictedEntry, error) {
	preferT1 := len(c.t1) >= 1 && (len(c.t1) > c.p || (incomingInB2 && len(c.t1) == c.p))

	if preferT1 {
		if e, ok := c.evictFrom(&c.t1, &c.b1); ok {
			return e, nil
		}
		if e, ok := c.evictFrom(&c.t2, &c.b2); ok {
			return e, nil
		}
	} else {
		if e, ok := c.evictFrom(&c.t2, &c.b2); ok {
			return e, nil
		}
		if e, ok := c.evictFrom(&c.t1, &c.b1); ok {
			return e, nil
		}
	}
	return EvictedEntry{}, errs.New(errs.CachePinned, "cache: no unpinned page available to evict")
}

// evictFrom scans list from the LRU end for the first unpinned entry,
// removes its frame, moves the bare key onto the corresponding ghost
// list, and reports the evicted data.
func (c *Cache) evictFrom(list *[]Key, ghost *[]Key) (EvictedEntry, bool) {
	l := *list
	for i := len(l) - 1; i >= 0; i-- {
		k := l[i]
		f := c.resident[k]
		if f.pinCount > 0 {
			continue
		}
		*list = removeAt(l, i)
		l = *list
		delete(c.resident, k)
		*ghost = pushMRU(*ghost, k)
		c.trimGhost(ghost)
		return EvictedEntry{Key: k, Buf: f.buf, Dirty: f.dirty}, true
	}
	return EvictedEntry{}, false
}

// trimGhost bounds a ghost list so |T1|+|B1| and |T2|+|B2| never exceed
// capacity, dropping the coldest (LRU) ghost entries first.
func (c *Cache) trimGhost(ghost *[]Key) {
	var resident *[]Key
	if ghost == &c.b1 {
		resident = &c.t1
	} else {
		resident = &c.t2
	}
	for len(*resident)+len(*ghost) > c.capacity {
		*ghost = removeAt(*ghost, len(*ghost)-1)
	}
}

// AddPage inserts a freshly fetched page into the cache, running the
// full ARC bookkeeping for cases II-IV (ghost hits and true misses); a
// page that is already resident is a DuplicateCacheEntry. The page is
// pinned once on return. If a slot had to be reclaimed from a resident
// page, that page is returned via evicted (nil otherwise); its Dirty flag
// tells the caller whether to write it back.
func (c *Cache) AddPage(resourceID page.ResourceID, number page.Number, buf []byte) (evicted *EvictedEntry, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := Key{Resource: resourceID, Page: number}
	if _, ok := c.resident[k]; ok {
		return nil, errs.New(errs.DuplicateCacheEntry, "cache: page %v already resident", k)
	}

	var ev *EvictedEntry
	if i := indexOf(c.b1, k); i >= 0 {
		c.adaptOnB1Hit()
		if len(c.t1)+len(c.t2) >= c.capacity {
			e, err := c.replace(false)
			if err != nil {
				return nil, err
			}
			ev = &e
		}
		c.b1 = removeAt(c.b1, i)
		c.t2 = pushMRU(c.t2, k)
	} else if i := indexOf(c.b2, k); i >= 0 {
		c.adaptOnB2Hit()
		if len(c.t1)+len(c.t2) >= c.capacity {
			e, err := c.replace(true)
			if err != nil {
				return nil, err
			}
			ev = &e
		}
		c.b2 = removeAt(c.b2, i)
		c.t2 = pushMRU(c.t2, k)
	} else {
		// Case IV: total miss, not in any list.
		l1 := len(c.t1) + len(c.b1)
		if l1 == c.capacity {
			if len(c.t1) < c.capacity {
				if len(c.b1) > 0 {
					c.b1 = removeAt(c.b1, len(c.b1)-1)
				}
				if len(c.t1)+len(c.t2) >= c.capacity {
					e, err := c.replace(false)
					if err != nil {
						return nil, err
					}
					ev = &e
				}
			} else {
				e, err := c.replace(false)
				if err != nil {
					return nil, err
				}
				ev = &e
			}
		} else if l1 < c.capacity && l1+len(c.t2)+len(c.b2) >= c.capacity {
			if l1+len(c.t2)+len(c.b2) == 2*c.capacity && len(c.b2) > 0 {
				c.b2 = removeAt(c.b2, len(c.b2)-1)
			}
			if len(c.t1)+len(c.t2) >= c.capacity {
				e, err := c.replace(false)
				if err != nil {
					return nil, err
				}
				ev = &e
			}
		}
		c.t1 = pushMRU(c.t1, k)
	}

	c.resident[k] = &frame{buf: buf, pinCount: 1}
	return ev, nil
}

// ExpelAllForResource drops every resident and ghost entry belonging to
// resourceID — used when a resource is dropped or truncated. Entries
// still pinned are marked expired rather than removed immediately;
// PageExpired is returned the next time they are looked up.
func (c *Cache) ExpelAllForResource(resourceID page.ResourceID) []EvictedEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []EvictedEntry
	for k, f := range c.resident {
		if k.Resource != resourceID {
			continue
		}
		if f.pinCount > 0 {
			f.expired = true
			continue
		}
		if f.dirty {
			out = append(out, EvictedEntry{Key: k, Buf: f.buf, Dirty: true})
		}
		delete(c.resident, k)
		c.t1 = removeIfPresent(c.t1, k)
		c.t2 = removeIfPresent(c.t2, k)
	}
	c.b1 = filterResource(c.b1, resourceID)
	c.b2 = filterResource(c.b2, resourceID)
	return out
}

func removeIfPresent(list []Key, k Key) []Key {
	if i := indexOf(list, k); i >= 0 {
		return removeAt(list, i)
	}
	return list
}

func filterResource(list []Key, resourceID page.ResourceID) []Key {
	out := list[:0:0]
	for _, k := range list {
		if k.Resource != resourceID {
			out = append(out, k)
		}
	}
	return out
}

// IsExpired reports whether a page was marked expired by a resource
// expulsion while still pinned.
func (c *Cache) IsExpired(resourceID page.ResourceID, number page.Number) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.resident[Key{Resource: resourceID, Page: number}]
	return ok && f.expired
}

// residentKeysFor lists every resident key belonging to resourceID, for
// the buffer pool's non-evicting Flush.
func (c *Cache) residentKeysFor(resourceID page.ResourceID) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Key
	for k := range c.resident {
		if k.Resource == resourceID {
			out = append(out, k)
		}
	}
	return out
}

func (c *Cache) isDirty(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.resident[k]
	return ok && f.dirty
}

func (c *Cache) clearDirty(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.resident[k]; ok {
		f.dirty = false
	}
}
