package btree

import (
	"ixdb/errs"
	"ixdb/internal/cache"
	"ixdb/internal/field"
	"ixdb/internal/page"
	"ixdb/internal/resource"
)

// BTree is a fixed-width-key B+-Tree index layered over one resource,
// reading and writing pages exclusively through a shared buffer pool.
type BTree struct {
	pool     *cache.BufferPool
	resource *resource.Manager
	keyType  field.Type
	pageSize page.Size
}

// Open wires an already-created or already-opened resource into the
// given buffer pool and returns a handle to its B+-Tree.
func Open(pool *cache.BufferPool, rm *resource.Manager, keyType field.Type) *BTree {
	pool.Register(rm)
	return &BTree{pool: pool, resource: rm, keyType: keyType, pageSize: rm.PageSize()}
}

// Create formats a brand-new index file at path and returns its tree:
// the root starts out as a single empty leaf.
func Create(pool *cache.BufferPool, path string, pageSize page.Size, indexedColumn int, unique bool, keyType field.Type) (*BTree, error) {
	rm, err := resource.Create(path, pageSize, indexedColumn, unique)
	if err != nil {
		return nil, err
	}
	pool.Register(rm)
	t := &BTree{pool: pool, resource: rm, keyType: keyType, pageSize: pageSize}

	rootNum, buf, err := pool.ReservePinned(rm.ID())
	if err != nil {
		return nil, err
	}
	InitLeaf(buf, rootNum, keyType)
	pool.MarkDirty(rm.ID(), rootNum)
	pool.Unpin(rm.ID(), rootNum)

	if err := rm.UpdateHeader(func(h *resource.Header) {
		h.RootPageNumber = rootNum
		h.FirstLeafPageNumber = rootNum
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// Close flushes and unregisters the underlying resource from the pool,
// then closes it.
func (t *BTree) Close() error {
	if err := t.pool.Unregister(t.resource.ID()); err != nil {
		return err
	}
	return t.resource.Close()
}

func (t *BTree) fetch(n page.Number) ([]byte, page.Header, error) {
	buf, err := t.pool.FetchAndPin(t.resource.ID(), n)
	if err != nil {
		return nil, page.Header{}, err
	}
	h, err := page.UnmarshalHeader(buf)
	if err != nil {
		t.pool.Unpin(t.resource.ID(), n)
		return nil, page.Header{}, err
	}
	return buf, h, nil
}

func (t *BTree) unpin(n page.Number)     { t.pool.Unpin(t.resource.ID(), n) }
func (t *BTree) markDirty(n page.Number) { t.pool.MarkDirty(t.resource.ID(), n) }

func (t *BTree) allocPage() (page.Number, []byte, error) {
	return t.pool.ReservePinned(t.resource.ID())
}

// ─── Point and range lookup ─────────────────────────────────────────────

// LookupRids returns every RID stored under key, in leaf order. The
// landing leaf from a left-biased descent may hold only keys < key (an
// inner separator promoted from a leaf split is dropped from its left
// child, per the usual B+-Tree promotion rule), so the leaf-to-leaf walk
// below crosses page boundaries unconditionally, exactly like Cursor.Next,
// without consulting KeyContinues: it keeps walking forward past
// entries < key and collecting entries == key until it meets one > key
// or runs out of leaves.
func (t *BTree) LookupRids(key field.Field) ([]*field.RIDField, error) {
	leafNum, err := t.descendToLeaf(key)
	if err != nil {
		return nil, err
	}
	buf, h, err := t.fetch(leafNum)
	if err != nil {
		return nil, err
	}
	if h.Type != page.TypeLeaf {
		t.unpin(leafNum)
		return nil, errs.New(errs.IndexCorrupt, "btree: expected leaf page at %d", leafNum)
	}
	leaf := &LeafPage{newView(buf, t.keyType)}
	pos, err := leaf.search(key)
	if err != nil {
		t.unpin(leafNum)
		return nil, err
	}

	var out []*field.RIDField
	for {
		if pos >= leaf.keyCount() {
			next := leaf.NextLeaf()
			t.unpin(leafNum)
			if next == 0 {
				return out, nil
			}
			buf, h, err := t.fetch(next)
			if err != nil {
				return nil, err
			}
			if h.Type != page.TypeLeaf {
				t.unpin(next)
				return nil, errs.New(errs.IndexCorrupt, "btree: expected leaf page at %d", next)
			}
			leafNum = next
			leaf = &LeafPage{newView(buf, t.keyType)}
			pos = 0
			continue
		}
		k, err := leaf.Key(pos)
		if err != nil {
			t.unpin(leafNum)
			return nil, err
		}
		c, err := k.Compare(key)
		if err != nil {
			t.unpin(leafNum)
			return nil, err
		}
		if c > 0 {
			t.unpin(leafNum)
			return out, nil
		}
		if c == 0 {
			r, err := leaf.RID(pos)
			if err != nil {
				t.unpin(leafNum)
				return nil, err
			}
			out = append(out, r)
		}
		pos++
	}
}

// descendToLeaf walks from the root to the leaf that would contain key,
// left-biased so a range of duplicates is always entered from its
// first occurrence.
func (t *BTree) descendToLeaf(key field.Field) (page.Number, error) {
	n := t.resource.Header().RootPageNumber
	for {
		buf, h, err := t.fetch(n)
		if err != nil {
			return 0, err
		}
		if h.Type == page.TypeLeaf {
			t.unpin(n)
			return n, nil
		}
		inner := &InnerPage{newView(buf, t.keyType)}
		child, err := inner.FindChild(key)
		if err != nil {
			t.unpin(n)
			return 0, err
		}
		t.unpin(n)
		n = child
	}
}

// Cursor performs a lazy, forward-only, non-restartable range scan
// (§6): it is constructed once, each Next() pulls the following
// matching entry, and it cannot be rewound.
type Cursor struct {
	t        *BTree
	leafNum  page.Number
	leaf     *LeafPage
	pos      int
	hi       field.Field
	hiIncl   bool
	exhausted bool
}

// NewCursor opens a cursor over every (key, RID) pair with key >= lo (or
// key > lo if loInclusive is false), or from the very first key if lo is
// nil, stopping once a key compares past hi (or running to the last leaf
// if hi is nil).
func (t *BTree) NewCursor(lo field.Field, hi field.Field, loInclusive bool, hiInclusive bool) (*Cursor, error) {
	var leafNum page.Number
	var err error
	if lo != nil {
		leafNum, err = t.descendToLeaf(lo)
	} else {
		leafNum = t.resource.Header().FirstLeafPageNumber
	}
	if err != nil {
		return nil, err
	}

	buf, h, err := t.fetch(leafNum)
	if err != nil {
		return nil, err
	}
	if h.Type != page.TypeLeaf {
		t.unpin(leafNum)
		return nil, errs.New(errs.IndexCorrupt, "btree: cursor expected a leaf page at %d", leafNum)
	}
	leaf := &LeafPage{newView(buf, t.keyType)}
	pos := 0
	if lo != nil {
		pos, err = leaf.search(lo)
		if err != nil {
			t.unpin(leafNum)
			return nil, err
		}
	}
	c := &Cursor{t: t, leafNum: leafNum, leaf: leaf, pos: pos, hi: hi, hiIncl: hiInclusive}
	if lo != nil && !loInclusive {
		if err := c.skipEqual(lo); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// skipEqual advances the cursor past every leading entry equal to lo,
// crossing leaf boundaries the same way Next does, so an exclusive lower
// bound also works when a key's duplicate run spans more than one leaf.
func (c *Cursor) skipEqual(lo field.Field) error {
	for {
		if c.pos >= c.leaf.keyCount() {
			next := c.leaf.NextLeaf()
			c.t.unpin(c.leafNum)
			if next == 0 {
				c.exhausted = true
				return nil
			}
			buf, h, err := c.t.fetch(next)
			if err != nil {
				return err
			}
			if h.Type != page.TypeLeaf {
				c.t.unpin(next)
				return errs.New(errs.IndexCorrupt, "btree: cursor expected a leaf page at %d", next)
			}
			c.leafNum = next
			c.leaf = &LeafPage{newView(buf, c.t.keyType)}
			c.pos = 0
			continue
		}
		k, err := c.leaf.Key(c.pos)
		if err != nil {
			return err
		}
		cmp, err := k.Compare(lo)
		if err != nil {
			return err
		}
		if cmp != 0 {
			return nil
		}
		c.pos++
	}
}

// Next returns the next (key, RID) pair, or ok=false once the cursor is
// exhausted or has passed the upper bound.
func (c *Cursor) Next() (key field.Field, rid *field.RIDField, ok bool, err error) {
	if c.exhausted {
		return nil, nil, false, nil
	}
	for {
		if c.pos >= c.leaf.keyCount() {
			next := c.leaf.NextLeaf()
			c.t.unpin(c.leafNum)
			if next == 0 {
				c.exhausted = true
				return nil, nil, false, nil
			}
			buf, h, err := c.t.fetch(next)
			if err != nil {
				c.exhausted = true
				return nil, nil, false, err
			}
			if h.Type != page.TypeLeaf {
				c.t.unpin(next)
				c.exhausted = true
				return nil, nil, false, errs.New(errs.IndexCorrupt, "btree: cursor expected a leaf page at %d", next)
			}
			c.leafNum = next
			c.leaf = &LeafPage{newView(buf, c.t.keyType)}
			c.pos = 0
			continue
		}
		k, err := c.leaf.Key(c.pos)
		if err != nil {
			c.exhausted = true
			c.t.unpin(c.leafNum)
			return nil, nil, false, err
		}
		if c.hi != nil {
			cmp, err := k.Compare(c.hi)
			if err != nil {
				c.exhausted = true
				c.t.unpin(c.leafNum)
				return nil, nil, false, err
			}
			if cmp > 0 || (cmp == 0 && !c.hiIncl) {
				c.exhausted = true
				c.t.unpin(c.leafNum)
				return nil, nil, false, nil
			}
		}
		r, err := c.leaf.RID(c.pos)
		if err != nil {
			c.exhausted = true
			c.t.unpin(c.leafNum)
			return nil, nil, false, err
		}
		c.pos++
		return k, r, true, nil
	}
}

// Close releases the cursor's current pin. Safe to call on an already
// exhausted cursor.
func (c *Cursor) Close() {
	if !c.exhausted {
		c.t.unpin(c.leafNum)
		c.exhausted = true
	}
}
