// Package ixdb is the public facade gluing the typed field codec, paged
// resource layer, adaptive-replacement page cache, and B+-Tree index into
// a single Open/Create entry point. It is the one place outside internal/
// that wires all four layers together; everything else in this module is
// an implementation detail reachable only through Index.
package ixdb

import (
	"ixdb/internal/btree"
	"ixdb/internal/cache"
	"ixdb/internal/field"
	"ixdb/internal/page"
	"ixdb/internal/resource"
)

// Options configures a new or reopened index, mirroring the way the
// teacher's pager/buffer-pool layers take an explicit config struct at
// construction rather than relying on package-level defaults.
type Options struct {
	// PageSize is the fixed page size new index files are formatted
	// with. Ignored by Open, which reads the size from the resource
	// header already on disk.
	PageSize page.Size
	// CacheCapacity is the number of resident page slots the buffer
	// pool's ARC cache is sized for.
	CacheCapacity int
	// IndexedColumn is the source table's column number this index is
	// built over, recorded in the resource header for diagnostic tools.
	IndexedColumn int
	// Unique marks the index as enforcing one RID per key.
	Unique bool
}

// DefaultOptions returns sensible defaults: a 4KiB page and a 256-slot
// cache, non-unique.
func DefaultOptions() Options {
	return Options{PageSize: page.Size4KiB, CacheCapacity: 256}
}

// Index is a single open B+-Tree index file, backed by its own resource
// manager and buffer pool.
type Index struct {
	tree    *btree.BTree
	pool    *cache.BufferPool
	rm      *resource.Manager
	keyType field.Type
}

// Create formats a brand-new index file at path for keys of keyType and
// returns it open for use.
func Create(path string, keyType field.Type, opts Options) (*Index, error) {
	pool := cache.NewBufferPool(opts.CacheCapacity)
	tree, err := btree.Create(pool, path, opts.PageSize, opts.IndexedColumn, opts.Unique, keyType)
	if err != nil {
		return nil, err
	}
	return &Index{tree: tree, pool: pool, keyType: keyType}, nil
}

// Open reopens an existing index file at path, acquiring the exclusive
// single-writer lock on it (§5).
func Open(path string, keyType field.Type, opts Options) (*Index, error) {
	rm, err := resource.Open(path)
	if err != nil {
		return nil, err
	}
	pool := cache.NewBufferPool(opts.CacheCapacity)
	tree := btree.Open(pool, rm, keyType)
	return &Index{tree: tree, pool: pool, rm: rm, keyType: keyType}, nil
}

// Insert adds (key, rid), failing with errs.Duplicate on a unique index
// if key is already present.
func (ix *Index) Insert(key field.Field, rid *field.RIDField) error {
	return ix.tree.Insert(key, rid)
}

// LookupRids returns every RID stored under key, possibly spanning
// several leaves on a non-unique index.
func (ix *Index) LookupRids(key field.Field) ([]*field.RIDField, error) {
	return ix.tree.LookupRids(key)
}

// Delete removes the exact (key, rid) entry.
func (ix *Index) Delete(key field.Field, rid *field.RIDField) error {
	return ix.tree.DeleteKeyRIDPair(key, rid)
}

// NewCursor opens a lazy, forward-only range scan over [lo, hi] (or from
// the first/to the last key when lo/hi is nil), with either bound made
// exclusive via loInclusive/hiInclusive.
func (ix *Index) NewCursor(lo, hi field.Field, loInclusive, hiInclusive bool) (*btree.Cursor, error) {
	return ix.tree.NewCursor(lo, hi, loInclusive, hiInclusive)
}

// Close flushes and releases the index's resource.
func (ix *Index) Close() error {
	return ix.tree.Close()
}
