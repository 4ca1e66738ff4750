// Package resource owns a single index file end to end: the on-disk
// header, exclusive access to the underlying descriptor, and raw paged
// I/O. It knows nothing about caching or pinning — that is the cache
// package's job, layered on top.
package resource

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"ixdb/errs"
	"ixdb/internal/page"
)

// Manager mediates all reads and writes against one open index file.
// Page 0 is always the resource header; data pages are numbered from 1.
type Manager struct {
	mu       sync.Mutex
	file     *os.File
	id       page.ResourceID
	header   Header
	pageSize page.Size
	pageCount uint32 // total pages including the header page
	closed   bool
}

// Create initializes a fresh index file at path: writes the resource
// header, acquires an exclusive advisory lock, and returns a Manager. The
// header names page 1 as root and first leaf, but no data page is reserved
// yet: the first ReserveNewPage call returns page 1.
func Create(path string, pageSize page.Size, indexedColumn int, unique bool) (*Manager, error) {
	if !pageSize.Valid() {
		return nil, errs.New(errs.BadFormat, "resource: page size %d is not one of the supported sizes", pageSize)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.IO, err, "resource: create %s", path)
	}
	if err := flockExclusive(f); err != nil {
		f.Close()
		return nil, err
	}

	flags := uint32(0)
	if unique {
		flags |= FlagUnique
	}
	h := Header{
		Magic:               HeaderMagic,
		Version:             HeaderVersion,
		PageSizeBytes:       uint32(pageSize),
		IndexedColumnNumber: uint32(indexedColumn),
		RootPageNumber:      1,
		FirstLeafPageNumber: 1,
		Flags:               flags,
	}
	m := &Manager{
		file:      f,
		id:        page.NewResourceID(),
		header:    h,
		pageSize:  pageSize,
		pageCount: 1,
	}
	if err := m.writeHeaderLocked(); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// Open opens an existing index file, validating its header and acquiring
// an exclusive advisory lock so no second process can mutate it
// concurrently (§5 — single-writer resource model).
func Open(path string) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.IO, err, "resource: open %s", path)
	}
	if err := flockExclusive(f); err != nil {
		f.Close()
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IO, err, "resource: stat %s", path)
	}

	headerBuf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IO, err, "resource: read header of %s", path)
	}
	h, err := UnmarshalHeader(headerBuf)
	if err != nil {
		f.Close()
		return nil, err
	}
	ps := page.Size(h.PageSizeBytes)
	count := uint32(info.Size() / int64(ps))

	return &Manager{
		file:      f,
		id:        page.NewResourceID(),
		header:    h,
		pageSize:  ps,
		pageCount: count,
	}, nil
}

func flockExclusive(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		logger.Printf("failed to acquire exclusive lock on %s: %v", f.Name(), err)
		return errs.Wrap(errs.IO, err, "resource: file is locked by another process")
	}
	return nil
}

// ID returns the resource's cache identity.
func (m *Manager) ID() page.ResourceID { return m.id }

// PageSize returns the resource's fixed page size.
func (m *Manager) PageSize() page.Size { return m.pageSize }

// Header returns a copy of the current resource header.
func (m *Manager) Header() Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.header
}

// UpdateHeader mutates the in-memory header under fn and persists it.
// Used when the root page or first-leaf page changes after a split.
func (m *Manager) UpdateHeader(fn func(h *Header)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.header)
	return m.writeHeaderLocked()
}

func (m *Manager) writeHeaderLocked() error {
	buf := make([]byte, HeaderSize)
	m.header.Marshal(buf)
	if _, err := m.file.WriteAt(buf, 0); err != nil {
		return errs.Wrap(errs.IO, err, "resource: write header")
	}
	return nil
}

func (m *Manager) offsetOf(n page.Number) int64 {
	return int64(n) * int64(m.pageSize)
}

// ReadPage reads one full page, verifying its generic header magic.
func (m *Manager) ReadPage(n page.Number) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readPageLocked(n)
}

func (m *Manager) readPageLocked(n page.Number) ([]byte, error) {
	if m.closed {
		return nil, errs.New(errs.IllegalOperation, "resource: manager is closed")
	}
	buf := make([]byte, m.pageSize)
	if _, err := m.file.ReadAt(buf, m.offsetOf(n)); err != nil {
		return nil, errs.Wrap(errs.IO, err, "resource: read page %d", n)
	}
	if _, err := page.UnmarshalHeader(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadPages reads a contiguous run of pages starting at n, batching the
// read behind the same lock acquisition. Nothing else in the module calls
// it; the B+-Tree cursor fetches leaves one at a time through the buffer
// pool.
func (m *Manager) ReadPages(n page.Number, count int) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, count)
	for i := 0; i < count; i++ {
		buf, err := m.readPageLocked(n + page.Number(i))
		if err != nil {
			return nil, err
		}
		out[i] = buf
	}
	return out, nil
}

// WritePage writes back one full page image (the buffer pool's evict or
// flush path — the resource manager performs no buffering of its own).
func (m *Manager) WritePage(n page.Number, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writePageLocked(n, buf)
}

func (m *Manager) writePageLocked(n page.Number, buf []byte) error {
	if m.closed {
		return errs.New(errs.IllegalOperation, "resource: manager is closed")
	}
	if len(buf) != int(m.pageSize) {
		return errs.New(errs.PageFormat, "resource: page buffer is %d bytes, want %d", len(buf), m.pageSize)
	}
	if _, err := m.file.WriteAt(buf, m.offsetOf(n)); err != nil {
		return errs.Wrap(errs.IO, err, "resource: write page %d", n)
	}
	return nil
}

// WritePages writes back a batch of (number, buffer) pairs atomically
// with respect to the manager's own lock. The buffer pool does not use
// it: its write-back goes through WritePage, one page at a time.
func (m *Manager) WritePages(entries map[page.Number][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for n, buf := range entries {
		if err := m.writePageLocked(n, buf); err != nil {
			return err
		}
	}
	return nil
}

// ReserveNewPage allocates the next page number and returns it. The file
// itself is not extended here: the returned buffer is zeroed and not yet
// written to disk, and the file grows when the caller WritePages it.
func (m *Manager) ReserveNewPage() (page.Number, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil, errs.New(errs.IllegalOperation, "resource: manager is closed")
	}
	n := page.Number(m.pageCount)
	m.pageCount++
	return n, make([]byte, m.pageSize), nil
}

// Truncate discards every page from newPageCount onward. Used to reclaim
// space after compaction; not exercised by normal insert/delete paths.
func (m *Manager) Truncate(newPageCount uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errs.New(errs.IllegalOperation, "resource: manager is closed")
	}
	if newPageCount > m.pageCount {
		return errs.New(errs.IllegalOperation, "resource: cannot grow via truncate (%d > %d)", newPageCount, m.pageCount)
	}
	if err := m.file.Truncate(int64(newPageCount) * int64(m.pageSize)); err != nil {
		return errs.Wrap(errs.IO, err, "resource: truncate")
	}
	m.pageCount = newPageCount
	return nil
}

// Close releases the advisory lock and closes the underlying descriptor.
// Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	_ = unix.Flock(int(m.file.Fd()), unix.LOCK_UN)
	if err := m.file.Close(); err != nil {
		return errs.Wrap(errs.IO, err, "resource: close")
	}
	return nil
}

func (m *Manager) String() string {
	return fmt.Sprintf("resource(%s, pageSize=%d, pages=%d)", m.id, m.pageSize, m.pageCount)
}
