// Package page defines the vocabulary shared by the resource manager, the
// page cache, and the B+-Tree: page sizes, the generic 12-byte index page
// header, and the resource identity a cache key is built from. It is the
// lowest layer in the storage stack — it imports nothing from sibling
// packages, so resource and cache can both depend on it without a cycle.
package page

import (
	"encoding/binary"

	"github.com/google/uuid"

	"ixdb/errs"
)

// Size is one of the closed set of supported page sizes.
type Size uint32

const (
	Size4KiB  Size = 4 * 1024
	Size8KiB  Size = 8 * 1024
	Size16KiB Size = 16 * 1024
	Size32KiB Size = 32 * 1024
)

// Valid reports whether s is one of the closed enumeration of page sizes.
func (s Size) Valid() bool {
	switch s {
	case Size4KiB, Size8KiB, Size16KiB, Size32KiB:
		return true
	default:
		return false
	}
}

// Number addresses a page within one resource (file). 0 is reserved for
// the resource header page; real pages start at 1.
type Number uint32

// ResourceID is the opaque handle the cache keys on. It is independent of
// the resource's filesystem path so a rename or a reopen during a drop
// does not collide with a still-resident cache entry for the old handle.
type ResourceID uuid.UUID

// NewResourceID mints a fresh identity for a newly opened resource.
func NewResourceID() ResourceID { return ResourceID(uuid.New()) }

func (r ResourceID) String() string { return uuid.UUID(r).String() }

// Generic index page header, present at the start of every inner and leaf
// node page (§3): magic identifies the page family, followed by the page
// number and a type code.
const (
	HeaderSize       = 12
	IndexPageMagic   uint32 = 0xFEEDFACE
	TypeInner        uint32 = 1
	TypeLeaf         uint32 = 2
)

// Header is the generic 12-byte prefix every inner/leaf page carries.
type Header struct {
	Magic  uint32
	Number Number
	Type   uint32
}

// MarshalHeader writes h into buf[0:HeaderSize].
func MarshalHeader(h Header, buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Number))
	binary.LittleEndian.PutUint32(buf[8:12], h.Type)
}

// UnmarshalHeader reads the generic header and verifies the magic number,
// failing with PageFormat on a mismatch (persistent corruption, per §7).
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errs.New(errs.PageFormat, "page: buffer shorter than header (%d bytes)", len(buf))
	}
	h := Header{
		Magic:  binary.LittleEndian.Uint32(buf[0:4]),
		Number: Number(binary.LittleEndian.Uint32(buf[4:8])),
		Type:   binary.LittleEndian.Uint32(buf[8:12]),
	}
	if h.Magic != IndexPageMagic {
		return h, errs.New(errs.PageFormat, "page: bad magic 0x%08X, want 0x%08X", h.Magic, IndexPageMagic)
	}
	return h, nil
}

// New allocates a zeroed page buffer of sz and writes the generic header.
func New(sz Size, number Number, typ uint32) []byte {
	buf := make([]byte, sz)
	MarshalHeader(Header{Magic: IndexPageMagic, Number: number, Type: typ}, buf)
	return buf
}
