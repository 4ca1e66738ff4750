package resource

import (
	"encoding/binary"

	"ixdb/errs"
	"ixdb/internal/page"
)

// Header is the 28-byte resource header occupying page 0 of every index
// file (§5): enough to reopen the index without consulting a catalog.
const (
	HeaderSize        = 28
	HeaderMagic uint32 = 0xBADC0FFE
	HeaderVersion uint32 = 0
)

// Attribute flags packed into Header.Flags.
const (
	FlagUnique uint32 = 1 << iota
)

type Header struct {
	Magic              uint32
	Version            uint32
	PageSizeBytes      uint32
	IndexedColumnNumber uint32
	RootPageNumber     page.Number
	FirstLeafPageNumber page.Number
	Flags              uint32
}

// Marshal writes h into buf[0:HeaderSize].
func (h Header) Marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.PageSizeBytes)
	binary.LittleEndian.PutUint32(buf[12:16], h.IndexedColumnNumber)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.RootPageNumber))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(h.FirstLeafPageNumber))
	binary.LittleEndian.PutUint32(buf[24:28], h.Flags)
}

// UnmarshalHeader reads the resource header, rejecting a bad magic or an
// unsupported version as PageFormat (the file is not one of ours, or was
// written by an incompatible build).
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errs.New(errs.PageFormat, "resource: header buffer shorter than %d bytes", HeaderSize)
	}
	h := Header{
		Magic:               binary.LittleEndian.Uint32(buf[0:4]),
		Version:             binary.LittleEndian.Uint32(buf[4:8]),
		PageSizeBytes:       binary.LittleEndian.Uint32(buf[8:12]),
		IndexedColumnNumber: binary.LittleEndian.Uint32(buf[12:16]),
		RootPageNumber:      page.Number(binary.LittleEndian.Uint32(buf[16:20])),
		FirstLeafPageNumber: page.Number(binary.LittleEndian.Uint32(buf[20:24])),
		Flags:               binary.LittleEndian.Uint32(buf[24:28]),
	}
	if h.Magic != HeaderMagic {
		return h, errs.New(errs.PageFormat, "resource: bad magic 0x%08X, want 0x%08X", h.Magic, HeaderMagic)
	}
	if h.Version != HeaderVersion {
		return h, errs.New(errs.PageFormat, "resource: unsupported header version %d", h.Version)
	}
	if !page.Size(h.PageSizeBytes).Valid() {
		return h, errs.New(errs.PageFormat, "resource: invalid page size %d in header", h.PageSizeBytes)
	}
	return h, nil
}

func (h Header) Unique() bool { return h.Flags&FlagUnique != 0 }
