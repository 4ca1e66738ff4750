package field

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"ixdb/errs"
)

// RIDField is a physical record pointer: high 32 bits the page index, low
// 32 bits the tuple index within that page. RID is never NULL.
type RIDField struct {
	PageIndex  uint32
	TupleIndex uint32
}

// NewRID rejects negative components, per the codec's edge cases.
func NewRID(pageIndex, tupleIndex int64) (*RIDField, error) {
	if pageIndex < 0 {
		return nil, errs.New(errs.BadFormat, "field: RID page index %d is negative", pageIndex)
	}
	if tupleIndex < 0 {
		return nil, errs.New(errs.BadFormat, "field: RID tuple index %d is negative", tupleIndex)
	}
	return &RIDField{PageIndex: uint32(pageIndex), TupleIndex: uint32(tupleIndex)}, nil
}

func (f *RIDField) Type() Type      { return Type{Kind: RID} }
func (f *RIDField) IsNull() bool    { return false }
func (f *RIDField) ByteLength() int { return 8 }
func (f *RIDField) Clone() Field    { c := *f; return &c }

// combined returns the 64-bit value RIDs compare by: high half the page.
func (f *RIDField) combined() uint64 {
	return uint64(f.PageIndex)<<32 | uint64(f.TupleIndex)
}

func (f *RIDField) Encode(buf []byte, offset int) (int, error) {
	if offset+8 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for RID")
	}
	binary.LittleEndian.PutUint32(buf[offset:], f.TupleIndex)
	binary.LittleEndian.PutUint32(buf[offset+4:], f.PageIndex)
	return 8, nil
}
func (f *RIDField) EncodeAsString() string {
	return fmt.Sprintf("(%d,%d)", f.PageIndex, f.TupleIndex)
}
func (f *RIDField) Compare(other Field) (int, error) {
	o, ok := other.(*RIDField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare RID with %v", other.Type())
	}
	a, b := f.combined(), o.combined()
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	default:
		return 0, nil
	}
}

// decodeRID reads the low 4 bytes as TupleIndex and the high 4 bytes as
// PageIndex, matching Encode's layout (tupleIndex then pageIndex).
func decodeRID(data []byte) (Field, error) {
	if len(data) != 8 {
		return nil, errs.New(errs.PageFormat, "field: RID requires 8 bytes, got %d", len(data))
	}
	tupleIndex := binary.LittleEndian.Uint32(data[0:4])
	pageIndex := binary.LittleEndian.Uint32(data[4:8])
	return &RIDField{PageIndex: pageIndex, TupleIndex: tupleIndex}, nil
}

// ridFromString parses "(page,tuple)" or "page,tuple"; RID.FromString is
// disallowed by the public FromString dispatcher (field.go) per the
// codec's edge case — this helper exists only for internal/test use.
func ridFromString(s string) (*RIDField, error) {
	s = strings.Trim(s, "() ")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, errs.New(errs.BadFormat, "field: invalid RID %q", s)
	}
	p, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	t, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err1 != nil || err2 != nil {
		return nil, errs.New(errs.BadFormat, "field: invalid RID %q", s)
	}
	return NewRID(p, t)
}
