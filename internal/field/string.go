package field

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ixdb/errs"
)

// utf16LE is the 16-bit-character-unit codec CHAR/VARCHAR use: every
// character is two little-endian bytes, matching the data model's "encode
// per-character as two little-endian bytes" rule, including surrogate
// pairs for characters outside the Basic Multilingual Plane.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func encodeUTF16LE(s string) ([]byte, error) {
	b, _, err := transform.Bytes(utf16LE.NewEncoder(), []byte(s))
	if err != nil {
		return nil, errs.Wrap(errs.BadFormat, err, "field: cannot encode %q as UTF-16LE", s)
	}
	return b, nil
}

func decodeUTF16LE(b []byte) (string, error) {
	s, _, err := transform.Bytes(utf16LE.NewDecoder(), b)
	if err != nil {
		return "", errs.Wrap(errs.PageFormat, err, "field: invalid UTF-16LE char data")
	}
	return string(s), nil
}

func charUnits(b []byte) []uint16 {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return units
}

func compareCharUnits(a, b []byte) int {
	ua, ub := charUnits(a), charUnits(b)
	n := len(ua)
	if len(ub) < n {
		n = len(ub)
	}
	for i := 0; i < n; i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return cmpInt64(int64(len(ua)), int64(len(ub)))
}

// ── CHAR(n) ─────────────────────────────────────────────────────────────

// CharField is a fixed-length string of n 16-bit character units,
// space-padded on input. NULL is the zero-zero marker in the first unit.
type CharField struct {
	t    Type
	data []byte // always len == 2*t.Len
}

// NewChar builds a CHAR(n) field from s, space-padding to n characters.
// Fails with BadFormat if s encodes to more than n character units.
func NewChar(t Type, s string) (*CharField, error) {
	units, err := encodeUTF16LE(s)
	if err != nil {
		return nil, err
	}
	width := 2 * t.Len
	if len(units) > width {
		return nil, errs.New(errs.BadFormat, "field: CHAR(%d) overflow: %q is %d character units", t.Len, s, len(units)/2)
	}
	data := make([]byte, width)
	copy(data, units)
	// Space-pad the remainder (0x0020 little-endian).
	for i := len(units); i < width; i += 2 {
		data[i] = 0x20
		data[i+1] = 0x00
	}
	return &CharField{t: t, data: data}, nil
}

// NullChar returns the NULL value for CHAR(n): the first unit is 0x0000.
func NullChar(t Type) *CharField {
	data := make([]byte, 2*t.Len)
	// first two bytes already zero; pad rest with spaces to stay well-formed
	for i := 2; i < len(data); i += 2 {
		data[i] = 0x20
	}
	return &CharField{t: t, data: data}
}

func (f *CharField) Type() Type { return f.t }
func (f *CharField) IsNull() bool {
	// Checked before general decoding, per the data model's edge case.
	return len(f.data) >= 2 && f.data[0] == 0 && f.data[1] == 0
}
func (f *CharField) ByteLength() int { return len(f.data) }
func (f *CharField) Clone() Field {
	d := make([]byte, len(f.data))
	copy(d, f.data)
	return &CharField{t: f.t, data: d}
}
func (f *CharField) Encode(buf []byte, offset int) (int, error) {
	if offset+len(f.data) > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for CHAR(%d)", f.t.Len)
	}
	copy(buf[offset:], f.data)
	return len(f.data), nil
}
func (f *CharField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	s, err := decodeUTF16LE(f.data)
	if err != nil {
		return ""
	}
	return s
}
func (f *CharField) Compare(other Field) (int, error) {
	o, ok := other.(*CharField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare CHAR with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return compareCharUnits(f.data, o.data), nil
}

func decodeChar(t Type, data []byte) (Field, error) {
	width := 2 * t.Len
	if len(data) != width {
		return nil, errs.New(errs.PageFormat, "field: CHAR(%d) requires %d bytes, got %d", t.Len, width, len(data))
	}
	d := make([]byte, width)
	copy(d, data)
	return &CharField{t: t, data: d}, nil
}

// ── VARCHAR(n) ──────────────────────────────────────────────────────────

// VarcharField is a variable-length string of at most n 16-bit character
// units. There is no out-of-band NULL bit: a zero-length value (no data
// present) is NULL.
type VarcharField struct {
	t    Type
	data []byte // len 0 means NULL; otherwise an even number of bytes <= 2*t.Len
}

// NewVarchar builds a VARCHAR(n) field from s. Fails with BadFormat if s
// encodes to more than n character units.
func NewVarchar(t Type, s string) (*VarcharField, error) {
	units, err := encodeUTF16LE(s)
	if err != nil {
		return nil, err
	}
	if len(units) > 2*t.Len {
		return nil, errs.New(errs.BadFormat, "field: VARCHAR(%d) overflow: %q is %d character units", t.Len, s, len(units)/2)
	}
	return &VarcharField{t: t, data: units}, nil
}

// NullVarchar returns the NULL value for VARCHAR(n).
func NullVarchar(t Type) *VarcharField { return &VarcharField{t: t} }

func (f *VarcharField) Type() Type      { return f.t }
func (f *VarcharField) IsNull() bool    { return len(f.data) == 0 }
func (f *VarcharField) ByteLength() int { return len(f.data) }
func (f *VarcharField) Clone() Field {
	d := make([]byte, len(f.data))
	copy(d, f.data)
	return &VarcharField{t: f.t, data: d}
}
func (f *VarcharField) Encode(buf []byte, offset int) (int, error) {
	// Only the bytes of the current contents are written; length is
	// implicit in the caller-supplied slice on decode, per the codec's
	// contract — callers are responsible for recording how many bytes to
	// re-read (e.g. a slot length in the page format).
	if offset+len(f.data) > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for VARCHAR(%d)", f.t.Len)
	}
	copy(buf[offset:], f.data)
	return len(f.data), nil
}
func (f *VarcharField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	s, err := decodeUTF16LE(f.data)
	if err != nil {
		return ""
	}
	return s
}
func (f *VarcharField) Compare(other Field) (int, error) {
	o, ok := other.(*VarcharField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare VARCHAR with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return compareCharUnits(f.data, o.data), nil
}

func decodeVarchar(t Type, data []byte) (Field, error) {
	if len(data) > 2*t.Len {
		return nil, errs.New(errs.PageFormat, "field: VARCHAR(%d) payload too long: %d bytes", t.Len, len(data))
	}
	d := make([]byte, len(data))
	copy(d, data)
	return &VarcharField{t: t, data: d}, nil
}
