package field

import (
	"encoding/binary"
	"math"
	"strconv"

	"ixdb/errs"
)

// NULL sentinels for the numeric kinds, per the data model.
const (
	nullSmallInt int16   = math.MinInt16
	nullInt      int32   = math.MinInt32
	nullBigInt   int64   = math.MinInt64
)

var nullFloat = float32(math.NaN())
var nullDouble = math.NaN()

// ── SMALL_INT ───────────────────────────────────────────────────────────

type SmallIntField struct{ V int16 }

func NewSmallInt(v int16) *SmallIntField  { return &SmallIntField{V: v} }
func NullSmallInt() *SmallIntField        { return &SmallIntField{V: nullSmallInt} }
func (f *SmallIntField) Type() Type       { return Type{Kind: SmallInt} }
func (f *SmallIntField) IsNull() bool     { return f.V == nullSmallInt }
func (f *SmallIntField) ByteLength() int  { return 2 }
func (f *SmallIntField) Clone() Field     { c := *f; return &c }
func (f *SmallIntField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	return strconv.FormatInt(int64(f.V), 10)
}
func (f *SmallIntField) Encode(buf []byte, offset int) (int, error) {
	if offset+2 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for SMALL_INT")
	}
	binary.LittleEndian.PutUint16(buf[offset:], uint16(f.V))
	return 2, nil
}
func (f *SmallIntField) Compare(other Field) (int, error) {
	o, ok := other.(*SmallIntField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare SMALL_INT with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return cmpInt64(int64(f.V), int64(o.V)), nil
}
func (f *SmallIntField) AsLong() int64     { return int64(f.V) }
func (f *SmallIntField) AsDouble() float64 { return float64(f.V) }
func (f *SmallIntField) AddInPlace(o Field) error { return smallIntOp(f, o, func(a, b int16) int16 { return a + b }) }
func (f *SmallIntField) SubInPlace(o Field) error { return smallIntOp(f, o, func(a, b int16) int16 { return a - b }) }
func (f *SmallIntField) MulInPlace(o Field) error { return smallIntOp(f, o, func(a, b int16) int16 { return a * b }) }
func (f *SmallIntField) DivInPlace(o Field) error { return smallIntOp(f, o, func(a, b int16) int16 { return a / b }) }

func smallIntOp(f *SmallIntField, other Field, op func(a, b int16) int16) error {
	o, ok := other.(*SmallIntField)
	if !ok {
		return errs.New(errs.IllegalOperation, "field: arithmetic between SMALL_INT and %v", other.Type())
	}
	f.V = op(f.V, o.V)
	return nil
}

func decodeSmallInt(data []byte) (Field, error) {
	if len(data) != 2 {
		return nil, errs.New(errs.PageFormat, "field: SMALL_INT requires 2 bytes, got %d", len(data))
	}
	return &SmallIntField{V: int16(binary.LittleEndian.Uint16(data))}, nil
}

func smallIntFromString(s string) (Field, error) {
	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return nil, errs.Wrap(errs.BadFormat, err, "field: invalid SMALL_INT %q", s)
	}
	return &SmallIntField{V: int16(n)}, nil
}

// ── INT ─────────────────────────────────────────────────────────────────

type IntField struct{ V int32 }

func NewInt(v int32) *IntField      { return &IntField{V: v} }
func NullInt() *IntField            { return &IntField{V: nullInt} }
func (f *IntField) Type() Type      { return Type{Kind: Int} }
func (f *IntField) IsNull() bool    { return f.V == nullInt }
func (f *IntField) ByteLength() int { return 4 }
func (f *IntField) Clone() Field    { c := *f; return &c }
func (f *IntField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	return strconv.FormatInt(int64(f.V), 10)
}
func (f *IntField) Encode(buf []byte, offset int) (int, error) {
	if offset+4 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for INT")
	}
	binary.LittleEndian.PutUint32(buf[offset:], uint32(f.V))
	return 4, nil
}
func (f *IntField) Compare(other Field) (int, error) {
	o, ok := other.(*IntField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare INT with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return cmpInt64(int64(f.V), int64(o.V)), nil
}
func (f *IntField) AsLong() int64     { return int64(f.V) }
func (f *IntField) AsDouble() float64 { return float64(f.V) }
func (f *IntField) AddInPlace(o Field) error { return intOp(f, o, func(a, b int32) int32 { return a + b }) }
func (f *IntField) SubInPlace(o Field) error { return intOp(f, o, func(a, b int32) int32 { return a - b }) }
func (f *IntField) MulInPlace(o Field) error { return intOp(f, o, func(a, b int32) int32 { return a * b }) }
func (f *IntField) DivInPlace(o Field) error { return intOp(f, o, func(a, b int32) int32 { return a / b }) }

func intOp(f *IntField, other Field, op func(a, b int32) int32) error {
	o, ok := other.(*IntField)
	if !ok {
		return errs.New(errs.IllegalOperation, "field: arithmetic between INT and %v", other.Type())
	}
	f.V = op(f.V, o.V)
	return nil
}

func decodeInt(data []byte) (Field, error) {
	if len(data) != 4 {
		return nil, errs.New(errs.PageFormat, "field: INT requires 4 bytes, got %d", len(data))
	}
	return &IntField{V: int32(binary.LittleEndian.Uint32(data))}, nil
}

func intFromString(s string) (Field, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, errs.Wrap(errs.BadFormat, err, "field: invalid INT %q", s)
	}
	return &IntField{V: int32(n)}, nil
}

// ── BIG_INT ─────────────────────────────────────────────────────────────

type BigIntField struct{ V int64 }

func NewBigInt(v int64) *BigIntField { return &BigIntField{V: v} }
func NullBigInt() *BigIntField       { return &BigIntField{V: nullBigInt} }
func (f *BigIntField) Type() Type    { return Type{Kind: BigInt} }
func (f *BigIntField) IsNull() bool  { return f.V == nullBigInt }
func (f *BigIntField) ByteLength() int { return 8 }
func (f *BigIntField) Clone() Field  { c := *f; return &c }
func (f *BigIntField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	return strconv.FormatInt(f.V, 10)
}
func (f *BigIntField) Encode(buf []byte, offset int) (int, error) {
	if offset+8 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for BIG_INT")
	}
	binary.LittleEndian.PutUint64(buf[offset:], uint64(f.V))
	return 8, nil
}
func (f *BigIntField) Compare(other Field) (int, error) {
	o, ok := other.(*BigIntField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare BIG_INT with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return cmpInt64(f.V, o.V), nil
}
func (f *BigIntField) AsLong() int64     { return f.V }
func (f *BigIntField) AsDouble() float64 { return float64(f.V) }
func (f *BigIntField) AddInPlace(o Field) error { return bigIntOp(f, o, func(a, b int64) int64 { return a + b }) }
func (f *BigIntField) SubInPlace(o Field) error { return bigIntOp(f, o, func(a, b int64) int64 { return a - b }) }
func (f *BigIntField) MulInPlace(o Field) error { return bigIntOp(f, o, func(a, b int64) int64 { return a * b }) }
func (f *BigIntField) DivInPlace(o Field) error { return bigIntOp(f, o, func(a, b int64) int64 { return a / b }) }

func bigIntOp(f *BigIntField, other Field, op func(a, b int64) int64) error {
	o, ok := other.(*BigIntField)
	if !ok {
		return errs.New(errs.IllegalOperation, "field: arithmetic between BIG_INT and %v", other.Type())
	}
	f.V = op(f.V, o.V)
	return nil
}

func decodeBigInt(data []byte) (Field, error) {
	if len(data) != 8 {
		return nil, errs.New(errs.PageFormat, "field: BIG_INT requires 8 bytes, got %d", len(data))
	}
	return &BigIntField{V: int64(binary.LittleEndian.Uint64(data))}, nil
}

func bigIntFromString(s string) (Field, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errs.Wrap(errs.BadFormat, err, "field: invalid BIG_INT %q", s)
	}
	return &BigIntField{V: n}, nil
}

// ── FLOAT ───────────────────────────────────────────────────────────────

type FloatField struct{ V float32 }

func NewFloat(v float32) *FloatField { return &FloatField{V: v} }
func NullFloat() *FloatField         { return &FloatField{V: nullFloat} }
func (f *FloatField) Type() Type     { return Type{Kind: Float} }
func (f *FloatField) IsNull() bool   { return math.IsNaN(float64(f.V)) }
func (f *FloatField) ByteLength() int { return 4 }
func (f *FloatField) Clone() Field   { c := *f; return &c }
func (f *FloatField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	return strconv.FormatFloat(float64(f.V), 'g', -1, 32)
}
func (f *FloatField) Encode(buf []byte, offset int) (int, error) {
	if offset+4 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for FLOAT")
	}
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(f.V))
	return 4, nil
}
func (f *FloatField) Compare(other Field) (int, error) {
	o, ok := other.(*FloatField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare FLOAT with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return cmpFloat64(float64(f.V), float64(o.V)), nil
}
func (f *FloatField) AsLong() int64     { return int64(f.V) }
func (f *FloatField) AsDouble() float64 { return float64(f.V) }
func (f *FloatField) AddInPlace(o Field) error { return floatOp(f, o, func(a, b float32) float32 { return a + b }) }
func (f *FloatField) SubInPlace(o Field) error { return floatOp(f, o, func(a, b float32) float32 { return a - b }) }
func (f *FloatField) MulInPlace(o Field) error { return floatOp(f, o, func(a, b float32) float32 { return a * b }) }
func (f *FloatField) DivInPlace(o Field) error { return floatOp(f, o, func(a, b float32) float32 { return a / b }) }

func floatOp(f *FloatField, other Field, op func(a, b float32) float32) error {
	o, ok := other.(*FloatField)
	if !ok {
		return errs.New(errs.IllegalOperation, "field: arithmetic between FLOAT and %v", other.Type())
	}
	f.V = op(f.V, o.V)
	return nil
}

func decodeFloat(data []byte) (Field, error) {
	if len(data) != 4 {
		return nil, errs.New(errs.PageFormat, "field: FLOAT requires 4 bytes, got %d", len(data))
	}
	return &FloatField{V: math.Float32frombits(binary.LittleEndian.Uint32(data))}, nil
}

func floatFromString(s string) (Field, error) {
	n, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, errs.Wrap(errs.BadFormat, err, "field: invalid FLOAT %q", s)
	}
	return &FloatField{V: float32(n)}, nil
}

// ── DOUBLE ──────────────────────────────────────────────────────────────

type DoubleField struct{ V float64 }

func NewDouble(v float64) *DoubleField { return &DoubleField{V: v} }
func NullDouble() *DoubleField         { return &DoubleField{V: nullDouble} }
func (f *DoubleField) Type() Type      { return Type{Kind: Double} }
func (f *DoubleField) IsNull() bool    { return math.IsNaN(f.V) }
func (f *DoubleField) ByteLength() int { return 8 }
func (f *DoubleField) Clone() Field    { c := *f; return &c }
func (f *DoubleField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	return strconv.FormatFloat(f.V, 'g', -1, 64)
}
func (f *DoubleField) Encode(buf []byte, offset int) (int, error) {
	if offset+8 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for DOUBLE")
	}
	binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(f.V))
	return 8, nil
}
func (f *DoubleField) Compare(other Field) (int, error) {
	o, ok := other.(*DoubleField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare DOUBLE with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return cmpFloat64(f.V, o.V), nil
}
func (f *DoubleField) AsLong() int64     { return int64(f.V) }
func (f *DoubleField) AsDouble() float64 { return f.V }
func (f *DoubleField) AddInPlace(o Field) error { return doubleOp(f, o, func(a, b float64) float64 { return a + b }) }
func (f *DoubleField) SubInPlace(o Field) error { return doubleOp(f, o, func(a, b float64) float64 { return a - b }) }
func (f *DoubleField) MulInPlace(o Field) error { return doubleOp(f, o, func(a, b float64) float64 { return a * b }) }
func (f *DoubleField) DivInPlace(o Field) error { return doubleOp(f, o, func(a, b float64) float64 { return a / b }) }

func doubleOp(f *DoubleField, other Field, op func(a, b float64) float64) error {
	o, ok := other.(*DoubleField)
	if !ok {
		return errs.New(errs.IllegalOperation, "field: arithmetic between DOUBLE and %v", other.Type())
	}
	f.V = op(f.V, o.V)
	return nil
}

func decodeDouble(data []byte) (Field, error) {
	if len(data) != 8 {
		return nil, errs.New(errs.PageFormat, "field: DOUBLE requires 8 bytes, got %d", len(data))
	}
	return &DoubleField{V: math.Float64frombits(binary.LittleEndian.Uint64(data))}, nil
}

func doubleFromString(s string) (Field, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errs.Wrap(errs.BadFormat, err, "field: invalid DOUBLE %q", s)
	}
	return &DoubleField{V: n}, nil
}

// ── shared comparators ─────────────────────────────────────────────────

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
