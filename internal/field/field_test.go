package field

import (
	"bytes"
	"math"
	"testing"
)

func TestIntRoundTrip(t *testing.T) {
	f := NewInt(-2876)
	buf := make([]byte, 4)
	n, err := f.Encode(buf, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n != 4 {
		t.Fatalf("wrote %d bytes, want 4", n)
	}
	want := []byte{0xC4, 0xF4, 0xFF, 0xFF}
	if !bytes.Equal(buf, want) {
		t.Fatalf("encode(-2876) = % x, want % x", buf, want)
	}
	decoded, err := Decode(Type{Kind: Int}, buf, 0, 4)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.(*IntField).V != -2876 {
		t.Fatalf("decode(% x) = %v, want -2876", buf, decoded.(*IntField).V)
	}
}

func TestRIDPacking(t *testing.T) {
	r, err := NewRID(5, 259)
	if err != nil {
		t.Fatalf("NewRID: %v", err)
	}
	buf := make([]byte, 8)
	if _, err := r.Encode(buf, 0); err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x03, 0x01, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf, want) {
		t.Fatalf("encode(RID{5,259}) = % x, want % x", buf, want)
	}
	decoded, err := Decode(Type{Kind: RID}, buf, 0, 8)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rf := decoded.(*RIDField)
	if rf.PageIndex != 5 || rf.TupleIndex != 259 {
		t.Fatalf("decode = page=%d tuple=%d, want 5,259", rf.PageIndex, rf.TupleIndex)
	}
}

func TestRIDNeverNull(t *testing.T) {
	r, _ := NewRID(0, 0)
	if r.IsNull() {
		t.Fatal("RID must never report NULL")
	}
}

func TestRIDRejectsNegative(t *testing.T) {
	if _, err := NewRID(-1, 0); err == nil {
		t.Fatal("expected error for negative page index")
	}
	if _, err := NewRID(0, -1); err == nil {
		t.Fatal("expected error for negative tuple index")
	}
}

func TestNumericRoundTripAndNullRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
		val  Field
	}{
		{"SMALL_INT", Type{Kind: SmallInt}, NewSmallInt(1234)},
		{"SMALL_INT null", Type{Kind: SmallInt}, NullSmallInt()},
		{"INT", Type{Kind: Int}, NewInt(-99999)},
		{"INT null", Type{Kind: Int}, NullInt()},
		{"BIG_INT", Type{Kind: BigInt}, NewBigInt(1 << 40)},
		{"BIG_INT null", Type{Kind: BigInt}, NullBigInt()},
		{"FLOAT", Type{Kind: Float}, NewFloat(3.5)},
		{"FLOAT null", Type{Kind: Float}, NullFloat()},
		{"DOUBLE", Type{Kind: Double}, NewDouble(-12.25)},
		{"DOUBLE null", Type{Kind: Double}, NullDouble()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := make([]byte, c.val.ByteLength())
			if _, err := c.val.Encode(buf, 0); err != nil {
				t.Fatalf("encode: %v", err)
			}
			decoded, err := Decode(c.typ, buf, 0, len(buf))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if decoded.ByteLength() != c.val.ByteLength() {
				t.Fatalf("byteLength mismatch: %d vs %d", decoded.ByteLength(), c.val.ByteLength())
			}
			if c.val.IsNull() != decoded.IsNull() {
				t.Fatalf("IsNull mismatch: %v vs %v", c.val.IsNull(), decoded.IsNull())
			}
			cmp, err := c.val.Compare(decoded)
			if err != nil {
				t.Fatalf("compare: %v", err)
			}
			if c.val.IsNull() {
				if cmp != 0 {
					t.Fatalf("two NULLs of same kind should compare equal, got %d", cmp)
				}
			} else if cmp != 0 {
				t.Fatalf("round-trip value differs: compare=%d", cmp)
			}
		})
	}
}

func TestNullSortsBeforeNonNull(t *testing.T) {
	lo := NullInt()
	hi := NewInt(-2147483647) // smallest representable non-NULL INT
	c, err := lo.Compare(hi)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if c != -1 {
		t.Fatalf("NULL should sort before non-NULL, got %d", c)
	}
	c2, err := hi.Compare(lo)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if c2 != 1 {
		t.Fatalf("compare should be antisymmetric, got %d", c2)
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	a := NewDouble(1.5)
	b := NewDouble(2.5)
	c1, _ := a.Compare(b)
	c2, _ := b.Compare(a)
	if c1 != -c2 {
		t.Fatalf("compare(a,b)=%d, compare(b,a)=%d, not antisymmetric", c1, c2)
	}
}

func TestArithmeticDoesNotCheckNull(t *testing.T) {
	a := NullInt()
	b := NewInt(5)
	if err := a.AddInPlace(b); err != nil {
		t.Fatalf("AddInPlace should not fail on NULL operand: %v", err)
	}
	// math.MinInt32 + 5 wraps per two's complement in-place arithmetic.
	if a.V != int32(math.MinInt32)+5 {
		t.Fatalf("unexpected result after add: %d", a.V)
	}
}

func TestIllegalOperationOnKindMismatch(t *testing.T) {
	a := NewInt(1)
	b := NewBigInt(1)
	if _, err := a.Compare(b); err == nil {
		t.Fatal("expected IllegalOperation comparing INT to BIG_INT")
	}
	if err := a.AddInPlace(b); err == nil {
		t.Fatal("expected IllegalOperation adding BIG_INT to INT")
	}
}

func TestCharPadsAndDetectsNull(t *testing.T) {
	typ := Type{Kind: Char, Len: 5}
	f, err := NewChar(typ, "ab")
	if err != nil {
		t.Fatalf("NewChar: %v", err)
	}
	if f.ByteLength() != 10 {
		t.Fatalf("CHAR(5) byte length = %d, want 10", f.ByteLength())
	}
	if f.EncodeAsString() != "ab   " {
		t.Fatalf("CHAR(5) value = %q, want %q", f.EncodeAsString(), "ab   ")
	}
	n := NullChar(typ)
	if !n.IsNull() {
		t.Fatal("NullChar should report IsNull")
	}
	if f.IsNull() {
		t.Fatal("non-null CHAR incorrectly reports IsNull")
	}
}

func TestCharOverflowIsBadFormat(t *testing.T) {
	typ := Type{Kind: Char, Len: 2}
	if _, err := NewChar(typ, "abc"); err == nil {
		t.Fatal("expected BadFormat for CHAR(2) overflow")
	}
}

func TestVarcharRoundTripAndNull(t *testing.T) {
	typ := Type{Kind: Varchar, Len: 10}
	f, err := NewVarchar(typ, "hello")
	if err != nil {
		t.Fatalf("NewVarchar: %v", err)
	}
	buf := make([]byte, f.ByteLength())
	if _, err := f.Encode(buf, 0); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(typ, buf, 0, len(buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.EncodeAsString() != "hello" {
		t.Fatalf("round-trip = %q, want %q", decoded.EncodeAsString(), "hello")
	}
	empty := NullVarchar(typ)
	if !empty.IsNull() {
		t.Fatal("zero-length VARCHAR should be NULL")
	}
}

func TestDateConstructionValidatesRanges(t *testing.T) {
	if _, err := NewDate(2024, 0, 31); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	if _, err := NewDate(2024, 12, 1); err == nil {
		t.Fatal("expected BadFormat for month 12 (out of 0..11 range)")
	}
	if _, err := NewDate(2024, 0, 32); err == nil {
		t.Fatal("expected BadFormat for day 32")
	}
}

func TestDateDecodeTrustsThePage(t *testing.T) {
	buf := make([]byte, 4)
	// Encode an out-of-range day directly into the buffer; decode must not
	// validate it (decode performs no such check, per the codec's edge cases).
	buf[0] = 99
	decoded, err := Decode(Type{Kind: Date}, buf, 0, 4)
	if err != nil {
		t.Fatalf("decode should not validate: %v", err)
	}
	if decoded.(*DateField).Day() != 99 {
		t.Fatalf("decode should trust the page verbatim")
	}
}

func TestTimeUTCOffsetBound(t *testing.T) {
	if _, err := NewTime(12, 0, 0, 0, 13*3600*1000); err == nil {
		t.Fatal("expected BadFormat for UTC offset beyond +/-12h")
	}
	if _, err := NewTime(12, 0, 0, 0, 12*3600*1000); err != nil {
		t.Fatalf("+12h offset should be valid: %v", err)
	}
}

func TestTimestampRejectsInvalidComponents(t *testing.T) {
	if _, err := NewTimestamp(2024, 2, 30, 0, 0, 0, 0); err == nil {
		t.Fatal("expected BadFormat for Feb 30")
	}
	if _, err := NewTimestamp(2024, 2, 29, 0, 0, 0, 0); err != nil {
		t.Fatalf("2024 is a leap year, Feb 29 should be valid: %v", err)
	}
}

func TestTupleCloneIsIndependent(t *testing.T) {
	tup := NewTuple(NewInt(1), NewBigInt(2))
	clone := tup.Clone()
	clone.Fields[0].(*IntField).V = 999
	if tup.Fields[0].(*IntField).V == 999 {
		t.Fatal("Clone should not share underlying fields")
	}
}

func TestTupleCompareLexicographic(t *testing.T) {
	a := NewTuple(NewInt(1), NewInt(5))
	b := NewTuple(NewInt(1), NewInt(6))
	c, err := a.Compare(b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if c != -1 {
		t.Fatalf("expected a < b, got %d", c)
	}
	eq, err := a.Equals(a.Clone())
	if err != nil {
		t.Fatalf("equals: %v", err)
	}
	if !eq {
		t.Fatal("a tuple should equal its own clone")
	}
}
