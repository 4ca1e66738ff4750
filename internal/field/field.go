package field

import "ixdb/errs"

// Field is the common contract every scalar variant satisfies. It mirrors
// the operations of the data model's typed field codec: byteLength,
// isNull, encode, compare, clone and the string round-trip.
type Field interface {
	// Type returns the declared type (kind + length parameter).
	Type() Type
	// IsNull reports whether the value is the NULL sentinel for its kind.
	IsNull() bool
	// ByteLength returns how many bytes Encode will write for this value.
	// Equal to Type().FixedWidth() for every kind except VARCHAR.
	ByteLength() int
	// Encode writes the value at buf[offset:] and returns the number of
	// bytes written.
	Encode(buf []byte, offset int) (int, error)
	// EncodeAsString renders the value in the kind's canonical textual form.
	EncodeAsString() string
	// Compare returns -1, 0, or 1. NULL sorts less than any non-NULL value
	// of the same kind; comparing across kinds is an IllegalOperation.
	Compare(other Field) (int, error)
	// Clone returns an independent copy of the value.
	Clone() Field
}

// Arithmetic is implemented by the numeric kinds (SMALL_INT, INT, BIG_INT,
// FLOAT, DOUBLE). Operations mutate the receiver in place and do not check
// for NULL operands — the caller must.
type Arithmetic interface {
	Field
	AddInPlace(other Field) error
	SubInPlace(other Field) error
	MulInPlace(other Field) error
	DivInPlace(other Field) error
	AsLong() int64
	AsDouble() float64
}

// Decode parses a Field of the given type out of buf[offset:offset+length].
// length is required (rather than inferred) because VARCHAR's on-page
// length is implicit in the caller-supplied slice, not self-describing.
func Decode(t Type, buf []byte, offset, length int) (Field, error) {
	if offset < 0 || length < 0 || offset+length > len(buf) {
		return nil, errs.New(errs.PageFormat, "field: decode out of range (offset=%d length=%d buflen=%d)", offset, length, len(buf))
	}
	data := buf[offset : offset+length]
	switch t.Kind {
	case SmallInt:
		return decodeSmallInt(data)
	case Int:
		return decodeInt(data)
	case BigInt:
		return decodeBigInt(data)
	case Float:
		return decodeFloat(data)
	case Double:
		return decodeDouble(data)
	case Char:
		return decodeChar(t, data)
	case Varchar:
		return decodeVarchar(t, data)
	case Date:
		return decodeDate(data)
	case Time:
		return decodeTime(data)
	case Timestamp:
		return decodeTimestamp(data)
	case RID:
		return decodeRID(data)
	default:
		return nil, errs.New(errs.BadFormat, "field: unknown kind %v", t.Kind)
	}
}

// FromString parses a Field from its textual representation, failing with
// BadFormat on malformed input or overflow relative to the declared type
// (e.g. a CHAR(n) string longer than n characters).
func FromString(t Type, s string) (Field, error) {
	switch t.Kind {
	case SmallInt:
		return smallIntFromString(s)
	case Int:
		return intFromString(s)
	case BigInt:
		return bigIntFromString(s)
	case Float:
		return floatFromString(s)
	case Double:
		return doubleFromString(s)
	case Char:
		return NewChar(t, s)
	case Varchar:
		return NewVarchar(t, s)
	case Date:
		return dateFromString(s)
	case Time:
		return timeFromString(s)
	case Timestamp:
		return timestampFromString(s)
	case RID:
		return nil, errs.New(errs.IllegalOperation, "field: RID cannot be parsed from a string")
	default:
		return nil, errs.New(errs.BadFormat, "field: unknown kind %v", t.Kind)
	}
}

func requireSameKind(a, b Field) error {
	if a.Type().Kind != b.Type().Kind {
		return errs.New(errs.IllegalOperation, "field: cannot compare %v with %v", a.Type(), b.Type())
	}
	return nil
}

// compareNulls returns the comparison result and true if at least one side
// is NULL (NULL sorts less than any non-NULL; two NULLs compare equal).
func compareNulls(aNull, bNull bool) (int, bool) {
	switch {
	case aNull && bNull:
		return 0, true
	case aNull:
		return -1, true
	case bNull:
		return 1, true
	default:
		return 0, false
	}
}
