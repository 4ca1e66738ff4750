// Package field implements the typed scalar codec described by the storage
// layer's data model: a closed set of kinds, each with a fixed or bounded
// little-endian binary representation, a NULL sentinel, and (for the
// numeric kinds) in-place arithmetic. Every persisted byte in the page
// cache and B+-Tree layers above this package is produced or consumed here.
package field

import "fmt"

// Kind is the closed set of scalar variants. There is no way to extend it
// at runtime — callers switch on Kind, never type-assert past the Field
// interface.
type Kind uint8

const (
	SmallInt Kind = iota
	Int
	BigInt
	Float
	Double
	Char
	Varchar
	Date
	Time
	Timestamp
	RID
)

func (k Kind) String() string {
	switch k {
	case SmallInt:
		return "SMALL_INT"
	case Int:
		return "INT"
	case BigInt:
		return "BIG_INT"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Char:
		return "CHAR"
	case Varchar:
		return "VARCHAR"
	case Date:
		return "DATE"
	case Time:
		return "TIME"
	case Timestamp:
		return "TIMESTAMP"
	case RID:
		return "RID"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsArithmetic reports whether the kind supports AddInPlace/SubInPlace/
// MulInPlace/DivInPlace/AsLong/AsDouble.
func (k Kind) IsArithmetic() bool {
	switch k {
	case SmallInt, Int, BigInt, Float, Double:
		return true
	default:
		return false
	}
}

// IsVariableLength reports whether the kind's on-page size depends on its
// value (only VARCHAR) rather than being fixed by the Type alone.
func (k Kind) IsVariableLength() bool {
	return k == Varchar
}

// Type is a Kind plus the declared length parameter CHAR/VARCHAR carry.
// Len is ignored (and should be zero) for every other kind.
type Type struct {
	Kind Kind
	Len  int // declared character count n, for CHAR(n)/VARCHAR(n)
}

// FixedWidth is the byte width every value of this kind occupies on a page.
// For VARCHAR this is the maximum width (2*Len); the actual encoded length
// of a given value may be smaller and is tracked out of band by the caller
// (internal/btree does not support VARCHAR keys: it sizes every key slot
// with FixedWidth and has no check that rejects a VARCHAR key type).
func (t Type) FixedWidth() int {
	switch t.Kind {
	case SmallInt:
		return 2
	case Int:
		return 4
	case BigInt, Double, Time, Timestamp, RID:
		return 8
	case Float, Date:
		return 4
	case Char, Varchar:
		return 2 * t.Len
	default:
		panic(fmt.Sprintf("field: unknown kind %v", t.Kind))
	}
}

func (t Type) String() string {
	switch t.Kind {
	case Char, Varchar:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Len)
	default:
		return t.Kind.String()
	}
}
