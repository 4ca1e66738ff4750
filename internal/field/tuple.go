package field

import "ixdb/errs"

// Tuple is an ordered sequence of fields of declared kinds: cloneable,
// field-wise equality-comparable, and lexicographically ordered.
type Tuple struct {
	Fields []Field
}

// NewTuple wraps the given fields as a Tuple. The slice is not copied.
func NewTuple(fields ...Field) Tuple { return Tuple{Fields: fields} }

// Clone returns a deep copy: every field is cloned independently.
func (t Tuple) Clone() Tuple {
	out := make([]Field, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Clone()
	}
	return Tuple{Fields: out}
}

// Equals reports whether every field compares equal, field-wise. Tuples of
// different arity are never equal.
func (t Tuple) Equals(other Tuple) (bool, error) {
	if len(t.Fields) != len(other.Fields) {
		return false, nil
	}
	for i := range t.Fields {
		c, err := t.Fields[i].Compare(other.Fields[i])
		if err != nil {
			return false, err
		}
		if c != 0 {
			return false, nil
		}
	}
	return true, nil
}

// Compare orders two tuples lexicographically by their fields. A shorter
// tuple that is a prefix of a longer one sorts first.
func (t Tuple) Compare(other Tuple) (int, error) {
	n := len(t.Fields)
	if len(other.Fields) < n {
		n = len(other.Fields)
	}
	for i := 0; i < n; i++ {
		c, err := t.Fields[i].Compare(other.Fields[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(t.Fields) < len(other.Fields):
		return -1, nil
	case len(t.Fields) > len(other.Fields):
		return 1, nil
	default:
		return 0, nil
	}
}

// ByteLength returns the sum of every field's encoded length.
func (t Tuple) ByteLength() int {
	n := 0
	for _, f := range t.Fields {
		n += f.ByteLength()
	}
	return n
}

// Encode writes every field in order starting at buf[offset:], returning
// the total bytes written.
func (t Tuple) Encode(buf []byte, offset int) (int, error) {
	written := 0
	for _, f := range t.Fields {
		n, err := f.Encode(buf, offset+written)
		if err != nil {
			return written, errs.Wrap(errs.PageFormat, err, "tuple: encoding field")
		}
		written += n
	}
	return written, nil
}
