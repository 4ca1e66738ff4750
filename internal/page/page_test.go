package page

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Magic: IndexPageMagic, Number: 42, Type: TypeLeaf}
	buf := make([]byte, HeaderSize)
	MarshalHeader(h, buf)
	got, err := UnmarshalHeader(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != h {
		t.Fatalf("roundtrip = %+v, want %+v", got, h)
	}
}

func TestUnmarshalHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	if _, err := UnmarshalHeader(buf); err == nil {
		t.Fatal("expected PageFormat error for zeroed header")
	}
}

func TestUnmarshalHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := UnmarshalHeader(make([]byte, 4)); err == nil {
		t.Fatal("expected PageFormat error for short buffer")
	}
}

func TestSizeValid(t *testing.T) {
	for _, s := range []Size{Size4KiB, Size8KiB, Size16KiB, Size32KiB} {
		if !s.Valid() {
			t.Fatalf("%d should be a valid page size", s)
		}
	}
	if Size(1234).Valid() {
		t.Fatal("1234 should not be a valid page size")
	}
}

func TestNewWritesHeader(t *testing.T) {
	buf := New(Size4KiB, 3, TypeInner)
	if len(buf) != int(Size4KiB) {
		t.Fatalf("buffer length = %d, want %d", len(buf), Size4KiB)
	}
	h, err := UnmarshalHeader(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if h.Number != 3 || h.Type != TypeInner {
		t.Fatalf("header = %+v", h)
	}
}
