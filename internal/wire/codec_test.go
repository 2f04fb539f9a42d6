package wire

import "testing"

func TestVaruintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 300, 16384, 2097151, 4294967295}
	for _, v := range values {
		s := NewStream()
		s.WriteVaruint(v)
		got, err := FromBytes(s.Bytes()).ReadVaruint()
		if err != nil {
			t.Fatalf("value %d: unexpected error: %v", v, err)
		}
		if got != v {
			t.Fatalf("value %d: round trip got %d", v, got)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	s := NewStream()
	s.WriteString("hello arena")
	got, err := FromBytes(s.Bytes()).ReadStringSafe(32, StringSafeBound, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello arena" {
		t.Fatalf("got %q", got)
	}
}

func TestReadStringSafeRejectsOverBound(t *testing.T) {
	s := NewStream()
	s.WriteString("this name is far too long for the bound")
	_, err := FromBytes(s.Bytes()).ReadStringSafe(8, StringSafeBound, false)
	if err != ErrStringTooLarge {
		t.Fatalf("expected ErrStringTooLarge, got %v", err)
	}
}

func TestReadStringSafeRequireNonzero(t *testing.T) {
	s := NewStream()
	s.WriteString("")
	_, err := FromBytes(s.Bytes()).ReadStringSafe(8, StringSafeBound, true)
	if err != ErrStringTooLarge {
		t.Fatalf("expected ErrStringTooLarge for empty required-nonzero string, got %v", err)
	}
}

func TestReadStringSafeEqualityMode(t *testing.T) {
	s := NewStream()
	s.WriteString("1234")
	_, err := FromBytes(s.Bytes()).ReadStringSafe(4, StringSafeEquality, false)
	if err != nil {
		t.Fatalf("expected exact-length match to pass, got %v", err)
	}

	s2 := NewStream()
	s2.WriteString("123")
	_, err = FromBytes(s2.Bytes()).ReadStringSafe(4, StringSafeEquality, false)
	if err != ErrStringTooLarge {
		t.Fatalf("expected mismatch to fail equality mode, got %v", err)
	}
}

func TestShortReadReturnsError(t *testing.T) {
	s := FromBytes([]byte{0x01})
	_, err := s.ReadU32()
	if err != ErrShortRead {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

func TestFixedWidthPrimitivesRoundTrip(t *testing.T) {
	s := NewStream()
	s.WriteU8(0xAB)
	s.WriteU16(0x1234)
	s.WriteU32(0xDEADBEEF)
	s.WriteF32(3.25)

	r := FromBytes(s.Bytes())
	u8, _ := r.ReadU8()
	u16, _ := r.ReadU16()
	u32, _ := r.ReadU32()
	f32, _ := r.ReadF32()

	if u8 != 0xAB || u16 != 0x1234 || u32 != 0xDEADBEEF || f32 != 3.25 {
		t.Fatalf("round trip mismatch: %x %x %x %v", u8, u16, u32, f32)
	}
}
