package webmio

import (
	"errors"
	"testing"
)

// appendVInt encodes value as a VINT of the given width, marker bit
// included, for round-trip tests.
func appendVInt(b []byte, value uint64, width int) []byte {
	v := value | uint64(1)<<uint(7*width)
	for i := width - 1; i >= 0; i-- {
		b = append(b, byte(v>>uint(8*i)))
	}
	return b
}

func signedVIntBias(width int) int64 {
	return int64(1)<<uint(7*width-1) - 1
}

func TestReadVInt(t *testing.T) {
	values := []struct {
		In         []byte
		KeepMarker bool
		V          uint64
		Consumed   int
	}{
		{[]byte{0x82}, false, 2, 1},
		{[]byte{0x82}, true, 0x82, 1},
		{[]byte{0x40, 0x02}, false, 2, 2},
		{[]byte{0x1A, 0x45, 0xDF, 0xA3}, true, 0x1A45DFA3, 4},
		{[]byte{0x01, 0, 0, 0, 0, 0, 0, 0x07}, false, 7, 8},
	}
	for _, ex := range values {
		s := NewStreamer(ex.In)
		v, err := s.ReadVInt(ex.KeepMarker)
		if err != nil {
			t.Errorf("% x: unexpected error %v", ex.In, err)
			continue
		}
		if v != ex.V {
			t.Errorf("% x: expected %#x, got %#x", ex.In, ex.V, v)
		}
		if s.OctetsRead() != ex.Consumed {
			t.Errorf("% x: expected %d octets consumed, got %d", ex.In, ex.Consumed, s.OctetsRead())
		}
	}
}

func TestReadVIntErrors(t *testing.T) {
	for _, in := range [][]byte{
		{},
		{0x00},       // no marker bit in the first octet
		{0x40},       // declared width 2, one octet present
		{0x01, 0x02}, // declared width 8, two octets present
	} {
		s := NewStreamer(in)
		if _, err := s.ReadVInt(false); !errors.Is(err, ErrShortRead) {
			t.Errorf("% x: expected ErrShortRead, got %v", in, err)
		}
	}
}

func TestVIntRoundTrip(t *testing.T) {
	for width := 1; width <= 8; width++ {
		max := uint64(1)<<uint(7*width) - 1
		for _, value := range []uint64{0, 1, max / 2, max} {
			b := appendVInt(nil, value, width)
			s := NewStreamer(b)
			v, err := s.ReadVInt(false)
			if err != nil {
				t.Fatalf("width %d value %d: %v", width, value, err)
			}
			if v != value {
				t.Errorf("width %d: expected %d, got %d", width, value, v)
			}
			if s.OctetsRead() != width {
				t.Errorf("width %d: consumed %d octets", width, s.OctetsRead())
			}
		}
	}
}

func TestReadSignedVInt(t *testing.T) {
	values := []struct {
		In []byte
		V  int64
	}{
		{[]byte{0x80}, -63},
		{[]byte{0xBF}, 0},
		{[]byte{0xC0}, 1},
		{[]byte{0xFE}, 63},
		{[]byte{0x40, 0x00}, -8191},
	}
	for _, ex := range values {
		s := NewStreamer(ex.In)
		v, err := s.ReadSignedVInt()
		if err != nil {
			t.Errorf("% x: unexpected error %v", ex.In, err)
			continue
		}
		if v != ex.V {
			t.Errorf("% x: expected %d, got %d", ex.In, ex.V, v)
		}
	}
}

func TestSignedVIntRoundTrip(t *testing.T) {
	for width := 1; width <= 8; width++ {
		bias := signedVIntBias(width)
		for _, value := range []int64{-bias, -1, 0, 1, bias} {
			b := appendVInt(nil, uint64(value+bias), width)
			s := NewStreamer(b)
			v, err := s.ReadSignedVInt()
			if err != nil {
				t.Fatalf("width %d value %d: %v", width, value, err)
			}
			if v != value {
				t.Errorf("width %d: expected %d, got %d", width, value, v)
			}
			if s.OctetsRead() != width {
				t.Errorf("width %d: consumed %d octets", width, s.OctetsRead())
			}
		}
	}
}

func TestReadInt16(t *testing.T) {
	s := NewStreamer([]byte{0x00, 0x05, 0xFF, 0xFE})
	v, err := s.ReadInt16()
	if err != nil || v != 5 {
		t.Errorf("expected 5, got %d (%v)", v, err)
	}
	v, err = s.ReadInt16()
	if err != nil || v != -2 {
		t.Errorf("expected -2, got %d (%v)", v, err)
	}
	if _, err = s.ReadInt16(); !errors.Is(err, ErrShortRead) {
		t.Errorf("expected ErrShortRead, got %v", err)
	}
}

func TestPushPopOctetsRead(t *testing.T) {
	s := NewStreamer([]byte{1, 2, 3, 4, 5, 6})
	s.ReadOctet()
	s.ReadOctet()
	if s.OctetsRead() != 2 {
		t.Fatalf("expected 2 octets read, got %d", s.OctetsRead())
	}

	s.PushOctetsRead()
	if s.OctetsRead() != 0 {
		t.Fatalf("push did not reset the scope counter")
	}
	s.ReadOctet()
	s.ReadOctet()
	s.ReadOctet()
	if s.OctetsRead() != 3 {
		t.Fatalf("expected 3 octets read in scope, got %d", s.OctetsRead())
	}

	s.PopOctetsRead()
	if s.OctetsRead() != 5 {
		t.Fatalf("expected 5 octets read after pop, got %d", s.OctetsRead())
	}
}

func TestDropOctets(t *testing.T) {
	s := NewStreamer([]byte{1, 2, 3})
	if err := s.DropOctets(2); err != nil {
		t.Fatal(err)
	}
	if s.Remaining() != 1 || !s.HasOctet() {
		t.Fatalf("expected one octet remaining, got %d", s.Remaining())
	}
	if got := s.Data(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("unexpected remaining data % x", got)
	}
	if err := s.DropOctets(2); !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}
