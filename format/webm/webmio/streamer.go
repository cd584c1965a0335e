package webmio

import (
	"encoding/binary"
	"errors"
)

var (
	ErrShortRead         = errors.New("webmio: short read")
	ErrNotMatroska       = errors.New("webmio: not a matroska document")
	ErrMalformedElement  = errors.New("webmio: malformed element")
	ErrSizeOverrun       = errors.New("webmio: children exceed master element size")
	ErrUnsupportedLacing = errors.New("webmio: unsupported lacing")
)

// Streamer is a forward-only cursor over an in-memory byte range. It
// reads fixed-width integers and EBML variable-size integers, and keeps
// a stack of octets-read counters so a recursive parser can check how
// much of the enclosing master element it has consumed. The underlying
// slice must outlive the Streamer.
type Streamer struct {
	data       []byte
	pos        int
	octetsRead int
	readStack  []int
}

func NewStreamer(data []byte) *Streamer {
	return &Streamer{data: data}
}

// Data returns the not-yet-consumed tail of the input.
func (s *Streamer) Data() []byte {
	return s.data[s.pos:]
}

func (s *Streamer) HasOctet() bool {
	return s.pos < len(s.data)
}

func (s *Streamer) Remaining() int {
	return len(s.data) - s.pos
}

func (s *Streamer) ReadOctet() (byte, error) {
	if !s.HasOctet() {
		return 0, ErrShortRead
	}
	b := s.data[s.pos]
	s.pos++
	s.octetsRead++
	return b, nil
}

// ReadInt16 reads a big-endian signed 16-bit integer.
func (s *Streamer) ReadInt16() (int16, error) {
	if s.Remaining() < 2 {
		return 0, ErrShortRead
	}
	v := int16(binary.BigEndian.Uint16(s.data[s.pos:]))
	s.pos += 2
	s.octetsRead += 2
	return v, nil
}

func (s *Streamer) DropOctets(n uint64) error {
	if uint64(s.Remaining()) < n {
		return ErrShortRead
	}
	s.pos += int(n)
	s.octetsRead += int(n)
	return nil
}

// OctetsRead reports octets consumed since the last PushOctetsRead (or
// since creation if the stack is empty).
func (s *Streamer) OctetsRead() int {
	return s.octetsRead
}

// PushOctetsRead saves the running octet count and starts a fresh one
// for the scope about to be parsed.
func (s *Streamer) PushOctetsRead() {
	s.readStack = append(s.readStack, s.octetsRead)
	s.octetsRead = 0
}

// PopOctetsRead folds the scope's octet count back into the saved one.
func (s *Streamer) PopOctetsRead() {
	if len(s.readStack) == 0 {
		return
	}
	saved := s.readStack[len(s.readStack)-1]
	s.readStack = s.readStack[:len(s.readStack)-1]
	s.octetsRead += saved
}

// ReadVInt reads an EBML variable-size integer. The leading-one bit of
// the first octet gives the total width in octets; keepMarker retains
// that bit in the value, which is how element IDs are defined.
func (s *Streamer) ReadVInt(keepMarker bool) (uint64, error) {
	v, _, err := s.readVInt(keepMarker)
	return v, err
}

func (s *Streamer) readVInt(keepMarker bool) (value uint64, width int, err error) {
	first, err := s.ReadOctet()
	if err != nil {
		return 0, 0, err
	}

	marker := byte(0x80)
	width = 1
	for marker != 0 && first&marker == 0 {
		marker >>= 1
		width++
	}
	if marker == 0 {
		return 0, 0, ErrShortRead
	}

	if keepMarker {
		value = uint64(first)
	} else {
		value = uint64(first &^ marker)
	}
	for i := 1; i < width; i++ {
		b, err := s.ReadOctet()
		if err != nil {
			return 0, 0, err
		}
		value = value<<8 | uint64(b)
	}
	return value, width, nil
}

// ReadSignedVInt reads a signed variable-size integer: the unsigned
// value recentered around zero by the width-dependent bias.
func (s *Streamer) ReadSignedVInt() (int64, error) {
	value, width, err := s.readVInt(false)
	if err != nil {
		return 0, err
	}
	bias := int64(1)<<(7*width-1) - 1
	return int64(value) - bias, nil
}
