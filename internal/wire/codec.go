package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// ErrShortRead is returned by every primitive reader when fewer bytes
// remain in the buffer than the primitive requires. Per §7, callers treat
// this as a fatal protocol error on the connection.
var ErrShortRead = errors.New("wire: short read")

// ErrStringTooLarge is returned by ReadStringSafe when the declared length
// fails its bound check.
var ErrStringTooLarge = errors.New("wire: string exceeds bound")

// Stream is an append-only byte buffer with a read cursor, matching the
// codec described in §4.2: big-endian fixed-width primitives, a
// LEB128-style varuint, and length-prefixed UTF-8 strings.
type Stream struct {
	data   []byte
	cursor int
}

// NewStream creates an empty, writable stream.
func NewStream() *Stream {
	return &Stream{data: make([]byte, 0, 64)}
}

// NewStreamWithCapacity preallocates capacity for a writable stream.
func NewStreamWithCapacity(capacity int) *Stream {
	return &Stream{data: make([]byte, 0, capacity)}
}

// FromBytes wraps an existing byte slice for reading.
func FromBytes(data []byte) *Stream {
	return &Stream{data: data}
}

// Bytes returns the full underlying buffer (ignores the read cursor).
func (s *Stream) Bytes() []byte { return s.data }

// Remaining returns the number of unread bytes.
func (s *Stream) Remaining() int { return len(s.data) - s.cursor }

func (s *Stream) take(n int) ([]byte, error) {
	if s.Remaining() < n {
		return nil, ErrShortRead
	}
	b := s.data[s.cursor : s.cursor+n]
	s.cursor += n
	return b, nil
}

// ReadU8 reads a single byte.
func (s *Stream) ReadU8() (uint8, error) {
	b, err := s.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a big-endian uint16.
func (s *Stream) ReadU16() (uint16, error) {
	b, err := s.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32 reads a big-endian uint32.
func (s *Stream) ReadU32() (uint32, error) {
	b, err := s.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadF32 reads a big-endian IEEE-754 float32.
func (s *Stream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadVaruint reads a LEB128-style varuint: 7 data bits per byte, low byte
// first, MSB of each byte is the continuation flag.
func (s *Stream) ReadVaruint() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := s.ReadU8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, errors.New("wire: varuint too long")
		}
	}
}

// ReadString reads exactly strlen bytes and validates them as UTF-8.
func (s *Stream) ReadString(strlen int) (string, error) {
	b, err := s.take(strlen)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("wire: invalid utf-8")
	}
	return string(b), nil
}

// StringSafeMode selects how ReadStringSafe validates the declared length
// against a bound, matching the original's two validation modes.
type StringSafeMode int

const (
	// StringSafeBound requires length <= max (and, if required, length > 0).
	StringSafeBound StringSafeMode = iota
	// StringSafeEquality requires length == max exactly.
	StringSafeEquality
)

// ReadStringSafe reads a varuint length prefix, validates it against max
// per mode, then reads and NFC-normalizes that many bytes as UTF-8. This
// bounds every client-supplied name/fingerprint/chat/clan-name field before
// it is ever stored or echoed back, per §4.2 and §7's protocol-violation
// error category.
func (s *Stream) ReadStringSafe(max int, mode StringSafeMode, requireNonzero bool) (string, error) {
	length, err := s.ReadVaruint()
	if err != nil {
		return "", err
	}

	switch mode {
	case StringSafeEquality:
		if int(length) != max {
			return "", ErrStringTooLarge
		}
	default:
		if int(length) > max {
			return "", ErrStringTooLarge
		}
		if requireNonzero && length == 0 {
			return "", ErrStringTooLarge
		}
	}

	raw, err := s.take(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", errors.New("wire: invalid utf-8")
	}
	return norm.NFC.String(string(raw)), nil
}

// WriteU8 appends a single byte.
func (s *Stream) WriteU8(v uint8) { s.data = append(s.data, v) }

// WriteU16 appends a big-endian uint16.
func (s *Stream) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	s.data = append(s.data, b[:]...)
}

// WriteU32 appends a big-endian uint32.
func (s *Stream) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.data = append(s.data, b[:]...)
}

// WriteF32 appends a big-endian IEEE-754 float32.
func (s *Stream) WriteF32(v float32) {
	s.WriteU32(math.Float32bits(v))
}

// WriteVaruint appends a LEB128-style varuint.
func (s *Stream) WriteVaruint(v uint32) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		s.data = append(s.data, b)
		if v == 0 {
			return
		}
	}
}

// WriteString appends a varuint length prefix followed by the raw UTF-8
// bytes of value.
func (s *Stream) WriteString(value string) {
	s.WriteVaruint(uint32(len(value)))
	s.data = append(s.data, value...)
}

// WriteRandomBytes appends n caller-supplied bytes verbatim, used for the
// handshake's padding around the cipher value.
func (s *Stream) WriteRandomBytes(b []byte) {
	s.data = append(s.data, b...)
}

// Backspace truncates the last amount bytes written.
func (s *Stream) Backspace(amount int) {
	if amount > len(s.data) {
		amount = len(s.data)
	}
	s.data = s.data[:len(s.data)-amount]
}

// Transcode XORs the entire buffer in place against the keystream derived
// from cipher.
func (s *Stream) Transcode(cipher uint32) {
	Transcode(s.data, cipher)
}
