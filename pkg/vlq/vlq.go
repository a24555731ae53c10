// Package vlq implements the MIDI variable-length quantity used for
// delta-times and meta/sysex lengths.
//
// A value is split into 7-bit groups, most significant group first. Every
// byte except the last has its high bit set. Standard MIDI Files limit a
// quantity to four bytes, so the largest representable value is MaxValue.
package vlq

import (
	"errors"
	"io"

	"github.com/zurustar/smftool/pkg/smferr"
)

const (
	// MaxValue is the largest value that fits in MaxLen bytes.
	MaxValue = 0x0FFFFFFF
	// MaxLen is the longest encoding allowed in a Standard MIDI File.
	MaxLen = 4

	continuation = 0x80
	groupMask    = 0x7F
)

// Len returns the number of bytes Encode produces for v.
func Len(v uint32) int {
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v uint32) ([]byte, error) {
	if v > MaxValue {
		return dst, smferr.CheckRange("variable-length quantity", int64(v), 0, MaxValue)
	}

	var buf [MaxLen]byte
	i := MaxLen - 1
	buf[i] = byte(v & groupMask)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		buf[i] = byte(v&groupMask) | continuation
	}
	return append(dst, buf[i:]...), nil
}

// Encode returns the encoding of v.
func Encode(v uint32) ([]byte, error) {
	return Append(make([]byte, 0, MaxLen), v)
}

// Write writes the encoding of v to w and returns the number of bytes written.
func Write(w io.Writer, v uint32) (int, error) {
	if w == nil {
		return 0, smferr.Null("writer")
	}
	var buf [MaxLen]byte
	b, err := Append(buf[:0], v)
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

// Decode reads one quantity from the start of b and returns the value and
// the number of bytes consumed.
func Decode(b []byte) (uint32, int, error) {
	var value uint32
	for i, c := range b {
		if i == MaxLen {
			break
		}
		value = value<<7 | uint32(c&groupMask)
		if c&continuation == 0 {
			return value, i + 1, nil
		}
	}
	if len(b) >= MaxLen {
		return 0, 0, smferr.Malformed("variable-length quantity longer than %d bytes", MaxLen)
	}
	return 0, 0, smferr.Malformed("variable-length quantity truncated after %d bytes", len(b))
}

// Read consumes one quantity from r and returns the value and the number
// of bytes consumed.
func Read(r io.ByteReader) (uint32, int, error) {
	if r == nil {
		return 0, 0, smferr.Null("reader")
	}
	var value uint32
	for n := 1; n <= MaxLen; n++ {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, n - 1, smferr.Malformed("variable-length quantity truncated after %d bytes", n-1)
			}
			return 0, n - 1, err
		}
		value = value<<7 | uint32(c&groupMask)
		if c&continuation == 0 {
			return value, n, nil
		}
	}
	return 0, MaxLen, smferr.Malformed("variable-length quantity longer than %d bytes", MaxLen)
}
