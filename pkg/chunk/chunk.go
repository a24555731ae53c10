// Package chunk implements the tagged, length-prefixed container used by
// Standard MIDI Files: a 4-byte ASCII tag, a 4-byte big-endian length and
// the payload.
package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/zurustar/smftool/pkg/smferr"
)

// HeaderLen is the size of the tag plus the length field.
const HeaderLen = 8

// Tag is a four-character chunk identifier.
type Tag [4]byte

var (
	// TagHeader identifies the file header chunk.
	TagHeader = Tag{'M', 'T', 'h', 'd'}
	// TagTrack identifies a track chunk.
	TagTrack = Tag{'M', 'T', 'r', 'k'}
)

func (t Tag) String() string {
	return string(t[:])
}

// ParseTag converts a four-character string into a Tag.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != len(t) {
		return t, smferr.CheckRange("chunk tag length", int64(len(s)), 4, 4)
	}
	copy(t[:], s)
	return t, nil
}

func checkPayload(payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return smferr.CheckRange("chunk payload length", int64(len(payload)), 0, math.MaxUint32)
	}
	return nil
}

// Frame returns tag, length and payload as one byte slice.
func Frame(tag Tag, payload []byte) ([]byte, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}
	out := make([]byte, HeaderLen, HeaderLen+len(payload))
	copy(out, tag[:])
	binary.BigEndian.PutUint32(out[4:HeaderLen], uint32(len(payload)))
	return append(out, payload...), nil
}

// Write frames payload and writes it to w. The length is validated before
// anything is written, so a rejected payload leaves w untouched.
func Write(w io.Writer, tag Tag, payload []byte) (int64, error) {
	if w == nil {
		return 0, smferr.Null("writer")
	}
	if err := checkPayload(payload); err != nil {
		return 0, err
	}

	var header [HeaderLen]byte
	copy(header[:], tag[:])
	binary.BigEndian.PutUint32(header[4:], uint32(len(payload)))

	n, err := w.Write(header[:])
	written := int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(payload)
	written += int64(n)
	return written, err
}

// Read reads one chunk from r. io.EOF is returned unchanged when r is
// exhausted exactly at a chunk boundary; any other short read is malformed.
func Read(r io.Reader) (Tag, []byte, error) {
	var tag Tag
	if r == nil {
		return tag, nil, smferr.Null("reader")
	}

	var header [HeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return tag, nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return tag, nil, smferr.Malformed("chunk header truncated")
		}
		return tag, nil, err
	}
	copy(tag[:], header[:4])
	length := binary.BigEndian.Uint32(header[4:])

	// The declared length is untrusted; the buffer grows only as bytes arrive.
	var payload bytes.Buffer
	n, err := io.CopyN(&payload, r, int64(length))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return tag, nil, fmt.Errorf("%w: %s chunk declares %d bytes, got %d", smferr.ErrMalformedData, tag, length, n)
		}
		return tag, nil, err
	}
	return tag, payload.Bytes(), nil
}
