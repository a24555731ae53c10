package smf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/zurustar/smftool/pkg/chunk"
	"github.com/zurustar/smftool/pkg/smferr"
)

// File formats.
const (
	FormatSingleTrack = 0
	FormatMultiTrack  = 1
	FormatMultiSong   = 2
)

// DefaultDivision is the ticks per quarter note used by NewFile.
const DefaultDivision = 480

const headerPayloadLen = 6

// File is a complete Standard MIDI File: a header chunk followed by tracks.
type File struct {
	Format   uint16
	Division uint16
	Tracks   []*Track
}

// NewFile returns an empty format 1 file at DefaultDivision.
func NewFile() *File {
	return &File{Format: FormatMultiTrack, Division: DefaultDivision}
}

// TicksPerQuarter returns the metrical division, or 0 when the division is
// SMPTE-based (high bit set).
func (f *File) TicksPerQuarter() int {
	if f.Division&0x8000 != 0 {
		return 0
	}
	return int(f.Division)
}

// Duration returns the longest track duration in ticks.
func (f *File) Duration() uint64 {
	var d uint64
	for _, t := range f.Tracks {
		d = max(d, t.Timeline().Duration())
	}
	return d
}

// WriteTo writes the header chunk and every track. All tracks are checked
// and encoded before w is touched, so a rejected file writes nothing.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	if w == nil {
		return 0, smferr.Null("writer")
	}
	if f.Format > FormatMultiSong {
		return 0, smferr.CheckRange("format", int64(f.Format), FormatSingleTrack, FormatMultiSong)
	}
	if len(f.Tracks) > math.MaxUint16 {
		return 0, smferr.CheckRange("track count", int64(len(f.Tracks)), 0, math.MaxUint16)
	}
	if f.Format == FormatSingleTrack && len(f.Tracks) > 1 {
		return 0, fmt.Errorf("%w: format 0 file has %d tracks", smferr.ErrInvalidState, len(f.Tracks))
	}
	payloads := make([][]byte, len(f.Tracks))
	for i, t := range f.Tracks {
		if t == nil {
			return 0, smferr.Null(fmt.Sprintf("track %d", i))
		}
		payload, err := t.chunkPayload()
		if err != nil {
			return 0, fmt.Errorf("track %d: %w", i, err)
		}
		if uint64(len(payload)) > math.MaxUint32 {
			return 0, smferr.CheckRange(fmt.Sprintf("track %d length", i), int64(len(payload)), 0, math.MaxUint32)
		}
		payloads[i] = payload
	}

	var header [headerPayloadLen]byte
	binary.BigEndian.PutUint16(header[0:], f.Format)
	binary.BigEndian.PutUint16(header[2:], uint16(len(f.Tracks)))
	binary.BigEndian.PutUint16(header[4:], f.Division)

	written, err := chunk.Write(w, chunk.TagHeader, header[:])
	if err != nil {
		return written, err
	}
	for i, payload := range payloads {
		n, err := chunk.Write(w, chunk.TagTrack, payload)
		written += n
		if err != nil {
			return written, fmt.Errorf("track %d: %w", i, err)
		}
	}
	return written, nil
}

// Bytes returns the encoded file.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFile decodes a file from r. Chunks other than MTrk after the header
// are skipped. The header's track count is advisory: every track chunk
// present is read, and a mismatch is logged.
//
// A format 0 file carrying more than one track is read as is, with a
// warning. WriteTo rejects such a File until Flatten has merged its tracks.
func ReadFile(r io.Reader, opts ...Option) (*File, error) {
	if r == nil {
		return nil, smferr.Null("reader")
	}
	o := newOptions(opts)

	tag, payload, err := chunk.Read(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, smferr.Malformed("empty input")
		}
		return nil, fmt.Errorf("header: %w", err)
	}
	if tag != chunk.TagHeader {
		return nil, smferr.Malformed("file starts with %q, not %q", tag, chunk.TagHeader)
	}
	if len(payload) < headerPayloadLen {
		return nil, smferr.Malformed("header chunk is %d bytes, want at least %d", len(payload), headerPayloadLen)
	}

	f := &File{
		Format:   binary.BigEndian.Uint16(payload[0:]),
		Division: binary.BigEndian.Uint16(payload[4:]),
	}
	declared := int(binary.BigEndian.Uint16(payload[2:]))

	for {
		tag, payload, err := chunk.Read(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chunk after track %d: %w", len(f.Tracks), err)
		}
		if tag != chunk.TagTrack {
			o.log.Debug("Skipping unknown chunk", "tag", tag.String(), "length", len(payload))
			continue
		}
		t, err := DecodeTrack(payload, opts...)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", len(f.Tracks), err)
		}
		f.Tracks = append(f.Tracks, t)
	}

	if declared != len(f.Tracks) {
		o.log.Warn("Track count differs from header", "declared", declared, "found", len(f.Tracks))
	}
	if f.Format == FormatSingleTrack && len(f.Tracks) > 1 {
		o.log.Warn("Format 0 file holds several tracks; Flatten it before writing", "tracks", len(f.Tracks))
	}
	return f, nil
}

// Flatten merges every track into the first and makes the file format 0.
// The first track keeps or gains an end-of-track marker.
func (f *File) Flatten() error {
	if len(f.Tracks) == 0 {
		f.Format = FormatSingleTrack
		return nil
	}
	target := f.Tracks[0]
	for i, t := range f.Tracks[1:] {
		if err := target.Merge(t); err != nil {
			return fmt.Errorf("track %d: %w", i+1, err)
		}
	}
	if err := target.CloseTrack(); err != nil {
		return err
	}
	target.SetRequireEndOfTrack(true)
	f.Tracks = []*Track{target}
	f.Format = FormatSingleTrack
	return nil
}
