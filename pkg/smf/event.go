// Package smf models the events and tracks of a Standard MIDI File and
// converts them to and from their exact wire bytes.
//
// Events are grouped into a Track's Timeline. Each event stores the ticks
// elapsed since its predecessor (the delta-time); absolute times are derived
// by summing deltas. Tracks serialize into "MTrk" chunks and can be merged
// by absolute time.
package smf

import (
	"bytes"
	"io"
	"weak"

	"github.com/zurustar/smftool/pkg/smferr"
	"github.com/zurustar/smftool/pkg/vlq"
)

// Event is implemented by every event variant in this package. The set of
// variants is closed.
type Event interface {
	// DeltaTime returns the ticks since the previous event of the same timeline.
	DeltaTime() uint32
	// SetDeltaTime fails with smferr.ErrOutOfRange when d is negative or
	// does not fit in a variable-length quantity.
	SetDeltaTime(d int64) error
	// Owner returns the track the event was last appended to, or nil.
	Owner() *Track
	// WriteTo appends the delta-time and the event bytes to w.
	WriteTo(w io.Writer) (int64, error)
	// Clone returns an independent copy with the same owner.
	Clone() Event
	// String returns a human-readable form for diagnostics.
	String() string

	header() *eventHeader
}

// eventHeader holds the fields common to every variant.
type eventHeader struct {
	delta uint32
	owner weak.Pointer[Track]
}

func (h *eventHeader) header() *eventHeader {
	return h
}

// DeltaTime returns the ticks since the previous event in the track.
func (h *eventHeader) DeltaTime() uint32 {
	return h.delta
}

// SetDeltaTime sets the delta-time. It fails with smferr.ErrOutOfRange outside
// 0-0x0FFFFFFF and leaves the event unchanged.
func (h *eventHeader) SetDeltaTime(d int64) error {
	if err := smferr.CheckRange("delta-time", d, 0, vlq.MaxValue); err != nil {
		return err
	}
	h.delta = uint32(d)
	return nil
}

// Owner returns the track holding the event, or nil.
func (h *eventHeader) Owner() *Track {
	return h.owner.Value()
}

// writeEvent emits the delta-time followed by body in a single write.
func writeEvent(w io.Writer, h *eventHeader, body ...[]byte) (int64, error) {
	if w == nil {
		return 0, smferr.Null("writer")
	}
	buf, err := vlq.Append(make([]byte, 0, 8), h.delta)
	if err != nil {
		return 0, err
	}
	for _, b := range body {
		buf = append(buf, b...)
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// Encode returns the wire bytes of e, delta-time included.
func Encode(e Event) ([]byte, error) {
	if e == nil {
		return nil, smferr.Null("event")
	}
	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func check7Bit(field string, v int) error {
	return smferr.CheckRange(field, int64(v), 0, 0x7F)
}
