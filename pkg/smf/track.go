package smf

import (
	"bytes"
	"fmt"
	"io"
	"weak"

	"github.com/zurustar/smftool/pkg/chunk"
	"github.com/zurustar/smftool/pkg/smferr"
)

// Track owns one Timeline and serializes it as an "MTrk" chunk.
type Track struct {
	timeline          Timeline
	requireEndOfTrack bool
}

// NewTrack returns an empty track that requires an end-of-track marker
// before it can be written.
func NewTrack() *Track {
	t := &Track{requireEndOfTrack: true}
	t.timeline.owner = weak.Make(t)
	return t
}

// Timeline returns the track's event sequence.
func (t *Track) Timeline() *Timeline {
	if t.timeline.owner == (weak.Pointer[Track]{}) {
		t.timeline.owner = weak.Make(t)
	}
	return &t.timeline
}

// Append adds events to the end of the timeline.
func (t *Track) Append(events ...Event) error {
	return t.Timeline().Append(events...)
}

// Len returns the number of events.
func (t *Track) Len() int {
	return t.timeline.Len()
}

// RequiresEndOfTrack reports whether WriteTo insists on a trailing EndOfTrack.
func (t *Track) RequiresEndOfTrack() bool {
	return t.requireEndOfTrack
}

// SetRequireEndOfTrack sets the end-of-track policy.
func (t *Track) SetRequireEndOfTrack(require bool) {
	t.requireEndOfTrack = require
}

// HasEndOfTrack reports whether the last event is an EndOfTrack.
func (t *Track) HasEndOfTrack() bool {
	_, ok := t.timeline.Last().(*EndOfTrack)
	return ok
}

// CloseTrack appends an EndOfTrack with delta zero unless one is already last.
func (t *Track) CloseTrack() error {
	if t.HasEndOfTrack() {
		return nil
	}
	return t.Append(&EndOfTrack{})
}

// Name returns the text of the last track name event.
func (t *Track) Name() (string, bool) {
	for i := t.timeline.Len() - 1; i >= 0; i-- {
		if te, ok := t.timeline.At(i).(*TextEvent); ok && te.Kind() == KindTrackName {
			return te.Text(), true
		}
	}
	return "", false
}

// Channel returns the channel shared by every voice event, or -1 when the
// track has no voice events or uses more than one channel.
func (t *Track) Channel() int {
	channel := -1
	for _, e := range t.timeline.events {
		ce, ok := e.(ChannelEvent)
		if !ok {
			continue
		}
		switch {
		case channel == -1:
			channel = int(ce.Channel())
		case channel != int(ce.Channel()):
			return -1
		}
	}
	return channel
}

// Clone returns a deep copy whose events are owned by the new track.
func (t *Track) Clone() *Track {
	c := NewTrack()
	c.requireEndOfTrack = t.requireEndOfTrack
	c.timeline.events = make([]Event, 0, t.timeline.Len())
	for _, e := range t.timeline.events {
		ce := e.Clone()
		ce.header().owner = c.timeline.owner
		c.timeline.events = append(c.timeline.events, ce)
	}
	return c
}

// Encode returns the concatenated event bytes without the chunk header.
func (t *Track) Encode() ([]byte, error) {
	var buf bytes.Buffer
	for i, e := range t.timeline.events {
		if _, err := e.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, e, err)
		}
	}
	return buf.Bytes(), nil
}

// WriteTo writes the track as an "MTrk" chunk. The whole payload is encoded
// before w is touched, so an error never leaves a partial chunk behind.
func (t *Track) WriteTo(w io.Writer) (int64, error) {
	if w == nil {
		return 0, smferr.Null("writer")
	}
	payload, err := t.chunkPayload()
	if err != nil {
		return 0, err
	}
	return chunk.Write(w, chunk.TagTrack, payload)
}

// chunkPayload checks the end-of-track policy and encodes the events.
func (t *Track) chunkPayload() ([]byte, error) {
	if t.requireEndOfTrack && !t.HasEndOfTrack() {
		return nil, fmt.Errorf("%w: track does not end with an end-of-track event", smferr.ErrInvalidState)
	}
	return t.Encode()
}
