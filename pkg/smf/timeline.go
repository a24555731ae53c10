package smf

import (
	"iter"
	"weak"

	"github.com/zurustar/smftool/pkg/smferr"
)

// Timeline is the ordered event sequence of a Track. Insertion order is
// significant: events with equal absolute time keep the order in which they
// were placed. Append, InsertAt and RemoveAt never adjust neighbouring
// delta-times; callers that need to preserve timing do that themselves.
//
// Since delta-times are unsigned, absolute time is non-decreasing in
// sequence order after every mutation.
type Timeline struct {
	owner  weak.Pointer[Track]
	events []Event
}

// Len returns the number of events.
func (tl *Timeline) Len() int {
	return len(tl.events)
}

// At returns the event at index i, or nil when i is out of range.
func (tl *Timeline) At(i int) Event {
	if i < 0 || i >= len(tl.events) {
		return nil
	}
	return tl.events[i]
}

// Last returns the final event, or nil for an empty timeline.
func (tl *Timeline) Last() Event {
	return tl.At(len(tl.events) - 1)
}

// Events returns a copy of the event slice.
func (tl *Timeline) Events() []Event {
	return append([]Event(nil), tl.events...)
}

// All iterates over index and event pairs in sequence order.
func (tl *Timeline) All() iter.Seq2[int, Event] {
	return func(yield func(int, Event) bool) {
		for i, e := range tl.events {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Append adds events at the end and makes the timeline's track their owner.
func (tl *Timeline) Append(events ...Event) error {
	for _, e := range events {
		if e == nil {
			return smferr.Null("event")
		}
	}
	for _, e := range events {
		e.header().owner = tl.owner
		tl.events = append(tl.events, e)
	}
	return nil
}

// InsertAt places e before the event currently at index i. i == Len appends.
func (tl *Timeline) InsertAt(i int, e Event) error {
	if e == nil {
		return smferr.Null("event")
	}
	if err := smferr.CheckRange("timeline index", int64(i), 0, int64(len(tl.events))); err != nil {
		return err
	}
	tl.insert(i, e)
	return nil
}

func (tl *Timeline) insert(i int, e Event) {
	e.header().owner = tl.owner
	tl.events = append(tl.events, nil)
	copy(tl.events[i+1:], tl.events[i:])
	tl.events[i] = e
}

// RemoveAt removes and returns the event at index i and clears its owner.
func (tl *Timeline) RemoveAt(i int) (Event, error) {
	if err := smferr.CheckRange("timeline index", int64(i), 0, int64(len(tl.events))-1); err != nil {
		return nil, err
	}
	e := tl.events[i]
	copy(tl.events[i:], tl.events[i+1:])
	tl.events[len(tl.events)-1] = nil
	tl.events = tl.events[:len(tl.events)-1]
	e.header().owner = weak.Pointer[Track]{}
	return e, nil
}

// IndexOf returns the index of e, or -1.
func (tl *Timeline) IndexOf(e Event) int {
	for i, x := range tl.events {
		if x == e {
			return i
		}
	}
	return -1
}

// Clear removes every event and clears their owners.
func (tl *Timeline) Clear() {
	for i, e := range tl.events {
		e.header().owner = weak.Pointer[Track]{}
		tl.events[i] = nil
	}
	tl.events = tl.events[:0]
}

// AbsoluteTime returns the sum of delta-times up to and including index i.
// Indexes past the end yield the duration; negative indexes yield zero.
func (tl *Timeline) AbsoluteTime(i int) uint64 {
	var abs uint64
	for j := 0; j <= i && j < len(tl.events); j++ {
		abs += uint64(tl.events[j].DeltaTime())
	}
	return abs
}

// AbsoluteTimes returns the absolute time of every event.
func (tl *Timeline) AbsoluteTimes() []uint64 {
	times := make([]uint64, len(tl.events))
	var abs uint64
	for i, e := range tl.events {
		abs += uint64(e.DeltaTime())
		times[i] = abs
	}
	return times
}

// Duration returns the absolute time of the last event.
func (tl *Timeline) Duration() uint64 {
	return tl.AbsoluteTime(len(tl.events) - 1)
}
