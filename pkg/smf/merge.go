package smf

import (
	"fmt"
	"weak"

	"github.com/zurustar/smftool/pkg/logger"
	"github.com/zurustar/smftool/pkg/smferr"
)

// Merge moves every event of source into t. See the package-level Merge.
func (t *Track) Merge(source *Track) error {
	return Merge(t, source)
}

// Merge moves the events of source into target, ordered by absolute time.
//
// Each incoming event keeps the absolute time it had in source and is placed
// after every target event at that same time, so simultaneous events keep
// target-first, then source order. No event already in target changes its
// absolute time. Source end-of-track markers are dropped; a trailing
// end-of-track in target stays last and is pushed back when incoming events
// lie beyond it.
//
// On success source is left empty. On failure both tracks are restored.
// Merging a track into itself is a no-op.
func Merge(target, source *Track) error {
	if target == nil {
		return smferr.Null("target track")
	}
	if source == nil {
		return smferr.Null("source track")
	}
	if target == source {
		return nil
	}

	tl := target.Timeline()
	src := &source.timeline
	times := src.AbsoluteTimes()

	targetSnap := snapshot(tl)
	sourceSnap := snapshot(src)

	merged, dropped := 0, 0
	for i, e := range src.events {
		if _, ok := e.(*EndOfTrack); ok {
			e.header().owner = weak.Pointer[Track]{}
			dropped++
			continue
		}
		if err := tl.splice(e, times[i]); err != nil {
			targetSnap.restore()
			sourceSnap.restore()
			return fmt.Errorf("merging event %d (%s) at tick %d: %w", i, e, times[i], err)
		}
		merged++
	}
	clear(src.events)
	src.events = src.events[:0]

	logger.GetLogger().Debug("Tracks merged",
		"merged", merged,
		"droppedEndOfTrack", dropped,
		"events", tl.Len(),
		"duration", tl.Duration())
	return nil
}

// splice inserts e so that its absolute time is abs, after every event
// already at abs. The delta of the following event shrinks by e's delta so
// that event keeps its absolute time. A trailing EndOfTrack is never
// overtaken: events at or past it go in front of it and it moves to abs
// when abs is later.
func (tl *Timeline) splice(e Event, abs uint64) error {
	limit := len(tl.events)
	eot, hasEOT := tl.Last().(*EndOfTrack)
	if hasEOT {
		limit--
	}

	// Find the first event strictly later than abs; prev is the time of
	// the event before it.
	var prev uint64
	i := 0
	for ; i < limit; i++ {
		next := prev + uint64(tl.events[i].DeltaTime())
		if next > abs {
			break
		}
		prev = next
	}

	delta := abs - prev
	if err := e.SetDeltaTime(int64(delta)); err != nil {
		return err
	}

	switch {
	case i < limit:
		tl.events[i].header().delta -= uint32(delta)
	case hasEOT:
		eotAbs := prev + uint64(eot.delta)
		if abs >= eotAbs {
			eot.delta = 0
		} else {
			eot.delta = uint32(eotAbs - abs)
		}
	}

	tl.insert(i, e)
	return nil
}

type timelineSnapshot struct {
	tl     *Timeline
	events []Event
	deltas []uint32
	owners []weak.Pointer[Track]
}

func snapshot(tl *Timeline) timelineSnapshot {
	s := timelineSnapshot{
		tl:     tl,
		events: tl.Events(),
		deltas: make([]uint32, len(tl.events)),
		owners: make([]weak.Pointer[Track], len(tl.events)),
	}
	for i, e := range tl.events {
		s.deltas[i] = e.header().delta
		s.owners[i] = e.header().owner
	}
	return s
}

func (s timelineSnapshot) restore() {
	for i, e := range s.events {
		e.header().delta = s.deltas[i]
		e.header().owner = s.owners[i]
	}
	s.tl.events = s.events
}
