package smf

import (
	"math"
	"slices"
	"time"
)

// TempoChange is a tempo in effect from Tick onwards.
type TempoChange struct {
	Tick             uint64
	MicrosPerQuarter uint32
}

// TempoMap converts ticks to wall-clock time for a metrical division.
type TempoMap struct {
	ppq     int
	changes []TempoChange
	// micros elapsed at each change
	offsets []float64
}

// NewTempoMap builds a map from tempo changes in any order. A default tempo
// is assumed before the first change; later changes at the same tick win.
func NewTempoMap(ppq int, changes []TempoChange) *TempoMap {
	sorted := slices.Clone(changes)
	slices.SortStableFunc(sorted, func(a, b TempoChange) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})

	tm := &TempoMap{ppq: ppq}
	tm.changes = append(tm.changes, TempoChange{Tick: 0, MicrosPerQuarter: DefaultTempo})
	for _, c := range sorted {
		if last := &tm.changes[len(tm.changes)-1]; last.Tick == c.Tick {
			last.MicrosPerQuarter = c.MicrosPerQuarter
			continue
		}
		tm.changes = append(tm.changes, c)
	}
	tm.precalculate()
	return tm
}

func (tm *TempoMap) precalculate() {
	tm.offsets = make([]float64, len(tm.changes))
	for i := 1; i < len(tm.changes); i++ {
		prev := tm.changes[i-1]
		ticks := tm.changes[i].Tick - prev.Tick
		tm.offsets[i] = tm.offsets[i-1] + tm.micros(prev, ticks)
	}
}

func (tm *TempoMap) micros(c TempoChange, ticks uint64) float64 {
	if tm.ppq <= 0 {
		return 0
	}
	return float64(c.MicrosPerQuarter) * float64(ticks) / float64(tm.ppq)
}

// Changes returns the tempo changes, starting with the one at tick 0.
func (tm *TempoMap) Changes() []TempoChange {
	return slices.Clone(tm.changes)
}

// Duration returns the time elapsed from tick 0 to tick. It is zero for
// SMPTE-based files, which have no ticks per quarter note.
func (tm *TempoMap) Duration(tick uint64) time.Duration {
	i, found := slices.BinarySearchFunc(tm.changes, tick, func(c TempoChange, t uint64) int {
		switch {
		case c.Tick < t:
			return -1
		case c.Tick > t:
			return 1
		}
		return 0
	})
	if !found {
		i--
	}
	c := tm.changes[i]
	micros := tm.offsets[i] + tm.micros(c, tick-c.Tick)
	return time.Duration(math.Round(micros * float64(time.Microsecond)))
}

// TempoMap collects every Tempo event of every track.
func (f *File) TempoMap() *TempoMap {
	var changes []TempoChange
	for _, t := range f.Tracks {
		times := t.Timeline().AbsoluteTimes()
		for i, e := range t.Timeline().All() {
			if tempo, ok := e.(*Tempo); ok {
				changes = append(changes, TempoChange{Tick: times[i], MicrosPerQuarter: tempo.MicrosPerQuarter()})
			}
		}
	}
	return NewTempoMap(f.TicksPerQuarter(), changes)
}

// Length returns the playing time of the longest track.
func (f *File) Length() time.Duration {
	return f.TempoMap().Duration(f.Duration())
}
