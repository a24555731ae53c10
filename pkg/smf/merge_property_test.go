package smf

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func buildTrack(deltas []int64, closed bool) (*Track, error) {
	track := NewTrack()
	for i, d := range deltas {
		e, err := NewNoteOn(d, i%16, i%128, 64)
		if err != nil {
			return nil, err
		}
		if err := track.Append(e); err != nil {
			return nil, err
		}
	}
	if closed {
		if err := track.CloseTrack(); err != nil {
			return nil, err
		}
	}
	return track, nil
}

// TestMergePreservesTimingProperty checks that a merge keeps every absolute
// time, in both tracks, and leaves the result ordered.
func TestMergePreservesTimingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	deltas := gen.SliceOf(gen.Int64Range(0, 500))

	properties.Property("target events keep their absolute times", prop.ForAll(
		func(targetDeltas, sourceDeltas []int64, closed bool) bool {
			target, err := buildTrack(targetDeltas, closed)
			if err != nil {
				return false
			}
			source, err := buildTrack(sourceDeltas, false)
			if err != nil {
				return false
			}
			before := map[Event]uint64{}
			for i, at := range target.Timeline().AbsoluteTimes() {
				before[target.Timeline().At(i)] = at
			}

			if err := target.Merge(source); err != nil {
				return false
			}
			times := target.Timeline().AbsoluteTimes()
			for i, e := range target.Timeline().Events() {
				if want, ok := before[e]; ok {
					if _, isEOT := e.(*EndOfTrack); !isEOT && times[i] != want {
						return false
					}
				}
			}
			return true
		},
		deltas, deltas, gen.Bool(),
	))

	properties.Property("incoming events keep their absolute times", prop.ForAll(
		func(targetDeltas, sourceDeltas []int64) bool {
			target, err := buildTrack(targetDeltas, false)
			if err != nil {
				return false
			}
			source, err := buildTrack(sourceDeltas, false)
			if err != nil {
				return false
			}
			want := map[Event]uint64{}
			for i, at := range source.Timeline().AbsoluteTimes() {
				want[source.Timeline().At(i)] = at
			}

			if err := target.Merge(source); err != nil {
				return false
			}
			times := target.Timeline().AbsoluteTimes()
			for i, e := range target.Timeline().Events() {
				if at, ok := want[e]; ok && times[i] != at {
					return false
				}
			}
			return source.Len() == 0
		},
		deltas, deltas,
	))

	properties.Property("merged timeline is ordered and complete", prop.ForAll(
		func(targetDeltas, sourceDeltas []int64, closeTarget, closeSource bool) bool {
			target, err := buildTrack(targetDeltas, closeTarget)
			if err != nil {
				return false
			}
			source, err := buildTrack(sourceDeltas, closeSource)
			if err != nil {
				return false
			}
			n := target.Len()

			if err := target.Merge(source); err != nil {
				return false
			}
			if target.Len() != n+len(sourceDeltas) {
				return false
			}
			if closeTarget && !target.HasEndOfTrack() {
				return false
			}
			for i, e := range target.Timeline().Events() {
				if e.Owner() != target {
					return false
				}
				if _, isEOT := e.(*EndOfTrack); isEOT && i != target.Len()-1 {
					return false
				}
			}
			times := target.Timeline().AbsoluteTimes()
			for i := 1; i < len(times); i++ {
				if times[i] < times[i-1] {
					return false
				}
			}
			return true
		},
		deltas, deltas, gen.Bool(), gen.Bool(),
	))

	properties.Property("merging a track into itself changes nothing", prop.ForAll(
		func(trackDeltas []int64) bool {
			track, err := buildTrack(trackDeltas, true)
			if err != nil {
				return false
			}
			before, err := track.Encode()
			if err != nil {
				return false
			}
			if err := track.Merge(track); err != nil {
				return false
			}
			after, err := track.Encode()
			if err != nil {
				return false
			}
			return string(before) == string(after)
		},
		deltas,
	))

	properties.TestingRun(t)
}
