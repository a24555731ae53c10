package smf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/smftool/pkg/smferr"
	"github.com/zurustar/smftool/pkg/vlq"
)

// TestEventFieldValidationProperty checks that constructors accept exactly
// the wire domain of each field.
func TestEventFieldValidationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	properties.Property("note on accepts only 4-bit channels and 7-bit data", prop.ForAll(
		func(channel, note, velocity int) bool {
			_, err := NewNoteOn(0, channel, note, velocity)
			valid := channel >= 0 && channel <= 15 &&
				note >= 0 && note <= 127 &&
				velocity >= 0 && velocity <= 127
			if valid {
				return err == nil
			}
			return errors.Is(err, smferr.ErrOutOfRange)
		},
		gen.IntRange(-4, 20), gen.IntRange(-10, 140), gen.IntRange(-10, 140),
	))

	properties.Property("pitch bend accepts 14-bit values and writes LSB first", prop.ForAll(
		func(value int) bool {
			e, err := NewPitchBend(0, 0, value)
			if value < 0 || value > 0x3FFF {
				return errors.Is(err, smferr.ErrOutOfRange)
			}
			if err != nil {
				return false
			}
			b, err := Encode(e)
			return err == nil && len(b) == 4 &&
				int(b[2])|int(b[3])<<7 == value
		},
		gen.IntRange(-100, 0x4100),
	))

	properties.Property("delta-time accepts the four-byte quantity range", prop.ForAll(
		func(delta int64) bool {
			e := &EndOfTrack{}
			err := e.SetDeltaTime(delta)
			if delta < 0 || delta > vlq.MaxValue {
				return errors.Is(err, smferr.ErrOutOfRange) && e.DeltaTime() == 0
			}
			return err == nil && int64(e.DeltaTime()) == delta
		},
		gen.Int64Range(-10, vlq.MaxValue+10),
	))

	properties.TestingRun(t)
}

// TestCloneProperty checks that a clone encodes identically and shares no
// state with the original.
func TestCloneProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("cloned text events are equivalent and independent", prop.ForAll(
		func(delta int64, kind int, text []byte) bool {
			e, err := NewTextEventBytes(delta, TextKind(kind), text)
			if err != nil {
				return false
			}
			c, ok := e.Clone().(*TextEvent)
			if !ok || c == e || c.Owner() != e.Owner() {
				return false
			}
			orig, err1 := Encode(e)
			cloned, err2 := Encode(c)
			if err1 != nil || err2 != nil || !bytes.Equal(orig, cloned) || c.String() != e.String() {
				return false
			}
			if err := c.SetText("changed"); err != nil {
				return false
			}
			return bytes.Equal(e.Data(), text)
		},
		gen.Int64Range(0, vlq.MaxValue),
		gen.IntRange(int(KindText), int(KindDeviceName)),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("cloned channel events are equivalent", prop.ForAll(
		func(delta int64, channel, controller, value int) bool {
			e, err := NewControlChange(delta, channel, controller, value)
			if err != nil {
				return false
			}
			c := e.Clone()
			orig, err1 := Encode(e)
			cloned, err2 := Encode(c)
			return err1 == nil && err2 == nil && bytes.Equal(orig, cloned)
		},
		gen.Int64Range(0, vlq.MaxValue),
		gen.IntRange(0, 15), gen.IntRange(0, 127), gen.IntRange(0, 127),
	))

	properties.TestingRun(t)
}

// TestDecodeRoundTripProperty checks that text and sysex payloads of any
// length survive encoding and decoding.
func TestDecodeRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("payload bytes survive a decode", prop.ForAll(
		func(text, sysex []byte, delta int64) bool {
			track := NewTrack()
			te, err := NewTextEventBytes(delta, KindLyric, text)
			if err != nil {
				return false
			}
			se, err := NewSysEx(0, sysex)
			if err != nil {
				return false
			}
			if err := track.Append(te, se); err != nil || track.CloseTrack() != nil {
				return false
			}
			payload, err := track.Encode()
			if err != nil {
				return false
			}
			decoded, err := DecodeTrack(payload)
			if err != nil || decoded.Len() != 3 {
				return false
			}
			dt, ok1 := decoded.Timeline().At(0).(*TextEvent)
			ds, ok2 := decoded.Timeline().At(1).(*SysEx)
			return ok1 && ok2 &&
				int64(dt.DeltaTime()) == delta &&
				bytes.Equal(dt.Data(), text) &&
				bytes.Equal(ds.Data(), sysex)
		},
		gen.SliceOf(gen.UInt8()),
		gen.SliceOf(gen.UInt8()),
		gen.Int64Range(0, vlq.MaxValue),
	))

	properties.TestingRun(t)
}
