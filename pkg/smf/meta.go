package smf

import (
	"fmt"
	"io"
	"math"

	"github.com/zurustar/smftool/pkg/smferr"
	"github.com/zurustar/smftool/pkg/vlq"
)

// StatusMeta introduces every meta event.
const StatusMeta = 0xFF

// Meta event types.
const (
	MetaSequenceNumber    = 0x00
	MetaChannelPrefix     = 0x20
	MetaMIDIPort          = 0x21
	MetaEndOfTrack        = 0x2F
	MetaTempo             = 0x51
	MetaSMPTEOffset       = 0x54
	MetaTimeSignature     = 0x58
	MetaKeySignature      = 0x59
	MetaSequencerSpecific = 0x7F
)

// DefaultTempo is 120 beats per minute in microseconds per quarter note.
const DefaultTempo = 500000

// MetaEvent is a non-sounding event introduced by 0xFF.
type MetaEvent interface {
	Event
	// MetaType returns the byte following 0xFF.
	MetaType() byte
	// Data returns a copy of the payload that follows the length.
	Data() []byte
}

// writeMeta emits delta-time, 0xFF, the type byte, the payload length and the payload.
func writeMeta(w io.Writer, h *eventHeader, typ byte, data []byte) (int64, error) {
	if err := checkPayloadLen("meta data", data); err != nil {
		return 0, err
	}
	length, err := vlq.Append(make([]byte, 0, vlq.MaxLen), uint32(len(data)))
	if err != nil {
		return 0, err
	}
	return writeEvent(w, h, []byte{StatusMeta, typ}, length, data)
}

func checkPayloadLen(field string, b []byte) error {
	return smferr.CheckRange(field+" length", int64(len(b)), 0, vlq.MaxValue)
}

// SequenceNumber identifies a sequence in a format 2 file.
type SequenceNumber struct {
	eventHeader
	number uint16
}

// NewSequenceNumber returns a validated SequenceNumber.
func NewSequenceNumber(delta int64, number int) (*SequenceNumber, error) {
	e := &SequenceNumber{}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetNumber(number); err != nil {
		return nil, err
	}
	return e, nil
}

// Number returns the sequence number.
func (e *SequenceNumber) Number() uint16 { return e.number }
func (e *SequenceNumber) MetaType() byte { return MetaSequenceNumber }
func (e *SequenceNumber) Data() []byte   { return []byte{byte(e.number >> 8), byte(e.number)} }

// SetNumber sets the sequence number. It fails with smferr.ErrOutOfRange outside 0-65535.
func (e *SequenceNumber) SetNumber(n int) error {
	if err := smferr.CheckRange("sequence number", int64(n), 0, math.MaxUint16); err != nil {
		return err
	}
	e.number = uint16(n)
	return nil
}

func (e *SequenceNumber) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaSequenceNumber, e.Data())
}

func (e *SequenceNumber) Clone() Event {
	c := *e
	return &c
}

func (e *SequenceNumber) String() string {
	return fmt.Sprintf("SequenceNumber %d", e.number)
}

// ChannelPrefix associates the following meta and sysex events with a channel.
type ChannelPrefix struct {
	eventHeader
	channel uint8
}

// NewChannelPrefix returns a validated ChannelPrefix.
func NewChannelPrefix(delta int64, channel int) (*ChannelPrefix, error) {
	e := &ChannelPrefix{}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetChannel(channel); err != nil {
		return nil, err
	}
	return e, nil
}

// Channel returns the channel the following meta events refer to.
func (e *ChannelPrefix) Channel() uint8 { return e.channel }
func (e *ChannelPrefix) MetaType() byte { return MetaChannelPrefix }
func (e *ChannelPrefix) Data() []byte   { return []byte{e.channel} }

// SetChannel sets the channel. It fails with smferr.ErrOutOfRange outside 0-15.
func (e *ChannelPrefix) SetChannel(c int) error {
	if err := smferr.CheckRange("channel", int64(c), 0, 15); err != nil {
		return err
	}
	e.channel = uint8(c)
	return nil
}

func (e *ChannelPrefix) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaChannelPrefix, e.Data())
}

func (e *ChannelPrefix) Clone() Event {
	c := *e
	return &c
}

func (e *ChannelPrefix) String() string {
	return fmt.Sprintf("ChannelPrefix ch=%d", e.channel)
}

// MIDIPort names the output port for the track.
type MIDIPort struct {
	eventHeader
	port uint8
}

// NewMIDIPort returns a validated MIDIPort.
func NewMIDIPort(delta int64, port int) (*MIDIPort, error) {
	e := &MIDIPort{}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetPort(port); err != nil {
		return nil, err
	}
	return e, nil
}

// Port returns the output port number.
func (e *MIDIPort) Port() uint8    { return e.port }
func (e *MIDIPort) MetaType() byte { return MetaMIDIPort }
func (e *MIDIPort) Data() []byte   { return []byte{e.port} }

// SetPort sets the port. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *MIDIPort) SetPort(p int) error {
	if err := check7Bit("port", p); err != nil {
		return err
	}
	e.port = uint8(p)
	return nil
}

func (e *MIDIPort) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaMIDIPort, e.Data())
}

func (e *MIDIPort) Clone() Event {
	c := *e
	return &c
}

func (e *MIDIPort) String() string {
	return fmt.Sprintf("MIDIPort %d", e.port)
}

// EndOfTrack marks the end of a track. It must be the last event.
type EndOfTrack struct {
	eventHeader
}

// NewEndOfTrack returns an EndOfTrack delta ticks after the previous event.
func NewEndOfTrack(delta int64) (*EndOfTrack, error) {
	e := &EndOfTrack{}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *EndOfTrack) MetaType() byte { return MetaEndOfTrack }
func (e *EndOfTrack) Data() []byte   { return []byte{} }

func (e *EndOfTrack) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaEndOfTrack, nil)
}

func (e *EndOfTrack) Clone() Event {
	c := *e
	return &c
}

func (e *EndOfTrack) String() string {
	return "EndOfTrack"
}

// Tempo sets microseconds per quarter note.
type Tempo struct {
	eventHeader
	microsPerQuarter uint32
}

// NewTempo returns a validated Tempo.
func NewTempo(delta int64, microsPerQuarter int) (*Tempo, error) {
	e := &Tempo{}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetMicrosPerQuarter(microsPerQuarter); err != nil {
		return nil, err
	}
	return e, nil
}

// NewTempoBPM returns a Tempo for the given beats per minute.
func NewTempoBPM(delta int64, bpm float64) (*Tempo, error) {
	if math.IsNaN(bpm) || bpm <= 0 || 60e6/bpm > 0xFFFFFF {
		return nil, &smferr.RangeError{Field: "bpm", Value: int64(bpm), Min: 4, Max: 60000000}
	}
	return NewTempo(delta, int(math.Round(60e6/bpm)))
}

// MicrosPerQuarter returns the quarter-note length in microseconds.
func (e *Tempo) MicrosPerQuarter() uint32 { return e.microsPerQuarter }
func (e *Tempo) MetaType() byte           { return MetaTempo }

func (e *Tempo) Data() []byte {
	t := e.microsPerQuarter
	return []byte{byte(t >> 16), byte(t >> 8), byte(t)}
}

// BPM returns the tempo in beats per minute.
func (e *Tempo) BPM() float64 {
	if e.microsPerQuarter == 0 {
		return 0
	}
	return 60e6 / float64(e.microsPerQuarter)
}

// SetMicrosPerQuarter sets the tempo. It fails with smferr.ErrOutOfRange outside 1-0xFFFFFF.
func (e *Tempo) SetMicrosPerQuarter(t int) error {
	if err := smferr.CheckRange("tempo", int64(t), 1, 0xFFFFFF); err != nil {
		return err
	}
	e.microsPerQuarter = uint32(t)
	return nil
}

func (e *Tempo) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaTempo, e.Data())
}

func (e *Tempo) Clone() Event {
	c := *e
	return &c
}

func (e *Tempo) String() string {
	return fmt.Sprintf("Tempo %dus/qn (%.2f bpm)", e.microsPerQuarter, e.BPM())
}

// SMPTEOffset gives the SMPTE time at which the track starts.
type SMPTEOffset struct {
	eventHeader
	hours, minutes, seconds, frames, fractional uint8
}

// NewSMPTEOffset returns a validated SMPTEOffset. The hours byte carries
// the frame rate in bits 5-6 as stored in the file.
func NewSMPTEOffset(delta int64, hours, minutes, seconds, frames, fractional int) (*SMPTEOffset, error) {
	e := &SMPTEOffset{}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetTime(hours, minutes, seconds, frames, fractional); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *SMPTEOffset) MetaType() byte { return MetaSMPTEOffset }

func (e *SMPTEOffset) Data() []byte {
	return []byte{e.hours, e.minutes, e.seconds, e.frames, e.fractional}
}

// Time returns hours, minutes, seconds, frames and fractional frames.
func (e *SMPTEOffset) Time() (hours, minutes, seconds, frames, fractional uint8) {
	return e.hours, e.minutes, e.seconds, e.frames, e.fractional
}

// SetTime validates and stores every field, or none of them.
func (e *SMPTEOffset) SetTime(hours, minutes, seconds, frames, fractional int) error {
	checks := []error{
		check7Bit("smpte hours", hours),
		smferr.CheckRange("smpte minutes", int64(minutes), 0, 59),
		smferr.CheckRange("smpte seconds", int64(seconds), 0, 59),
		smferr.CheckRange("smpte frames", int64(frames), 0, 30),
		smferr.CheckRange("smpte fractional frames", int64(fractional), 0, 99),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	e.hours, e.minutes, e.seconds = uint8(hours), uint8(minutes), uint8(seconds)
	e.frames, e.fractional = uint8(frames), uint8(fractional)
	return nil
}

func (e *SMPTEOffset) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaSMPTEOffset, e.Data())
}

func (e *SMPTEOffset) Clone() Event {
	c := *e
	return &c
}

func (e *SMPTEOffset) String() string {
	return fmt.Sprintf("SMPTEOffset %02d:%02d:%02d:%02d.%02d", e.hours&0x1F, e.minutes, e.seconds, e.frames, e.fractional)
}

// TimeSignature sets the meter. The denominator is stored as a power of two.
type TimeSignature struct {
	eventHeader
	numerator      uint8
	denominatorExp uint8
	clocksPerClick uint8
	thirtySeconds  uint8
}

// NewTimeSignature returns a TimeSignature for numerator/denominator with
// the conventional 24 clocks per click and 8 thirty-seconds per quarter.
func NewTimeSignature(delta int64, numerator, denominator int) (*TimeSignature, error) {
	e := &TimeSignature{clocksPerClick: 24, thirtySeconds: 8}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetNumerator(numerator); err != nil {
		return nil, err
	}
	if err := e.SetDenominator(denominator); err != nil {
		return nil, err
	}
	return e, nil
}

// Numerator returns the beats per bar.
func (e *TimeSignature) Numerator() uint8 { return e.numerator }

// Denominator returns the beat unit as a note value, for example 4 for quarters.
func (e *TimeSignature) Denominator() int { return 1 << e.denominatorExp }

// ClocksPerClick returns the MIDI clocks per metronome click.
func (e *TimeSignature) ClocksPerClick() uint8 { return e.clocksPerClick }

// ThirtySeconds returns the notated 32nd notes per MIDI quarter note.
func (e *TimeSignature) ThirtySeconds() uint8 { return e.thirtySeconds }
func (e *TimeSignature) MetaType() byte       { return MetaTimeSignature }

func (e *TimeSignature) Data() []byte {
	return []byte{e.numerator, e.denominatorExp, e.clocksPerClick, e.thirtySeconds}
}

// SetNumerator fails with smferr.ErrOutOfRange outside 1-255.
func (e *TimeSignature) SetNumerator(n int) error {
	if err := smferr.CheckRange("time signature numerator", int64(n), 1, math.MaxUint8); err != nil {
		return err
	}
	e.numerator = uint8(n)
	return nil
}

// SetDenominator accepts a power of two from 1 to 128.
func (e *TimeSignature) SetDenominator(d int) error {
	if err := smferr.CheckRange("time signature denominator", int64(d), 1, 128); err != nil {
		return err
	}
	if d&(d-1) != 0 {
		return &smferr.RangeError{Field: "time signature denominator (power of two)", Value: int64(d), Min: 1, Max: 128}
	}
	exp := uint8(0)
	for d > 1 {
		d >>= 1
		exp++
	}
	e.denominatorExp = exp
	return nil
}

// SetClocksPerClick fails with smferr.ErrOutOfRange outside 0-255.
func (e *TimeSignature) SetClocksPerClick(c int) error {
	if err := smferr.CheckRange("clocks per click", int64(c), 0, math.MaxUint8); err != nil {
		return err
	}
	e.clocksPerClick = uint8(c)
	return nil
}

// SetThirtySeconds fails with smferr.ErrOutOfRange outside 0-255.
func (e *TimeSignature) SetThirtySeconds(n int) error {
	if err := smferr.CheckRange("thirty-second notes per quarter", int64(n), 0, math.MaxUint8); err != nil {
		return err
	}
	e.thirtySeconds = uint8(n)
	return nil
}

func (e *TimeSignature) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaTimeSignature, e.Data())
}

func (e *TimeSignature) Clone() Event {
	c := *e
	return &c
}

func (e *TimeSignature) String() string {
	return fmt.Sprintf("TimeSignature %d/%d clocks=%d 32nds=%d", e.numerator, e.Denominator(), e.clocksPerClick, e.thirtySeconds)
}

// KeySignature sets the key as a count of sharps (positive) or flats
// (negative) and a major/minor flag.
type KeySignature struct {
	eventHeader
	accidentals int8
	minor       bool
}

// NewKeySignature returns a validated KeySignature.
func NewKeySignature(delta int64, accidentals int, minor bool) (*KeySignature, error) {
	e := &KeySignature{minor: minor}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetAccidentals(accidentals); err != nil {
		return nil, err
	}
	return e, nil
}

// Accidentals returns sharps as positive and flats as negative counts.
func (e *KeySignature) Accidentals() int8 { return e.accidentals }

// Minor reports a minor key.
func (e *KeySignature) Minor() bool    { return e.minor }
func (e *KeySignature) MetaType() byte { return MetaKeySignature }

func (e *KeySignature) Data() []byte {
	mode := byte(0)
	if e.minor {
		mode = 1
	}
	return []byte{byte(e.accidentals), mode}
}

// SetAccidentals fails with smferr.ErrOutOfRange outside -7 to 7.
func (e *KeySignature) SetAccidentals(n int) error {
	if err := smferr.CheckRange("key signature accidentals", int64(n), -7, 7); err != nil {
		return err
	}
	e.accidentals = int8(n)
	return nil
}

// SetMinor selects a minor or major key.
func (e *KeySignature) SetMinor(minor bool) {
	e.minor = minor
}

func (e *KeySignature) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaKeySignature, e.Data())
}

func (e *KeySignature) Clone() Event {
	c := *e
	return &c
}

var majorKeys = [15]string{"Cb", "Gb", "Db", "Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#"}
var minorKeys = [15]string{"Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#", "G#", "D#", "A#"}

func (e *KeySignature) String() string {
	if e.minor {
		return fmt.Sprintf("KeySignature %s minor", minorKeys[e.accidentals+7])
	}
	return fmt.Sprintf("KeySignature %s major", majorKeys[e.accidentals+7])
}

// SequencerSpecific carries manufacturer-defined data.
type SequencerSpecific struct {
	eventHeader
	data []byte
}

// NewSequencerSpecific returns a SequencerSpecific holding a copy of data.
func NewSequencerSpecific(delta int64, data []byte) (*SequencerSpecific, error) {
	e := &SequencerSpecific{}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetData(data); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *SequencerSpecific) MetaType() byte { return MetaSequencerSpecific }

// Data returns a copy of the payload.
func (e *SequencerSpecific) Data() []byte { return cloneBytes(e.data) }

// SetData stores a copy of data. It fails with smferr.ErrOutOfRange when data
// is longer than 0x0FFFFFFF bytes.
func (e *SequencerSpecific) SetData(data []byte) error {
	if err := checkPayloadLen("sequencer specific data", data); err != nil {
		return err
	}
	e.data = cloneBytes(data)
	return nil
}

func (e *SequencerSpecific) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, MetaSequencerSpecific, e.data)
}

func (e *SequencerSpecific) Clone() Event {
	c := *e
	c.data = cloneBytes(e.data)
	return &c
}

func (e *SequencerSpecific) String() string {
	return fmt.Sprintf("SequencerSpecific % X", e.data)
}

// UnknownMeta preserves a meta event whose type this package does not model.
type UnknownMeta struct {
	eventHeader
	typ  byte
	data []byte
}

// NewUnknownMeta returns an UnknownMeta holding a copy of data.
func NewUnknownMeta(delta int64, typ byte, data []byte) (*UnknownMeta, error) {
	e := &UnknownMeta{typ: typ}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetData(data); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *UnknownMeta) MetaType() byte { return e.typ }

// Data returns a copy of the payload.
func (e *UnknownMeta) Data() []byte { return cloneBytes(e.data) }

// SetData stores a copy of data. It fails with smferr.ErrOutOfRange when data
// is longer than 0x0FFFFFFF bytes.
func (e *UnknownMeta) SetData(data []byte) error {
	if err := checkPayloadLen("meta data", data); err != nil {
		return err
	}
	e.data = cloneBytes(data)
	return nil
}

func (e *UnknownMeta) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, e.typ, e.data)
}

func (e *UnknownMeta) Clone() Event {
	c := *e
	c.data = cloneBytes(e.data)
	return &c
}

func (e *UnknownMeta) String() string {
	return fmt.Sprintf("Meta type=%#02x % X", e.typ, e.data)
}
