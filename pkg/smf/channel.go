package smf

import (
	"fmt"
	"io"

	"github.com/zurustar/smftool/pkg/smferr"
)

// Channel voice status nibbles.
const (
	StatusNoteOff           = 0x80
	StatusNoteOn            = 0x90
	StatusPolyAftertouch    = 0xA0
	StatusControlChange     = 0xB0
	StatusProgramChange     = 0xC0
	StatusChannelAftertouch = 0xD0
	StatusPitchBend         = 0xE0
)

// PitchBendCenter is the 14-bit value of an unbent wheel.
const PitchBendCenter = 0x2000

// ChannelEvent is a channel voice event addressed to one of 16 channels.
type ChannelEvent interface {
	Event
	// Channel returns the channel, 0-15.
	Channel() uint8
	// SetChannel fails with smferr.ErrOutOfRange outside 0-15.
	SetChannel(c int) error
	// Status returns the full status byte, category nibble and channel.
	Status() byte
}

type voice struct {
	eventHeader
	channel uint8
}

func newVoice(delta int64, channel int) (voice, error) {
	var v voice
	if err := v.SetDeltaTime(delta); err != nil {
		return v, err
	}
	if err := v.SetChannel(channel); err != nil {
		return v, err
	}
	return v, nil
}

// Channel returns the channel, 0-15.
func (v *voice) Channel() uint8 {
	return v.channel
}

// SetChannel sets the channel. It fails with smferr.ErrOutOfRange outside 0-15.
func (v *voice) SetChannel(c int) error {
	if err := smferr.CheckRange("channel", int64(c), 0, 15); err != nil {
		return err
	}
	v.channel = uint8(c)
	return nil
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name of a MIDI note, middle C (60) being C4.
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}

// NoteOff releases a note.
type NoteOff struct {
	voice
	note     uint8
	velocity uint8
}

// NewNoteOff returns a validated NoteOff.
func NewNoteOff(delta int64, channel, note, velocity int) (*NoteOff, error) {
	v, err := newVoice(delta, channel)
	if err != nil {
		return nil, err
	}
	e := &NoteOff{voice: v}
	if err := e.SetNote(note); err != nil {
		return nil, err
	}
	if err := e.SetVelocity(velocity); err != nil {
		return nil, err
	}
	return e, nil
}

// Note returns the key number.
func (e *NoteOff) Note() uint8 { return e.note }

// Velocity returns the key velocity.
func (e *NoteOff) Velocity() uint8 { return e.velocity }

// Status returns the status byte including the channel.
func (e *NoteOff) Status() byte { return StatusNoteOff | e.channel }

// SetNote sets the key number. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *NoteOff) SetNote(n int) error {
	if err := check7Bit("note", n); err != nil {
		return err
	}
	e.note = uint8(n)
	return nil
}

// SetVelocity sets the key velocity. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *NoteOff) SetVelocity(v int) error {
	if err := check7Bit("velocity", v); err != nil {
		return err
	}
	e.velocity = uint8(v)
	return nil
}

func (e *NoteOff) WriteTo(w io.Writer) (int64, error) {
	return writeEvent(w, &e.eventHeader, []byte{e.Status(), e.note, e.velocity})
}

func (e *NoteOff) Clone() Event {
	c := *e
	return &c
}

func (e *NoteOff) String() string {
	return fmt.Sprintf("NoteOff ch=%d note=%d(%s) vel=%d", e.channel, e.note, NoteName(e.note), e.velocity)
}

// NoteOn starts a note. A velocity of zero is conventionally a note-off.
type NoteOn struct {
	voice
	note     uint8
	velocity uint8
}

// NewNoteOn returns a validated NoteOn.
func NewNoteOn(delta int64, channel, note, velocity int) (*NoteOn, error) {
	v, err := newVoice(delta, channel)
	if err != nil {
		return nil, err
	}
	e := &NoteOn{voice: v}
	if err := e.SetNote(note); err != nil {
		return nil, err
	}
	if err := e.SetVelocity(velocity); err != nil {
		return nil, err
	}
	return e, nil
}

// Note returns the key number.
func (e *NoteOn) Note() uint8 { return e.note }

// Velocity returns the key velocity.
func (e *NoteOn) Velocity() uint8 { return e.velocity }

// Status returns the status byte including the channel.
func (e *NoteOn) Status() byte { return StatusNoteOn | e.channel }

// SetNote sets the key number. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *NoteOn) SetNote(n int) error {
	if err := check7Bit("note", n); err != nil {
		return err
	}
	e.note = uint8(n)
	return nil
}

// SetVelocity sets the key velocity. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *NoteOn) SetVelocity(v int) error {
	if err := check7Bit("velocity", v); err != nil {
		return err
	}
	e.velocity = uint8(v)
	return nil
}

func (e *NoteOn) WriteTo(w io.Writer) (int64, error) {
	return writeEvent(w, &e.eventHeader, []byte{e.Status(), e.note, e.velocity})
}

func (e *NoteOn) Clone() Event {
	c := *e
	return &c
}

func (e *NoteOn) String() string {
	return fmt.Sprintf("NoteOn ch=%d note=%d(%s) vel=%d", e.channel, e.note, NoteName(e.note), e.velocity)
}

// PolyAftertouch changes the pressure of a single held note.
type PolyAftertouch struct {
	voice
	note     uint8
	pressure uint8
}

// NewPolyAftertouch returns a validated PolyAftertouch.
func NewPolyAftertouch(delta int64, channel, note, pressure int) (*PolyAftertouch, error) {
	v, err := newVoice(delta, channel)
	if err != nil {
		return nil, err
	}
	e := &PolyAftertouch{voice: v}
	if err := e.SetNote(note); err != nil {
		return nil, err
	}
	if err := e.SetPressure(pressure); err != nil {
		return nil, err
	}
	return e, nil
}

// Note returns the key number.
func (e *PolyAftertouch) Note() uint8 { return e.note }

// Pressure returns the aftertouch pressure.
func (e *PolyAftertouch) Pressure() uint8 { return e.pressure }

// Status returns the status byte including the channel.
func (e *PolyAftertouch) Status() byte { return StatusPolyAftertouch | e.channel }

// SetNote sets the key number. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *PolyAftertouch) SetNote(n int) error {
	if err := check7Bit("note", n); err != nil {
		return err
	}
	e.note = uint8(n)
	return nil
}

// SetPressure sets the pressure. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *PolyAftertouch) SetPressure(p int) error {
	if err := check7Bit("pressure", p); err != nil {
		return err
	}
	e.pressure = uint8(p)
	return nil
}

func (e *PolyAftertouch) WriteTo(w io.Writer) (int64, error) {
	return writeEvent(w, &e.eventHeader, []byte{e.Status(), e.note, e.pressure})
}

func (e *PolyAftertouch) Clone() Event {
	c := *e
	return &c
}

func (e *PolyAftertouch) String() string {
	return fmt.Sprintf("PolyAftertouch ch=%d note=%d(%s) pressure=%d", e.channel, e.note, NoteName(e.note), e.pressure)
}

// ControlChange sets a controller value.
type ControlChange struct {
	voice
	controller uint8
	value      uint8
}

// NewControlChange returns a validated ControlChange.
func NewControlChange(delta int64, channel, controller, value int) (*ControlChange, error) {
	v, err := newVoice(delta, channel)
	if err != nil {
		return nil, err
	}
	e := &ControlChange{voice: v}
	if err := e.SetController(controller); err != nil {
		return nil, err
	}
	if err := e.SetValue(value); err != nil {
		return nil, err
	}
	return e, nil
}

// Controller returns the controller number.
func (e *ControlChange) Controller() uint8 { return e.controller }

// Value returns the controller value.
func (e *ControlChange) Value() uint8 { return e.value }

// Status returns the status byte including the channel.
func (e *ControlChange) Status() byte { return StatusControlChange | e.channel }

// SetController sets the controller number. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *ControlChange) SetController(c int) error {
	if err := check7Bit("controller", c); err != nil {
		return err
	}
	e.controller = uint8(c)
	return nil
}

// SetValue sets the controller value. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *ControlChange) SetValue(v int) error {
	if err := check7Bit("controller value", v); err != nil {
		return err
	}
	e.value = uint8(v)
	return nil
}

func (e *ControlChange) WriteTo(w io.Writer) (int64, error) {
	return writeEvent(w, &e.eventHeader, []byte{e.Status(), e.controller, e.value})
}

func (e *ControlChange) Clone() Event {
	c := *e
	return &c
}

func (e *ControlChange) String() string {
	return fmt.Sprintf("ControlChange ch=%d controller=%d value=%d", e.channel, e.controller, e.value)
}

// ProgramChange selects an instrument.
type ProgramChange struct {
	voice
	program uint8
}

// NewProgramChange returns a validated ProgramChange.
func NewProgramChange(delta int64, channel, program int) (*ProgramChange, error) {
	v, err := newVoice(delta, channel)
	if err != nil {
		return nil, err
	}
	e := &ProgramChange{voice: v}
	if err := e.SetProgram(program); err != nil {
		return nil, err
	}
	return e, nil
}

// Program returns the program number.
func (e *ProgramChange) Program() uint8 { return e.program }

// Status returns the status byte including the channel.
func (e *ProgramChange) Status() byte { return StatusProgramChange | e.channel }

// SetProgram sets the program number. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *ProgramChange) SetProgram(p int) error {
	if err := check7Bit("program", p); err != nil {
		return err
	}
	e.program = uint8(p)
	return nil
}

func (e *ProgramChange) WriteTo(w io.Writer) (int64, error) {
	return writeEvent(w, &e.eventHeader, []byte{e.Status(), e.program})
}

func (e *ProgramChange) Clone() Event {
	c := *e
	return &c
}

func (e *ProgramChange) String() string {
	return fmt.Sprintf("ProgramChange ch=%d program=%d", e.channel, e.program)
}

// ChannelAftertouch changes the pressure of every held note on a channel.
type ChannelAftertouch struct {
	voice
	pressure uint8
}

// NewChannelAftertouch returns a validated ChannelAftertouch.
func NewChannelAftertouch(delta int64, channel, pressure int) (*ChannelAftertouch, error) {
	v, err := newVoice(delta, channel)
	if err != nil {
		return nil, err
	}
	e := &ChannelAftertouch{voice: v}
	if err := e.SetPressure(pressure); err != nil {
		return nil, err
	}
	return e, nil
}

// Pressure returns the aftertouch pressure.
func (e *ChannelAftertouch) Pressure() uint8 { return e.pressure }

// Status returns the status byte including the channel.
func (e *ChannelAftertouch) Status() byte { return StatusChannelAftertouch | e.channel }

// SetPressure sets the pressure. It fails with smferr.ErrOutOfRange outside 0-127.
func (e *ChannelAftertouch) SetPressure(p int) error {
	if err := check7Bit("pressure", p); err != nil {
		return err
	}
	e.pressure = uint8(p)
	return nil
}

func (e *ChannelAftertouch) WriteTo(w io.Writer) (int64, error) {
	return writeEvent(w, &e.eventHeader, []byte{e.Status(), e.pressure})
}

func (e *ChannelAftertouch) Clone() Event {
	c := *e
	return &c
}

func (e *ChannelAftertouch) String() string {
	return fmt.Sprintf("ChannelAftertouch ch=%d pressure=%d", e.channel, e.pressure)
}

// PitchBend moves the pitch wheel. The 14-bit value is centred on
// PitchBendCenter and sent least significant 7 bits first.
type PitchBend struct {
	voice
	value uint16
}

// NewPitchBend returns a validated PitchBend.
func NewPitchBend(delta int64, channel, value int) (*PitchBend, error) {
	v, err := newVoice(delta, channel)
	if err != nil {
		return nil, err
	}
	e := &PitchBend{voice: v}
	if err := e.SetValue(value); err != nil {
		return nil, err
	}
	return e, nil
}

// Value returns the 14-bit bend; PitchBendCenter means no bend.
func (e *PitchBend) Value() uint16 { return e.value }

// Status returns the status byte including the channel.
func (e *PitchBend) Status() byte { return StatusPitchBend | e.channel }

// SetValue sets the bend. It fails with smferr.ErrOutOfRange outside 0-0x3FFF.
func (e *PitchBend) SetValue(v int) error {
	if err := smferr.CheckRange("pitch bend", int64(v), 0, 0x3FFF); err != nil {
		return err
	}
	e.value = uint16(v)
	return nil
}

func (e *PitchBend) WriteTo(w io.Writer) (int64, error) {
	return writeEvent(w, &e.eventHeader, []byte{e.Status(), byte(e.value & 0x7F), byte(e.value >> 7)})
}

func (e *PitchBend) Clone() Event {
	c := *e
	return &c
}

func (e *PitchBend) String() string {
	return fmt.Sprintf("PitchBend ch=%d value=%d (%+d)", e.channel, e.value, int(e.value)-PitchBendCenter)
}
