package smf

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/smftool/pkg/logger"
	"github.com/zurustar/smftool/pkg/smferr"
	"github.com/zurustar/smftool/pkg/vlq"
)

// Option configures decoding.
type Option func(*options)

type options struct {
	log *slog.Logger
}

// WithLogger sets the logger used to report recoverable oddities in the input.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func newOptions(opts []Option) *options {
	o := &options{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.GetLogger()
	}
	return o
}

// trackDecoder walks the payload of one MTrk chunk.
type trackDecoder struct {
	data    []byte
	pos     int
	running byte
	log     *slog.Logger
}

// DecodeTrack parses the payload of an "MTrk" chunk. Running status is
// honoured; meta and sysex events cancel it. Meta events whose payload does
// not fit the modelled layout are kept as UnknownMeta so no bytes are lost.
// A track without a trailing end-of-track marker is returned with
// RequiresEndOfTrack set to false.
func DecodeTrack(payload []byte, opts ...Option) (*Track, error) {
	o := newOptions(opts)
	d := &trackDecoder{data: payload, log: o.log}
	t := NewTrack()

	for d.pos < len(d.data) {
		start := d.pos
		e, err := d.next()
		if err != nil {
			return nil, fmt.Errorf("event %d at offset %d: %w", t.Len(), start, err)
		}
		if t.HasEndOfTrack() {
			d.log.Warn("Event after end-of-track", "index", t.Len(), "offset", start, "event", e.String())
		}
		if err := t.Append(e); err != nil {
			return nil, err
		}
	}

	if !t.HasEndOfTrack() {
		d.log.Warn("Track has no end-of-track event", "events", t.Len())
		t.SetRequireEndOfTrack(false)
	}
	return t, nil
}

func (d *trackDecoder) next() (Event, error) {
	delta, n, err := vlq.Decode(d.data[d.pos:])
	if err != nil {
		return nil, fmt.Errorf("delta-time: %w", err)
	}
	d.pos += n
	if d.pos >= len(d.data) {
		return nil, smferr.Malformed("delta-time %d is not followed by an event", delta)
	}

	status := d.data[d.pos]
	if status < 0x80 {
		if d.running == 0 {
			return nil, smferr.Malformed("data byte %#02x without running status", status)
		}
		status = d.running
	} else {
		d.pos++
	}

	switch {
	case status == StatusMeta:
		d.running = 0
		return d.meta(int64(delta))
	case status == StatusSysEx || status == StatusSysExEscape:
		d.running = 0
		data, err := d.lengthPrefixed()
		if err != nil {
			return nil, err
		}
		return newSysEx(int64(delta), status == StatusSysExEscape, data)
	case status >= 0xF0:
		return nil, smferr.Malformed("status %#02x is not allowed in a track", status)
	default:
		d.running = status
		return d.voice(int64(delta), status)
	}
}

func (d *trackDecoder) take(n int) ([]byte, error) {
	if n > len(d.data)-d.pos {
		return nil, smferr.Malformed("need %d bytes, %d left", n, len(d.data)-d.pos)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *trackDecoder) lengthPrefixed() ([]byte, error) {
	length, n, err := vlq.Decode(d.data[d.pos:])
	if err != nil {
		return nil, fmt.Errorf("length: %w", err)
	}
	d.pos += n
	return d.take(int(length))
}

func (d *trackDecoder) voice(delta int64, status byte) (Event, error) {
	size := 2
	if kind := status & 0xF0; kind == StatusProgramChange || kind == StatusChannelAftertouch {
		size = 1
	}
	data, err := d.take(size)
	if err != nil {
		return nil, err
	}
	for _, b := range data {
		if b >= 0x80 {
			return nil, smferr.Malformed("data byte %#02x has the high bit set", b)
		}
	}

	ch := int(status & 0x0F)
	switch status & 0xF0 {
	case StatusNoteOff:
		return NewNoteOff(delta, ch, int(data[0]), int(data[1]))
	case StatusNoteOn:
		return NewNoteOn(delta, ch, int(data[0]), int(data[1]))
	case StatusPolyAftertouch:
		return NewPolyAftertouch(delta, ch, int(data[0]), int(data[1]))
	case StatusControlChange:
		return NewControlChange(delta, ch, int(data[0]), int(data[1]))
	case StatusProgramChange:
		return NewProgramChange(delta, ch, int(data[0]))
	case StatusChannelAftertouch:
		return NewChannelAftertouch(delta, ch, int(data[0]))
	default:
		return NewPitchBend(delta, ch, int(data[0])|int(data[1])<<7)
	}
}

func (d *trackDecoder) meta(delta int64) (Event, error) {
	typ, err := d.take(1)
	if err != nil {
		return nil, err
	}
	data, err := d.lengthPrefixed()
	if err != nil {
		return nil, err
	}

	e, err := buildMeta(delta, typ[0], data)
	if err != nil {
		d.log.Debug("Keeping unrecognised meta payload", "type", fmt.Sprintf("%#02x", typ[0]), "length", len(data), "reason", err)
		return NewUnknownMeta(delta, typ[0], data)
	}
	return e, nil
}

var errLayout = smferr.Malformed("unexpected meta payload length")

// metaPayloadLen is the fixed payload size of each structured meta type.
var metaPayloadLen = map[byte]int{
	MetaSequenceNumber: 2,
	MetaChannelPrefix:  1,
	MetaMIDIPort:       1,
	MetaEndOfTrack:     0,
	MetaTempo:          3,
	MetaSMPTEOffset:    5,
	MetaTimeSignature:  4,
	MetaKeySignature:   2,
}

func buildMeta(delta int64, typ byte, data []byte) (Event, error) {
	if IsTextKind(typ) {
		return NewTextEventBytes(delta, TextKind(typ), data)
	}

	if n, ok := metaPayloadLen[typ]; ok && n != len(data) {
		return nil, errLayout
	}

	switch typ {
	case MetaSequenceNumber:
		return NewSequenceNumber(delta, int(data[0])<<8|int(data[1]))
	case MetaChannelPrefix:
		return NewChannelPrefix(delta, int(data[0]))
	case MetaMIDIPort:
		return NewMIDIPort(delta, int(data[0]))
	case MetaEndOfTrack:
		return NewEndOfTrack(delta)
	case MetaTempo:
		return NewTempo(delta, int(data[0])<<16|int(data[1])<<8|int(data[2]))
	case MetaSMPTEOffset:
		return NewSMPTEOffset(delta, int(data[0]), int(data[1]), int(data[2]), int(data[3]), int(data[4]))
	case MetaTimeSignature:
		if data[1] > 7 {
			return nil, smferr.CheckRange("time signature denominator exponent", int64(data[1]), 0, 7)
		}
		e, err := NewTimeSignature(delta, int(data[0]), 1<<data[1])
		if err != nil {
			return nil, err
		}
		e.clocksPerClick, e.thirtySeconds = data[2], data[3]
		return e, nil
	case MetaKeySignature:
		if data[1] > 1 {
			return nil, smferr.CheckRange("key signature mode", int64(data[1]), 0, 1)
		}
		return NewKeySignature(delta, int(int8(data[0])), data[1] == 1)
	case MetaSequencerSpecific:
		return NewSequencerSpecific(delta, data)
	default:
		return NewUnknownMeta(delta, typ, data)
	}
}
