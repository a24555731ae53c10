package smf

import (
	"fmt"
	"io"

	"github.com/zurustar/smftool/pkg/smferr"
)

// TextKind is the meta type of a text event.
type TextKind byte

// Text meta types.
const (
	KindText           TextKind = 0x01
	KindCopyright      TextKind = 0x02
	KindTrackName      TextKind = 0x03
	KindInstrumentName TextKind = 0x04
	KindLyric          TextKind = 0x05
	KindMarker         TextKind = 0x06
	KindCuePoint       TextKind = 0x07
	KindProgramName    TextKind = 0x08
	KindDeviceName     TextKind = 0x09
)

var textKindNames = map[TextKind]string{
	KindText:           "Text",
	KindCopyright:      "Copyright",
	KindTrackName:      "TrackName",
	KindInstrumentName: "InstrumentName",
	KindLyric:          "Lyric",
	KindMarker:         "Marker",
	KindCuePoint:       "CuePoint",
	KindProgramName:    "ProgramName",
	KindDeviceName:     "DeviceName",
}

// IsTextKind reports whether the meta type byte is one of the text kinds.
func IsTextKind(typ byte) bool {
	_, ok := textKindNames[TextKind(typ)]
	return ok
}

func (k TextKind) String() string {
	if name, ok := textKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TextKind(%#02x)", byte(k))
}

// TextEvent is a meta event carrying text. The bytes are stored as found in
// the file; their character set is not specified by SMF.
type TextEvent struct {
	eventHeader
	kind TextKind
	text []byte
}

// NewTextEvent returns a text event of the given kind.
func NewTextEvent(delta int64, kind TextKind, text string) (*TextEvent, error) {
	return NewTextEventBytes(delta, kind, []byte(text))
}

// NewTextEventBytes returns a text event holding a copy of raw.
func NewTextEventBytes(delta int64, kind TextKind, raw []byte) (*TextEvent, error) {
	if !IsTextKind(byte(kind)) {
		return nil, &smferr.RangeError{Field: "text kind", Value: int64(kind), Min: int64(KindText), Max: int64(KindDeviceName)}
	}
	e := &TextEvent{kind: kind}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetBytes(raw); err != nil {
		return nil, err
	}
	return e, nil
}

// NewTrackName returns a track name event.
func NewTrackName(delta int64, name string) (*TextEvent, error) {
	return NewTextEvent(delta, KindTrackName, name)
}

// Kind returns the text meta type.
func (e *TextEvent) Kind() TextKind { return e.kind }
func (e *TextEvent) MetaType() byte { return byte(e.kind) }

// Data returns a copy of the raw text bytes.
func (e *TextEvent) Data() []byte { return cloneBytes(e.text) }

// Text returns the raw bytes as a string.
func (e *TextEvent) Text() string { return string(e.text) }

// SetText stores s as raw bytes.
func (e *TextEvent) SetText(s string) error {
	return e.SetBytes([]byte(s))
}

// SetBytes stores a copy of raw. It fails with smferr.ErrOutOfRange when raw is
// longer than 0x0FFFFFFF bytes.
func (e *TextEvent) SetBytes(raw []byte) error {
	if err := checkPayloadLen(e.kind.String(), raw); err != nil {
		return err
	}
	e.text = cloneBytes(raw)
	return nil
}

func (e *TextEvent) WriteTo(w io.Writer) (int64, error) {
	return writeMeta(w, &e.eventHeader, byte(e.kind), e.text)
}

func (e *TextEvent) Clone() Event {
	c := *e
	c.text = cloneBytes(e.text)
	return &c
}

func (e *TextEvent) String() string {
	return fmt.Sprintf("%s %q", e.kind, e.text)
}
