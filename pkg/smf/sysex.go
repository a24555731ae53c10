package smf

import (
	"fmt"
	"io"

	"github.com/zurustar/smftool/pkg/vlq"
)

// System exclusive status bytes as they appear in a track.
const (
	StatusSysEx       = 0xF0
	StatusSysExEscape = 0xF7
)

// SysEx is a system exclusive message. The data follows the length and
// normally ends with 0xF7 for a complete message. Escape events (0xF7)
// carry arbitrary bytes such as continuation packets or real-time messages.
type SysEx struct {
	eventHeader
	escape bool
	data   []byte
}

// NewSysEx returns a 0xF0 system exclusive event holding a copy of data.
func NewSysEx(delta int64, data []byte) (*SysEx, error) {
	return newSysEx(delta, false, data)
}

// NewSysExEscape returns a 0xF7 escape event holding a copy of data.
func NewSysExEscape(delta int64, data []byte) (*SysEx, error) {
	return newSysEx(delta, true, data)
}

func newSysEx(delta int64, escape bool, data []byte) (*SysEx, error) {
	e := &SysEx{escape: escape}
	if err := e.SetDeltaTime(delta); err != nil {
		return nil, err
	}
	if err := e.SetData(data); err != nil {
		return nil, err
	}
	return e, nil
}

// Escape reports an F7 escape event rather than an F0 message.
func (e *SysEx) Escape() bool { return e.escape }

// Data returns a copy of the payload.
func (e *SysEx) Data() []byte { return cloneBytes(e.data) }

// Status returns 0xF0 or 0xF7.
func (e *SysEx) Status() byte {
	if e.escape {
		return StatusSysExEscape
	}
	return StatusSysEx
}

// SetData stores a copy of data. It fails with smferr.ErrOutOfRange when data
// is longer than 0x0FFFFFFF bytes.
func (e *SysEx) SetData(data []byte) error {
	if err := checkPayloadLen("sysex data", data); err != nil {
		return err
	}
	e.data = cloneBytes(data)
	return nil
}

func (e *SysEx) WriteTo(w io.Writer) (int64, error) {
	length, err := vlq.Append(make([]byte, 0, vlq.MaxLen), uint32(len(e.data)))
	if err != nil {
		return 0, err
	}
	return writeEvent(w, &e.eventHeader, []byte{e.Status()}, length, e.data)
}

func (e *SysEx) Clone() Event {
	c := *e
	c.data = cloneBytes(e.data)
	return &c
}

func (e *SysEx) String() string {
	if e.escape {
		return fmt.Sprintf("SysExEscape % X", e.data)
	}
	return fmt.Sprintf("SysEx % X", e.data)
}
