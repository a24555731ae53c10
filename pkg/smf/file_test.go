package smf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zurustar/smftool/pkg/smferr"
	gomidi "gitlab.com/gomidi/midi/v2/smf"
)

// sampleFile returns a two-track format 1 file: a conductor track with
// tempo and a named piano track on channel 0.
func sampleFile(t *testing.T) *File {
	t.Helper()
	conductor := NewTrack()
	require.NoError(t, conductor.Append(
		must[*TimeSignature](t)(NewTimeSignature(0, 4, 4)),
		must[*Tempo](t)(NewTempoBPM(0, 120)),
		must[*Tempo](t)(NewTempoBPM(960, 90)),
	))
	require.NoError(t, conductor.CloseTrack())

	piano := NewTrack()
	require.NoError(t, piano.Append(
		must[*TextEvent](t)(NewTrackName(0, "Piano")),
		must[*NoteOn](t)(NewNoteOn(0, 0, 60, 100)),
		must[*NoteOff](t)(NewNoteOff(480, 0, 60, 0)),
		must[*NoteOn](t)(NewNoteOn(0, 0, 64, 100)),
		must[*NoteOff](t)(NewNoteOff(480, 0, 64, 0)),
	))
	require.NoError(t, piano.CloseTrack())

	f := NewFile()
	f.Tracks = []*Track{conductor, piano}
	return f
}

func TestFileHeader(t *testing.T) {
	data, err := sampleFile(t).Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 1, 0, 2, 0x01, 0xE0}, data[:14])
	assert.Equal(t, []byte("MTrk"), data[14:18])
}

func TestFileRoundTrip(t *testing.T) {
	f := sampleFile(t)
	data, err := f.Bytes()
	require.NoError(t, err)

	got, err := ReadFile(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, f.Format, got.Format)
	assert.Equal(t, f.Division, got.Division)
	assert.Equal(t, 480, got.TicksPerQuarter())
	require.Len(t, got.Tracks, 2)
	assert.Equal(t, uint64(960), got.Duration())

	name, ok := got.Tracks[1].Name()
	assert.True(t, ok)
	assert.Equal(t, "Piano", name)

	again, err := got.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

// TestFileReadableByGomidi checks the output against an independent reader.
func TestFileReadableByGomidi(t *testing.T) {
	data, err := sampleFile(t).Bytes()
	require.NoError(t, err)

	s, err := gomidi.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 2)
	assert.Equal(t, gomidi.MetricTicks(480), s.TimeFormat)

	var name string
	var notes []uint8
	var abs uint32
	var noteTimes []uint32
	for _, ev := range s.Tracks[1] {
		abs += ev.Delta
		var text string
		if ev.Message.GetMetaTrackName(&text) {
			name = text
		}
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) {
			notes = append(notes, key)
			noteTimes = append(noteTimes, abs)
		}
	}
	assert.Equal(t, "Piano", name)
	assert.Equal(t, []uint8{60, 64}, notes)
	assert.Equal(t, []uint32{0, 480}, noteTimes)
}

func TestReadFileSkipsUnknownChunks(t *testing.T) {
	data, err := sampleFile(t).Bytes()
	require.NoError(t, err)

	// Insert a vendor chunk between the header and the first track.
	withAlien := append([]byte{}, data[:14]...)
	withAlien = append(withAlien, 'X', 'F', 'I', 'H', 0, 0, 0, 3, 1, 2, 3)
	withAlien = append(withAlien, data[14:]...)

	f, err := ReadFile(bytes.NewReader(withAlien))
	require.NoError(t, err)
	assert.Len(t, f.Tracks, 2)
}

func TestReadFileFormatZeroWithSeveralTracks(t *testing.T) {
	data, err := sampleFile(t).Bytes()
	require.NoError(t, err)
	data[9] = FormatSingleTrack

	var logs bytes.Buffer
	f, err := ReadFile(bytes.NewReader(data), captureLogger(&logs))
	require.NoError(t, err)
	assert.Equal(t, uint16(FormatSingleTrack), f.Format)
	assert.Len(t, f.Tracks, 2)
	assert.Contains(t, logs.String(), "Format 0 file holds several tracks")

	_, err = f.WriteTo(&bytes.Buffer{})
	assert.ErrorIs(t, err, smferr.ErrInvalidState)

	require.NoError(t, f.Flatten())
	_, err = f.Bytes()
	assert.NoError(t, err)
}

func TestReadFileOversizedChunk(t *testing.T) {
	data, err := sampleFile(t).Bytes()
	require.NoError(t, err)
	data = append(data[:14:14], 'M', 'T', 'r', 'k', 0xF0, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x2F)

	_, err = ReadFile(bytes.NewReader(data))
	assert.ErrorIs(t, err, smferr.ErrMalformedData)
}

func TestReadFileErrors(t *testing.T) {
	_, err := ReadFile(nil)
	assert.ErrorIs(t, err, smferr.ErrNullArgument)

	_, err = ReadFile(bytes.NewReader(nil))
	assert.ErrorIs(t, err, smferr.ErrMalformedData)

	_, err = ReadFile(bytes.NewReader([]byte{'M', 'T', 'r', 'k', 0, 0, 0, 0}))
	assert.ErrorIs(t, err, smferr.ErrMalformedData)

	_, err = ReadFile(bytes.NewReader([]byte{'M', 'T', 'h', 'd', 0, 0, 0, 2, 0, 1}))
	assert.ErrorIs(t, err, smferr.ErrMalformedData)

	data, err := sampleFile(t).Bytes()
	require.NoError(t, err)
	_, err = ReadFile(bytes.NewReader(data[:len(data)-2]))
	assert.ErrorIs(t, err, smferr.ErrMalformedData)
}

func TestFileWriteValidation(t *testing.T) {
	var buf bytes.Buffer

	f := sampleFile(t)
	f.Format = FormatSingleTrack
	_, err := f.WriteTo(&buf)
	assert.ErrorIs(t, err, smferr.ErrInvalidState)

	f = sampleFile(t)
	f.Format = 3
	_, err = f.WriteTo(&buf)
	assert.ErrorIs(t, err, smferr.ErrOutOfRange)

	f = sampleFile(t)
	f.Tracks = append(f.Tracks, nil)
	_, err = f.WriteTo(&buf)
	assert.ErrorIs(t, err, smferr.ErrNullArgument)

	f = sampleFile(t)
	f.Tracks = append(f.Tracks, newTimedTrack(t, 0))
	_, err = f.WriteTo(&buf)
	assert.ErrorIs(t, err, smferr.ErrInvalidState, "track without end-of-track must be rejected")

	_, err = sampleFile(t).WriteTo(nil)
	assert.ErrorIs(t, err, smferr.ErrNullArgument)

	assert.Zero(t, buf.Len(), "rejected files must not write anything")
}

func TestFileWriteLeavesWriterUntouched(t *testing.T) {
	closed := NewTrack()
	require.NoError(t, closed.CloseTrack())

	f := NewFile()
	f.Tracks = []*Track{closed, NewTrack()}

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	assert.ErrorIs(t, err, smferr.ErrInvalidState)
	assert.Contains(t, err.Error(), "track 1")
	assert.Zero(t, n)
	assert.Zero(t, buf.Len(), "header and earlier tracks must not be written")
}

func TestFileFlatten(t *testing.T) {
	f := sampleFile(t)
	conductor := f.Tracks[0]

	require.NoError(t, f.Flatten())
	assert.Equal(t, uint16(FormatSingleTrack), f.Format)
	require.Len(t, f.Tracks, 1)
	assert.Same(t, conductor, f.Tracks[0])

	track := f.Tracks[0]
	assert.True(t, track.HasEndOfTrack())
	assert.Equal(t, 9, track.Len(), "three conductor events, five piano events, one end-of-track")
	assert.Equal(t, uint64(960), track.Timeline().Duration())

	times := track.Timeline().AbsoluteTimes()
	for i := 1; i < len(times); i++ {
		assert.LessOrEqual(t, times[i-1], times[i])
	}
	// The 90 BPM tempo at 960 comes before the piano note-off merged at 960.
	_, isTempo := track.Timeline().At(2).(*Tempo)
	assert.False(t, isTempo, "tempo at 960 must not precede events at 0 and 480")
	assert.IsType(t, &Tempo{}, track.Timeline().At(6))
	assert.IsType(t, &NoteOff{}, track.Timeline().At(7))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	s, err := gomidi.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, s.Tracks, 1)
}

func TestFlattenEmptyFile(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.Flatten())
	assert.Equal(t, uint16(FormatSingleTrack), f.Format)
	assert.Empty(t, f.Tracks)
}
