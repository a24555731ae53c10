package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zurustar/smftool/pkg/smferr"
)

func TestFrame(t *testing.T) {
	for _, size := range []int{0, 1, 3, 255, 256, 70000} {
		payload := bytes.Repeat([]byte{0xAB}, size)

		framed, err := Frame(TagTrack, payload)
		require.NoError(t, err)
		require.Len(t, framed, HeaderLen+size)
		assert.Equal(t, "MTrk", string(framed[:4]))
		assert.Equal(t, uint32(size), binary.BigEndian.Uint32(framed[4:8]))
		assert.Equal(t, payload, framed[8:])
	}
}

func TestWriteMatchesFrame(t *testing.T) {
	payload := []byte{0x00, 0xFF, 0x2F, 0x00}
	framed, err := Frame(TagTrack, payload)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Write(&buf, TagTrack, payload)
	require.NoError(t, err)
	assert.Equal(t, int64(len(framed)), n)
	assert.Equal(t, framed, buf.Bytes())
}

func TestWriteNilWriter(t *testing.T) {
	_, err := Write(nil, TagTrack, nil)
	assert.True(t, errors.Is(err, smferr.ErrNullArgument))
}

func TestRead(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, TagHeader, []byte{0, 1, 0, 2, 1, 0xE0})
	require.NoError(t, err)
	_, err = Write(&buf, TagTrack, []byte{0x00, 0xFF, 0x2F, 0x00})
	require.NoError(t, err)

	tag, payload, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, TagHeader, tag)
	assert.Equal(t, []byte{0, 1, 0, 2, 1, 0xE0}, payload)

	tag, payload, err = Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, TagTrack, tag)
	assert.Equal(t, []byte{0x00, 0xFF, 0x2F, 0x00}, payload)

	_, _, err = Read(&buf)
	assert.Equal(t, io.EOF, err)
}

func TestReadTruncated(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"short header", []byte("MTr")},
		{"short payload", []byte{'M', 'T', 'r', 'k', 0, 0, 0, 4, 0x00, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(bytes.NewReader(tt.input))
			assert.True(t, errors.Is(err, smferr.ErrMalformedData), "got %v", err)
		})
	}
}

func TestReadOversizedLength(t *testing.T) {
	input := []byte{'M', 'T', 'r', 'k', 0xF0, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, _, err := Read(bytes.NewReader(input))
	runtime.ReadMemStats(&after)

	assert.True(t, errors.Is(err, smferr.ErrMalformedData), "got %v", err)
	// 宣言された長さではなく、実際に届いたバイト数だけ確保する
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestReadEmptyPayload(t *testing.T) {
	tag, payload, err := Read(bytes.NewReader([]byte{'M', 'T', 'r', 'k', 0, 0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, TagTrack, tag)
	assert.Empty(t, payload)
}

func TestParseTag(t *testing.T) {
	tag, err := ParseTag("MTrk")
	require.NoError(t, err)
	assert.Equal(t, TagTrack, tag)
	assert.Equal(t, "MTrk", tag.String())

	_, err = ParseTag("MTrack")
	assert.True(t, errors.Is(err, smferr.ErrOutOfRange))
}
