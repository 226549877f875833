package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(maxSysEx int) (*Framer, *[][]byte) {
	var frames [][]byte
	f := NewFramer(maxSysEx, func(b []byte) { frames = append(frames, b) })
	return f, &frames
}

func TestFramerSplitsCompleteMessages(t *testing.T) {
	f, frames := collect(0)
	_, err := f.Write([]byte{0x90, 60, 100, 0xB1, 7, 127, 0xC2, 5})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x90, 60, 100}, {0xB1, 7, 127}, {0xC2, 5}}, *frames)
}

func TestFramerRealtimeInterleaved(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0x90, 60, 0xF8, 100, 0xFA})
	assert.Equal(t, [][]byte{{0xF8}, {0x90, 60, 100}, {0xFA}}, *frames)
}

func TestFramerRunningStatus(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0x90, 60, 100, 62, 90, 0xF8, 64, 0})
	assert.Equal(t, [][]byte{
		{0x90, 60, 100},
		{0x90, 62, 90},
		{0xF8},
		{0x90, 64, 0},
	}, *frames)
}

func TestFramerSystemCommonCancelsRunningStatus(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0x90, 60, 100, 0xF2, 0x10, 0x20, 61, 100})
	assert.Equal(t, [][]byte{{0x90, 60, 100}, {0xF2, 0x10, 0x20}}, *frames)
}

func TestFramerSysEx(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0xF0, 0x7E, 0xF8, 0x00, 0x06})
	f.Write([]byte{0x01, 0xF7, 0x90, 60, 1})
	assert.Equal(t, [][]byte{
		{0xF8},
		{0xF0, 0x7E, 0x00, 0x06, 0x01, 0xF7},
		{0x90, 60, 1},
	}, *frames)
}

func TestFramerSysExTerminatedByStatus(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0xF0, 0x01, 0x02, 0x80, 60, 0})
	assert.Equal(t, [][]byte{{0xF0, 0x01, 0x02}, {0x80, 60, 0}}, *frames)
}

func TestFramerSysExOverflowDropped(t *testing.T) {
	f, frames := collect(4)
	f.Write([]byte{0xF0, 1, 2, 3, 4, 5, 6, 0xF7, 0xFC})
	assert.Equal(t, [][]byte{{0xFC}}, *frames)
}

func TestFramerDropsStrayData(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0x10, 0x20, 0xF7, 0x30, 0xB0, 1, 2})
	assert.Equal(t, [][]byte{{0xB0, 1, 2}}, *frames)
}

func TestFramerResetAndIOCopy(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0x90, 60})
	f.Reset()
	n, err := io.Copy(f, bytes.NewReader([]byte{61, 0xFB}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, [][]byte{{0xFB}}, *frames)
}

func TestFramerFramesAreNotAliased(t *testing.T) {
	f, frames := collect(0)
	f.Write([]byte{0x90, 60, 100, 61, 101})
	require.Len(t, *frames, 2)
	(*frames)[0][1] = 0
	assert.Equal(t, []byte{0x90, 61, 101}, (*frames)[1])
}

func TestMessageLen(t *testing.T) {
	for status, want := range map[byte]int{
		0x80: 3, 0x9F: 3, 0xB0: 3, 0xE5: 3,
		0xC0: 2, 0xD3: 2, 0xF1: 2, 0xF3: 2,
		0xF2: 3, 0xF6: 1, 0xF8: 1, 0xFE: 1,
	} {
		assert.Equal(t, want, MessageLen(status), "status 0x%X", status)
	}
}
