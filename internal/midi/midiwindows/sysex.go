package midiwindows

import "github.com/leandrodaf/miditransport/internal/wire"

// SysEx input buffers handed to the driver per open input.
const (
	sysExBuffers    = 4
	sysExBufferSize = 1024
)

// sysExReader reassembles SysEx input from the buffers the driver returns.
// A message longer than one buffer arrives split over several.
type sysExReader struct {
	framer *wire.Framer
}

func newSysExReader(onBytes func([]byte)) *sysExReader {
	return &sysExReader{framer: wire.NewFramer(wire.DefaultMaxSysEx, onBytes)}
}

// received takes one returned buffer holding recorded bytes.
func (r *sysExReader) received(buf []byte, recorded uint32) {
	if int(recorded) > len(buf) {
		recorded = uint32(len(buf))
	}
	_, _ = r.framer.Write(buf[:recorded])
}
