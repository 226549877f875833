package mididarwin

import "github.com/leandrodaf/miditransport/internal/wire"

// packetReader returns a read procedure body that splits CoreMIDI packet
// data into single messages for onBytes. One packet may carry several
// messages, possibly with running status, and a SysEx may span packets.
// CoreMIDI calls a port's read procedure from one thread at a time.
func packetReader(onBytes func([]byte)) func([]byte) {
	f := wire.NewFramer(wire.DefaultMaxSysEx, onBytes)
	return func(data []byte) { _, _ = f.Write(data) }
}
