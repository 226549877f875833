// Package wire converts between MIDI wire bytes and typed messages.
package wire

import "github.com/leandrodaf/miditransport/sdk/contracts"

// Status bytes.
const (
	StatusNoteOff         byte = 0x80
	StatusNoteOn          byte = 0x90
	StatusPolyPressure    byte = 0xA0
	StatusControlChange   byte = 0xB0
	StatusProgramChange   byte = 0xC0
	StatusChannelPressure byte = 0xD0
	StatusPitchBend       byte = 0xE0
	StatusSysEx           byte = 0xF0
	StatusSysExEnd        byte = 0xF7
	StatusClock           byte = 0xF8
	StatusStart           byte = 0xFA
	StatusContinue        byte = 0xFB
	StatusStop            byte = 0xFC
)

const pitchBendCenter = 8192

// Decode turns one complete frame into an Event. It reports false for empty,
// truncated or unsupported frames; such frames are expected noise on a live
// bus and are never an error. No state is kept between calls.
func Decode(b []byte) (contracts.Event, bool) {
	if len(b) == 0 {
		return nil, false
	}
	status := b[0]

	// Realtime bytes win over everything else and need no data bytes.
	switch status {
	case StatusClock:
		return contracts.Clock{}, true
	case StatusStart:
		return contracts.Start{}, true
	case StatusContinue:
		return contracts.Continue{}, true
	case StatusStop:
		return contracts.Stop{}, true
	}

	channel := status & 0x0F
	switch status & 0xF0 {
	case StatusNoteOff:
		if len(b) < 3 {
			return nil, false
		}
		return contracts.NoteOff{Channel: channel, Note: b[1], Velocity: b[2]}, true
	case StatusNoteOn:
		if len(b) < 3 {
			return nil, false
		}
		if b[2] == 0 {
			return contracts.NoteOff{Channel: channel, Note: b[1], Velocity: 0}, true
		}
		return contracts.NoteOn{Channel: channel, Note: b[1], Velocity: b[2]}, true
	case StatusControlChange:
		if len(b) < 3 {
			return nil, false
		}
		return contracts.ControlChange{Channel: channel, Controller: b[1], Value: b[2]}, true
	}

	if status == StatusSysEx {
		data := make([]byte, len(b))
		copy(data, b)
		return contracts.SysEx{Data: data}, true
	}
	return nil, false
}

// Encode returns the wire bytes for cmd. Channels are masked to 4 bits and
// data bytes to 7 bits; out of range values are truncated, never rejected.
// SysEx payloads are sent verbatim. A nil or foreign command encodes to nil.
func Encode(cmd contracts.Command) []byte {
	switch c := cmd.(type) {
	case contracts.NoteOn:
		return []byte{StatusNoteOn | c.Channel&0x0F, c.Note & 0x7F, c.Velocity & 0x7F}
	case contracts.NoteOff:
		return []byte{StatusNoteOff | c.Channel&0x0F, c.Note & 0x7F, c.Velocity & 0x7F}
	case contracts.ControlChange:
		return []byte{StatusControlChange | c.Channel&0x0F, c.Controller & 0x7F, c.Value & 0x7F}
	case contracts.ProgramChange:
		return []byte{StatusProgramChange | c.Channel&0x0F, c.Program & 0x7F}
	case contracts.ChannelPressure:
		return []byte{StatusChannelPressure | c.Channel&0x0F, c.Pressure & 0x7F}
	case contracts.PitchBend:
		bend := uint16(int32(c.Value) + pitchBendCenter)
		return []byte{StatusPitchBend | c.Channel&0x0F, byte(bend & 0x7F), byte((bend >> 7) & 0x7F)}
	case contracts.SysEx:
		out := make([]byte, len(c.Data))
		copy(out, c.Data)
		return out
	case contracts.Clock:
		return []byte{StatusClock}
	case contracts.Start:
		return []byte{StatusStart}
	case contracts.Stop:
		return []byte{StatusStop}
	case contracts.Continue:
		return []byte{StatusContinue}
	}
	return nil
}

// Classify explains why Decode rejected b, for debug logging.
func Classify(b []byte) error {
	if len(b) == 0 {
		return contracts.ErrFrameTruncated
	}
	switch b[0] & 0xF0 {
	case StatusNoteOff, StatusNoteOn, StatusControlChange:
		if len(b) < 3 {
			return contracts.ErrFrameTruncated
		}
	}
	if _, ok := Decode(b); ok {
		return nil
	}
	return contracts.ErrFrameUnrecognized
}
