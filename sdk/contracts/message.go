package contracts

// Event is a decoded inbound MIDI message. Values are produced by the wire
// decoder and never mutated afterwards.
type Event interface {
	event()
}

// Command is an outbound MIDI message. Each command has exactly one wire
// encoding.
type Command interface {
	command()
}

// NoteOn starts a note. Decoded note-ons always carry a velocity of 1..127;
// a velocity of 0 on the wire is delivered as NoteOff.
type NoteOn struct {
	Channel  uint8 // 0-15
	Note     uint8 // 0-127
	Velocity uint8 // 1-127
}

// NoteOff releases a note.
type NoteOff struct {
	Channel  uint8
	Note     uint8
	Velocity uint8 // release velocity, 0-127
}

// ControlChange sets a controller value.
type ControlChange struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

// SysEx carries a system exclusive message, including the leading 0xF0 and,
// when present, the trailing 0xF7.
type SysEx struct {
	Data []byte
}

// ProgramChange selects a program (outbound only).
type ProgramChange struct {
	Channel uint8
	Program uint8
}

// PitchBend bends the channel pitch; Value ranges -8192..8191 with 0 at
// center (outbound only).
type PitchBend struct {
	Channel uint8
	Value   int16
}

// ChannelPressure sends channel aftertouch (outbound only).
type ChannelPressure struct {
	Channel  uint8
	Pressure uint8
}

// Clock is a MIDI timing clock tick. Timestamp is the monotonic receive time
// in microseconds and is ignored when sending.
type Clock struct {
	Timestamp uint64
}

// Start is the realtime transport start message.
type Start struct{}

// Stop is the realtime transport stop message.
type Stop struct{}

// Continue is the realtime transport continue message.
type Continue struct{}

func (NoteOn) event()        {}
func (NoteOff) event()       {}
func (ControlChange) event() {}
func (SysEx) event()         {}
func (Clock) event()         {}
func (Start) event()         {}
func (Stop) event()          {}
func (Continue) event()      {}

func (NoteOn) command()          {}
func (NoteOff) command()         {}
func (ControlChange) command()   {}
func (SysEx) command()           {}
func (ProgramChange) command()   {}
func (PitchBend) command()       {}
func (ChannelPressure) command() {}
func (Clock) command()           {}
func (Start) command()           {}
func (Stop) command()            {}
func (Continue) command()        {}
