package contracts

// NoteHandler receives note on and note off events.
type NoteHandler func(channel, note, velocity uint8)

// ControlChangeHandler receives control change events.
type ControlChangeHandler func(channel, controller, value uint8)

// SysExHandler receives the complete system exclusive frame. The slice is
// owned by the handler.
type SysExHandler func(data []byte)

// ClockHandler receives clock ticks with their monotonic receive timestamp in
// microseconds.
type ClockHandler func(timestampUs uint64)

// RealtimeHandler receives start, stop and continue.
type RealtimeHandler func()
