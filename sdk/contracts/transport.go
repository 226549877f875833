package contracts

// TransportState is the lifecycle state of a Transport.
type TransportState int

const (
	Uninitialized TransportState = iota
	Initializing
	Ready
)

func (s TransportState) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Transport moves MIDI between a backend and a single consumer goroutine.
//
// Everything except the backend's inbound callback must be called from the
// same goroutine: Init, Pump, the Send methods, AllNotesOff, the listener
// setters and Close.
type Transport interface {
	// Init opens the backend and binds ports. It is idempotent.
	Init() error
	// Pump dispatches everything received since the previous call and returns
	// the number of frames processed.
	Pump() int

	Send(cmd Command)
	SendCC(channel, controller, value uint8)
	SendNoteOn(channel, note, velocity uint8)
	SendNoteOff(channel, note, velocity uint8)
	SendSysEx(data []byte)
	SendProgramChange(channel, program uint8)
	SendPitchBend(channel uint8, value int16)
	SendChannelPressure(channel, pressure uint8)
	SendClock()
	SendStart()
	SendStop()
	SendContinue()
	// AllNotesOff sends a note off for every note the transport believes is
	// sounding and forgets them all.
	AllNotesOff()

	SetOnNoteOn(h NoteHandler)
	SetOnNoteOff(h NoteHandler)
	SetOnControlChange(h ControlChangeHandler)
	SetOnSysEx(h SysExHandler)
	SetOnClock(h ClockHandler)
	SetOnStart(h RealtimeHandler)
	SetOnStop(h RealtimeHandler)
	SetOnContinue(h RealtimeHandler)

	State() TransportState
	Input() (PortDescriptor, bool)
	Output() (PortDescriptor, bool)
	// Dropped reports inbound frames discarded because the queue was full.
	Dropped() uint64

	// Close releases bindings and the backend.
	Close() error
}
