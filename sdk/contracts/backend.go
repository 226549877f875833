package contracts

// Direction tells whether a port delivers or accepts MIDI data.
type Direction int

const (
	// Input ports deliver bytes to the transport.
	Input Direction = iota
	// Output ports accept bytes from the transport.
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// PortDescriptor identifies a port reported by a backend. The transport only
// matches against descriptors, it never constructs them for existing ports.
type PortDescriptor struct {
	ID        string    // Backend-specific identity used to reopen the port.
	Name      string    // Display name matched against port patterns.
	Direction Direction // Input or Output.
	Virtual   bool      // Port is created on demand instead of opened.
}

// PortEventKind distinguishes port notifications.
type PortEventKind int

const (
	// PortAdded reports a newly available port.
	PortAdded PortEventKind = iota
	// PortRemoved reports a port that went away.
	PortRemoved
)

func (k PortEventKind) String() string {
	if k == PortRemoved {
		return "removed"
	}
	return "added"
}

// PortEvent is a hot-plug notification delivered by a PortWatcher.
type PortEvent struct {
	Kind PortEventKind
	Port PortDescriptor
}

// Capabilities describes what a backend can do beyond enumeration.
type Capabilities struct {
	// AsyncDiscovery means ports are announced through PortWatcher instead of
	// being fully known at Open time.
	AsyncDiscovery bool
	// VirtualPorts means the backend implements VirtualPortCreator.
	VirtualPorts bool
}

// InputConn is an open input port. The byte callback passed at open time may
// be invoked on any goroutine until Close returns, and possibly shortly after.
type InputConn interface {
	Descriptor() PortDescriptor
	Close() error
}

// OutputConn is an open output port.
type OutputConn interface {
	Descriptor() PortDescriptor
	Write(data []byte) error
	IsConnected() bool
	Close() error
}

// Backend is the platform MIDI collaborator (CoreMIDI, WinMM, rtmidi, serial...).
type Backend interface {
	String() string
	Capabilities() Capabilities

	// Open connects to the platform MIDI service. Failure here is the only
	// fatal transport initialization error.
	Open(clientName string) error

	InputPorts() ([]PortDescriptor, error)
	OutputPorts() ([]PortDescriptor, error)

	// OpenInput starts delivering complete frames from port to onBytes. The
	// slice passed to onBytes is only valid for the duration of the call.
	OpenInput(port PortDescriptor, onBytes func([]byte)) (InputConn, error)
	OpenOutput(port PortDescriptor) (OutputConn, error)

	Close() error
}

// PortWatcher is implemented by backends that announce ports incrementally.
// The handler may be called on any goroutine.
type PortWatcher interface {
	WatchPorts(handler func(PortEvent)) (stop func(), err error)
}

// VirtualPortCreator is implemented by backends able to publish their own
// ports for other applications to connect to.
type VirtualPortCreator interface {
	CreateVirtualInput(name string, onBytes func([]byte)) (InputConn, error)
	CreateVirtualOutput(name string) (OutputConn, error)
}
