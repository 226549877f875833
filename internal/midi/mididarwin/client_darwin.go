//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/miditransport/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrClientNotOpen       = errors.New("CoreMIDI client not open")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrCreateOutputPort    = errors.New("error creating output port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Backend talks to CoreMIDI sources (inputs) and destinations (outputs).
// CoreMIDI calls the read procedure on its own thread.
type Backend struct {
	logger contracts.Logger
	mu     sync.Mutex
	client *coremidi.Client
}

// NewBackend returns a CoreMIDI backend. No CoreMIDI call happens before Open.
func NewBackend(options *contracts.TransportOptions) (contracts.Backend, error) {
	return &Backend{logger: options.Logger}, nil
}

func (m *Backend) String() string { return "coremidi" }

// Capabilities implements contracts.Backend. Hot-plug is observed by polling.
func (m *Backend) Capabilities() contracts.Capabilities { return contracts.Capabilities{} }

// Open creates the CoreMIDI client.
func (m *Backend) Open(clientName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return nil
	}
	client, err := coremidi.NewClient(clientName)
	if err != nil {
		return err
	}
	m.client = &client
	m.logger.Info("MIDI client successfully created", m.logger.Field().String("client", clientName))
	return nil
}

// InputPorts lists CoreMIDI sources.
func (m *Backend) InputPorts() ([]contracts.PortDescriptor, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	ports := make([]contracts.PortDescriptor, len(sources))
	for i, source := range sources {
		ports[i] = descriptor(i, source.Name(), contracts.Input)
	}
	return ports, nil
}

// OutputPorts lists CoreMIDI destinations.
func (m *Backend) OutputPorts() ([]contracts.PortDescriptor, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	ports := make([]contracts.PortDescriptor, len(destinations))
	for i, destination := range destinations {
		ports[i] = descriptor(i, destination.Name(), contracts.Output)
	}
	return ports, nil
}

func descriptor(index int, name string, d contracts.Direction) contracts.PortDescriptor {
	return contracts.PortDescriptor{ID: fmt.Sprintf("%s-%d", d, index), Name: name, Direction: d}
}

// OpenInput connects a new input port to the source described by port.
func (m *Backend) OpenInput(port contracts.PortDescriptor, onBytes func([]byte)) (contracts.InputConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil, ErrClientNotOpen
	}

	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	var source *coremidi.Source
	for i := range sources {
		if descriptor(i, sources[i].Name(), contracts.Input) == port {
			source = &sources[i]
			break
		}
	}
	if source == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMIDIDevice, port.Name)
	}

	read := packetReader(onBytes)
	inputPort, err := coremidi.NewInputPort(*m.client, "Input Port", func(_ coremidi.Source, packet coremidi.Packet) {
		read(packet.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	conn, err := inputPort.Connect(*source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI source connected", m.logger.Field().String("name", port.Name))
	return &inputConn{desc: port, conn: conn}, nil
}

// OpenOutput creates an output port sending to the destination described by port.
func (m *Backend) OpenOutput(port contracts.PortDescriptor) (contracts.OutputConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil, ErrClientNotOpen
	}

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	var destination *coremidi.Destination
	for i := range destinations {
		if descriptor(i, destinations[i].Name(), contracts.Output) == port {
			destination = &destinations[i]
			break
		}
	}
	if destination == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMIDIDevice, port.Name)
	}

	outputPort, err := coremidi.NewOutputPort(*m.client, "Output Port")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}

	m.logger.Info("MIDI destination connected", m.logger.Field().String("name", port.Name))
	return &outputConn{desc: port, port: outputPort, destination: *destination}, nil
}

// Close forgets the client. CoreMIDI releases it with the process.
func (m *Backend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = nil
	return nil
}

type inputConn struct {
	desc contracts.PortDescriptor
	mu   sync.Mutex
	conn internalPortConnection
}

func (c *inputConn) Descriptor() contracts.PortDescriptor { return c.desc }

func (c *inputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Disconnect()
		c.conn = nil
	}
	return nil
}

type outputConn struct {
	desc        contracts.PortDescriptor
	mu          sync.Mutex
	port        coremidi.OutputPort
	destination coremidi.Destination
	closed      bool
}

func (c *outputConn) Descriptor() contracts.PortDescriptor { return c.desc }

func (c *outputConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Write sends data as a single packet stamped for immediate delivery.
func (c *outputConn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrMIDIConnectionError
	}
	packet := coremidi.NewPacket(data, 0)
	return packet.Send(&c.port, &c.destination)
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
