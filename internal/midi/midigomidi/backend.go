// Package midigomidi adapts any gomidi v2 driver to the transport backend
// contract. With the rtmidi build tag it provides the ALSA/JACK backend used
// on Linux, including virtual ports.
package midigomidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/miditransport/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/multierr"
)

var (
	ErrNotOpen     = errors.New("MIDI driver not open")
	ErrUnknownPort = errors.New("unknown MIDI port")
)

// DriverFactory creates the driver when the backend opens.
type DriverFactory func() (drivers.Driver, error)

// virtualDriver is implemented by drivers that can publish ports, such as
// rtmididrv.
type virtualDriver interface {
	OpenVirtualIn(name string) (drivers.In, error)
	OpenVirtualOut(name string) (drivers.Out, error)
}

// Backend implements contracts.Backend over a gomidi driver. When the driver
// can publish ports it also implements contracts.VirtualPortCreator; the
// capability is only known once the driver is open.
type Backend struct {
	name    string
	factory DriverFactory
	logger  contracts.Logger

	mu  sync.Mutex
	drv drivers.Driver
}

// New returns a backend that builds its driver with factory on Open.
func New(name string, factory DriverFactory, logger contracts.Logger) *Backend {
	return &Backend{name: name, factory: factory, logger: logger}
}

func (b *Backend) String() string { return b.name }

// Capabilities implements contracts.Backend.
func (b *Backend) Capabilities() contracts.Capabilities {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, virtual := b.drv.(virtualDriver)
	return contracts.Capabilities{VirtualPorts: virtual}
}

// Open builds the driver. gomidi drivers take no client name, so it is only
// logged.
func (b *Backend) Open(clientName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drv != nil {
		return nil
	}
	drv, err := b.factory()
	if err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	b.drv = drv
	b.logger.Info("MIDI driver opened",
		b.logger.Field().String("driver", drv.String()),
		b.logger.Field().String("client", clientName))
	return nil
}

func (b *Backend) driver() (drivers.Driver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drv == nil {
		return nil, ErrNotOpen
	}
	return b.drv, nil
}

func descriptor(p drivers.Port, d contracts.Direction) contracts.PortDescriptor {
	return contracts.PortDescriptor{
		ID:        fmt.Sprintf("%s-%d", d, p.Number()),
		Name:      p.String(),
		Direction: d,
	}
}

// InputPorts implements contracts.Backend.
func (b *Backend) InputPorts() ([]contracts.PortDescriptor, error) {
	drv, err := b.driver()
	if err != nil {
		return nil, err
	}
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	ports := make([]contracts.PortDescriptor, len(ins))
	for i, in := range ins {
		ports[i] = descriptor(in, contracts.Input)
	}
	return ports, nil
}

// OutputPorts implements contracts.Backend.
func (b *Backend) OutputPorts() ([]contracts.PortDescriptor, error) {
	drv, err := b.driver()
	if err != nil {
		return nil, err
	}
	outs, err := drv.Outs()
	if err != nil {
		return nil, err
	}
	ports := make([]contracts.PortDescriptor, len(outs))
	for i, out := range outs {
		ports[i] = descriptor(out, contracts.Output)
	}
	return ports, nil
}

// OpenInput implements contracts.Backend.
func (b *Backend) OpenInput(port contracts.PortDescriptor, onBytes func([]byte)) (contracts.InputConn, error) {
	drv, err := b.driver()
	if err != nil {
		return nil, err
	}
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	for _, in := range ins {
		if descriptor(in, contracts.Input) == port {
			return listen(in, port, onBytes)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPort, port.Name)
}

// OpenOutput implements contracts.Backend.
func (b *Backend) OpenOutput(port contracts.PortDescriptor) (contracts.OutputConn, error) {
	drv, err := b.driver()
	if err != nil {
		return nil, err
	}
	outs, err := drv.Outs()
	if err != nil {
		return nil, err
	}
	for _, out := range outs {
		if descriptor(out, contracts.Output) == port {
			return openOut(out, port)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPort, port.Name)
}

// CreateVirtualInput implements contracts.VirtualPortCreator.
func (b *Backend) CreateVirtualInput(name string, onBytes func([]byte)) (contracts.InputConn, error) {
	vd, err := b.virtual()
	if err != nil {
		return nil, err
	}
	in, err := vd.OpenVirtualIn(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual MIDI input port %q: %w", name, err)
	}
	desc := contracts.PortDescriptor{ID: "virtual-input", Name: name, Direction: contracts.Input, Virtual: true}
	return listen(in, desc, onBytes)
}

// CreateVirtualOutput implements contracts.VirtualPortCreator.
func (b *Backend) CreateVirtualOutput(name string) (contracts.OutputConn, error) {
	vd, err := b.virtual()
	if err != nil {
		return nil, err
	}
	out, err := vd.OpenVirtualOut(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual MIDI output port %q: %w", name, err)
	}
	desc := contracts.PortDescriptor{ID: "virtual-output", Name: name, Direction: contracts.Output, Virtual: true}
	return openOut(out, desc)
}

func (b *Backend) virtual() (virtualDriver, error) {
	drv, err := b.driver()
	if err != nil {
		return nil, err
	}
	vd, ok := drv.(virtualDriver)
	if !ok {
		return nil, contracts.ErrVirtualPortsUnsupported
	}
	return vd, nil
}

// Close closes the driver and every port it opened.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drv == nil {
		return nil
	}
	err := b.drv.Close()
	b.drv = nil
	return err
}

type inputConn struct {
	desc contracts.PortDescriptor
	in   drivers.In
	stop func()
	once sync.Once
}

func listen(in drivers.In, desc contracts.PortDescriptor, onBytes func([]byte)) (contracts.InputConn, error) {
	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return nil, err
		}
	}
	stop, err := in.Listen(func(msg []byte, _ int32) {
		onBytes(msg)
	}, drivers.ListenConfig{TimeCode: true, SysEx: true})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to start listening on input port: %w", err), in.Close())
	}
	return &inputConn{desc: desc, in: in, stop: stop}, nil
}

func (c *inputConn) Descriptor() contracts.PortDescriptor { return c.desc }

func (c *inputConn) Close() error {
	var err error
	c.once.Do(func() {
		c.stop()
		err = c.in.Close()
	})
	return err
}

type outputConn struct {
	desc contracts.PortDescriptor
	out  drivers.Out
}

func openOut(out drivers.Out, desc contracts.PortDescriptor) (contracts.OutputConn, error) {
	if !out.IsOpen() {
		if err := out.Open(); err != nil {
			return nil, err
		}
	}
	return &outputConn{desc: desc, out: out}, nil
}

func (c *outputConn) Descriptor() contracts.PortDescriptor { return c.desc }
func (c *outputConn) IsConnected() bool                    { return c.out.IsOpen() }
func (c *outputConn) Write(data []byte) error              { return c.out.Send(data) }
func (c *outputConn) Close() error                         { return c.out.Close() }
