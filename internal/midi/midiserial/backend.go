// Package midiserial speaks DIN MIDI over serial devices such as USB-serial
// adapters and microcontroller bridges. The link carries a raw byte stream, so
// inbound bytes are split into frames with wire.Framer.
package midiserial

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/leandrodaf/miditransport/internal/logger"
	"github.com/leandrodaf/miditransport/internal/wire"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"go.bug.st/serial"
)

// DefaultBaudRate is the DIN MIDI bit rate.
const DefaultBaudRate = 31250

var (
	ErrNotOpen    = errors.New("serial backend not open")
	ErrLinkClosed = errors.New("serial link closed")
)

// Port is the part of a serial port the backend uses.
type Port io.ReadWriteCloser

// Opener opens the serial device name at baud.
type Opener func(name string, baud int) (Port, error)

// Lister returns the serial device names present on the system.
type Lister func() ([]string, error)

func openSerial(name string, baud int) (Port, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := p.ResetInputBuffer(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Backend implements contracts.Backend. Every serial device is offered as
// both an input and an output; an input and an output on the same device
// share one handle.
type Backend struct {
	baud     int
	maxSysEx int
	open     Opener
	list     Lister
	logger   contracts.Logger

	mu     sync.Mutex
	opened bool
	links  map[string]*link
}

// Option configures a Backend.
type Option func(*Backend)

// WithBaudRate overrides DefaultBaudRate. Bridges that tunnel MIDI over a
// USB CDC link commonly use 115200. Zero keeps the default.
func WithBaudRate(baud int) Option {
	return func(b *Backend) {
		if baud > 0 {
			b.baud = baud
		}
	}
}

// WithMaxSysEx caps inbound SysEx frames.
func WithMaxSysEx(n int) Option {
	return func(b *Backend) { b.maxSysEx = n }
}

// WithLogger sets the logger. A nil logger keeps the silent default.
func WithLogger(l contracts.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithOpener replaces serial.Open, mainly for tests.
func WithOpener(o Opener) Option {
	return func(b *Backend) { b.open = o }
}

// WithLister replaces serial.GetPortsList, mainly for tests.
func WithLister(l Lister) Option {
	return func(b *Backend) { b.list = l }
}

// New returns a serial backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		baud:     DefaultBaudRate,
		maxSysEx: wire.DefaultMaxSysEx,
		open:     openSerial,
		list:     serial.GetPortsList,
		logger:   logger.NewNopLogger(),
		links:    make(map[string]*link),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) String() string { return "serial" }

// Capabilities implements contracts.Backend.
func (b *Backend) Capabilities() contracts.Capabilities { return contracts.Capabilities{} }

// Open implements contracts.Backend. Devices are opened when bound.
func (b *Backend) Open(string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = true
	return nil
}

func (b *Backend) ports(d contracts.Direction) ([]contracts.PortDescriptor, error) {
	b.mu.Lock()
	opened := b.opened
	b.mu.Unlock()
	if !opened {
		return nil, ErrNotOpen
	}
	names, err := b.list()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}
	ports := make([]contracts.PortDescriptor, len(names))
	for i, name := range names {
		ports[i] = contracts.PortDescriptor{ID: name, Name: name, Direction: d}
	}
	return ports, nil
}

// InputPorts implements contracts.Backend.
func (b *Backend) InputPorts() ([]contracts.PortDescriptor, error) { return b.ports(contracts.Input) }

// OutputPorts implements contracts.Backend.
func (b *Backend) OutputPorts() ([]contracts.PortDescriptor, error) { return b.ports(contracts.Output) }

// acquire returns the link for device, opening it on first use.
func (b *Backend) acquire(device string) (*link, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.opened {
		return nil, ErrNotOpen
	}
	if l, ok := b.links[device]; ok {
		l.refs++
		return l, nil
	}
	p, err := b.open(device, b.baud)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	l := newLink(device, p, b.maxSysEx, b.logger)
	b.links[device] = l
	b.logger.Info("serial port opened",
		b.logger.Field().String("device", device),
		b.logger.Field().Int("baud", b.baud))
	return l, nil
}

func (b *Backend) release(l *link) error {
	b.mu.Lock()
	l.refs--
	last := l.refs == 0
	if last {
		delete(b.links, l.device)
	}
	b.mu.Unlock()

	if !last {
		return nil
	}
	b.logger.Info("serial port closed", b.logger.Field().String("device", l.device))
	return l.close()
}

// OpenInput starts reading the device and framing its bytes.
func (b *Backend) OpenInput(port contracts.PortDescriptor, onBytes func([]byte)) (contracts.InputConn, error) {
	l, err := b.acquire(port.ID)
	if err != nil {
		return nil, err
	}
	l.listen(onBytes)
	return &inputConn{b: b, l: l, desc: port}, nil
}

// OpenOutput implements contracts.Backend.
func (b *Backend) OpenOutput(port contracts.PortDescriptor) (contracts.OutputConn, error) {
	l, err := b.acquire(port.ID)
	if err != nil {
		return nil, err
	}
	return &outputConn{b: b, l: l, desc: port}, nil
}

// Close implements contracts.Backend. Devices still bound stay open until
// their connections close.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = false
	return nil
}

type inputConn struct {
	b    *Backend
	l    *link
	desc contracts.PortDescriptor
	once sync.Once
}

func (c *inputConn) Descriptor() contracts.PortDescriptor { return c.desc }

func (c *inputConn) Close() error {
	var err error
	c.once.Do(func() {
		c.l.listen(nil)
		err = c.b.release(c.l)
	})
	return err
}

type outputConn struct {
	b      *Backend
	l      *link
	desc   contracts.PortDescriptor
	mu     sync.Mutex
	closed bool
}

func (c *outputConn) Descriptor() contracts.PortDescriptor { return c.desc }

func (c *outputConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.l.alive()
}

func (c *outputConn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrLinkClosed
	}
	return c.l.write(data)
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.b.release(c.l)
}
