// Package midiloop is an in-process MIDI backend. Ports are created by the
// host program, bytes written to an output are delivered to open inputs with
// the same name, and port changes are announced like a hot-plug observer.
// It backs tests and demos where no hardware is attached.
package midiloop

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// Errors reported by the loopback backend.
var (
	ErrNotOpen     = errors.New("loopback backend not open")
	ErrUnknownPort = errors.New("unknown loopback port")
	ErrPortClosed  = errors.New("loopback port closed")
)

type port struct {
	desc      contracts.PortDescriptor
	onBytes   func([]byte) // set while an input is open
	connected bool         // output reachable
	sent      [][]byte
}

// Backend implements contracts.Backend, contracts.PortWatcher and
// contracts.VirtualPortCreator.
type Backend struct {
	mu        sync.Mutex
	caps      contracts.Capabilities
	openErr   error
	open      bool
	client    string
	ins       []*port
	outs      []*port
	nextID    int
	watchers  map[int]func(contracts.PortEvent)
	nextWatch int
}

// Option configures a Backend.
type Option func(*Backend)

// WithAsyncDiscovery makes the backend advertise incremental discovery.
func WithAsyncDiscovery() Option {
	return func(b *Backend) { b.caps.AsyncDiscovery = true }
}

// WithoutVirtualPorts hides virtual port support.
func WithoutVirtualPorts() Option {
	return func(b *Backend) { b.caps.VirtualPorts = false }
}

// WithOpenError makes Open fail with err.
func WithOpenError(err error) Option {
	return func(b *Backend) { b.openErr = err }
}

// New returns an empty loopback backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		caps:     contracts.Capabilities{VirtualPorts: true},
		watchers: make(map[int]func(contracts.PortEvent)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) String() string { return "loopback" }

// Capabilities implements contracts.Backend.
func (b *Backend) Capabilities() contracts.Capabilities { return b.caps }

// Open implements contracts.Backend.
func (b *Backend) Open(clientName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return b.openErr
	}
	b.open = true
	b.client = clientName
	return nil
}

// ClientName returns the name passed to Open.
func (b *Backend) ClientName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client
}

// Close implements contracts.Backend. Open inputs stop receiving.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	for _, p := range b.ins {
		p.onBytes = nil
	}
	return nil
}

// AddInput publishes an input port and notifies watchers.
func (b *Backend) AddInput(name string) contracts.PortDescriptor {
	return b.add(name, contracts.Input, false)
}

// AddOutput publishes an output port and notifies watchers.
func (b *Backend) AddOutput(name string) contracts.PortDescriptor {
	return b.add(name, contracts.Output, false)
}

func (b *Backend) add(name string, d contracts.Direction, virtual bool) contracts.PortDescriptor {
	b.mu.Lock()
	b.nextID++
	p := &port{
		desc: contracts.PortDescriptor{
			ID:        fmt.Sprintf("%s-%d", d, b.nextID),
			Name:      name,
			Direction: d,
			Virtual:   virtual,
		},
		connected: true,
	}
	if d == contracts.Input {
		b.ins = append(b.ins, p)
	} else {
		b.outs = append(b.outs, p)
	}
	watchers := b.watcherList()
	b.mu.Unlock()

	notify(watchers, contracts.PortEvent{Kind: contracts.PortAdded, Port: p.desc})
	return p.desc
}

// RemovePort unpublishes a port and notifies watchers. An open connection to
// it stops working.
func (b *Backend) RemovePort(desc contracts.PortDescriptor) {
	b.mu.Lock()
	removed := false
	b.ins, removed = without(b.ins, desc.ID, removed)
	b.outs, removed = without(b.outs, desc.ID, removed)
	watchers := b.watcherList()
	b.mu.Unlock()

	if removed {
		notify(watchers, contracts.PortEvent{Kind: contracts.PortRemoved, Port: desc})
	}
}

func without(list []*port, id string, removed bool) ([]*port, bool) {
	out := list[:0]
	for _, p := range list {
		if p.desc.ID == id {
			p.onBytes = nil
			p.connected = false
			removed = true
			continue
		}
		out = append(out, p)
	}
	return out, removed
}

// SetConnected marks an output reachable or not.
func (b *Backend) SetConnected(desc contracts.PortDescriptor, connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.find(b.outs, desc.ID); p != nil {
		p.connected = connected
	}
}

// Inject delivers frame to the input port as if a device sent it. It reports
// whether an open input received it.
func (b *Backend) Inject(desc contracts.PortDescriptor, frame []byte) bool {
	b.mu.Lock()
	p := b.find(b.ins, desc.ID)
	var cb func([]byte)
	if p != nil && b.open {
		cb = p.onBytes
	}
	b.mu.Unlock()

	if cb == nil {
		return false
	}
	cb(frame)
	return true
}

// Sent returns copies of everything written to the output port.
func (b *Backend) Sent(desc contracts.PortDescriptor) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.find(b.outs, desc.ID)
	if p == nil {
		return nil
	}
	out := make([][]byte, len(p.sent))
	for i, s := range p.sent {
		out[i] = append([]byte(nil), s...)
	}
	return out
}

// InputPorts implements contracts.Backend.
func (b *Backend) InputPorts() ([]contracts.PortDescriptor, error) {
	return b.list(b.ins)
}

// OutputPorts implements contracts.Backend.
func (b *Backend) OutputPorts() ([]contracts.PortDescriptor, error) {
	return b.list(b.outs)
}

func (b *Backend) list(ports []*port) ([]contracts.PortDescriptor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil, ErrNotOpen
	}
	out := make([]contracts.PortDescriptor, 0, len(ports))
	for _, p := range ports {
		out = append(out, p.desc)
	}
	return out, nil
}

// OpenInput implements contracts.Backend.
func (b *Backend) OpenInput(desc contracts.PortDescriptor, onBytes func([]byte)) (contracts.InputConn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil, ErrNotOpen
	}
	p := b.find(b.ins, desc.ID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPort, desc.Name)
	}
	p.onBytes = onBytes
	return &inputConn{b: b, p: p}, nil
}

// OpenOutput implements contracts.Backend.
func (b *Backend) OpenOutput(desc contracts.PortDescriptor) (contracts.OutputConn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil, ErrNotOpen
	}
	p := b.find(b.outs, desc.ID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPort, desc.Name)
	}
	return &outputConn{b: b, p: p}, nil
}

// CreateVirtualInput implements contracts.VirtualPortCreator.
func (b *Backend) CreateVirtualInput(name string, onBytes func([]byte)) (contracts.InputConn, error) {
	desc := b.add(name, contracts.Input, true)
	return b.OpenInput(desc, onBytes)
}

// CreateVirtualOutput implements contracts.VirtualPortCreator.
func (b *Backend) CreateVirtualOutput(name string) (contracts.OutputConn, error) {
	desc := b.add(name, contracts.Output, true)
	return b.OpenOutput(desc)
}

// WatchPorts implements contracts.PortWatcher. Existing ports are reported
// first, synchronously, in creation order.
func (b *Backend) WatchPorts(handler func(contracts.PortEvent)) (func(), error) {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return nil, ErrNotOpen
	}
	id := b.nextWatch
	b.nextWatch++
	b.watchers[id] = handler
	existing := make([]contracts.PortDescriptor, 0, len(b.ins)+len(b.outs))
	for _, p := range b.ins {
		existing = append(existing, p.desc)
	}
	for _, p := range b.outs {
		existing = append(existing, p.desc)
	}
	b.mu.Unlock()

	for _, d := range existing {
		handler(contracts.PortEvent{Kind: contracts.PortAdded, Port: d})
	}
	return func() {
		b.mu.Lock()
		delete(b.watchers, id)
		b.mu.Unlock()
	}, nil
}

func (b *Backend) find(list []*port, id string) *port {
	for _, p := range list {
		if p.desc.ID == id {
			return p
		}
	}
	return nil
}

func (b *Backend) watcherList() []func(contracts.PortEvent) {
	out := make([]func(contracts.PortEvent), 0, len(b.watchers))
	for i := 0; i < b.nextWatch; i++ {
		if w, ok := b.watchers[i]; ok {
			out = append(out, w)
		}
	}
	return out
}

func notify(watchers []func(contracts.PortEvent), ev contracts.PortEvent) {
	for _, w := range watchers {
		w(ev)
	}
}

type inputConn struct {
	b      *Backend
	p      *port
	closed bool
}

func (c *inputConn) Descriptor() contracts.PortDescriptor { return c.p.desc }

func (c *inputConn) Close() error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.p.onBytes = nil
	return nil
}

type outputConn struct {
	b      *Backend
	p      *port
	closed bool
}

func (c *outputConn) Descriptor() contracts.PortDescriptor { return c.p.desc }

func (c *outputConn) IsConnected() bool {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	return !c.closed && c.b.open && c.p.connected
}

// Write records data and loops it back to open inputs sharing the port name.
func (c *outputConn) Write(data []byte) error {
	c.b.mu.Lock()
	if c.closed || !c.p.connected {
		c.b.mu.Unlock()
		return ErrPortClosed
	}
	frame := append([]byte(nil), data...)
	c.p.sent = append(c.p.sent, frame)
	var targets []func([]byte)
	for _, in := range c.b.ins {
		if in.desc.Name == c.p.desc.Name && in.onBytes != nil {
			targets = append(targets, in.onBytes)
		}
	}
	c.b.mu.Unlock()

	for _, cb := range targets {
		cb(frame)
	}
	return nil
}

func (c *outputConn) Close() error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.closed = true
	return nil
}
