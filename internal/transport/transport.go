// Package transport composes codec, queue, note registry and port selection
// into a MIDI transport bound to one backend.
package transport

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leandrodaf/miditransport/internal/notes"
	"github.com/leandrodaf/miditransport/internal/ports"
	"github.com/leandrodaf/miditransport/internal/queue"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"go.uber.org/multierr"
)

// Config is the construction-time configuration of a Transport.
type Config struct {
	AppName            string
	MaxActiveNotes     int
	MaxPendingMessages int
	Patterns           ports.Patterns
	PortMode           contracts.PortMode
	DiscoveryMode      contracts.DiscoveryMode
	PollInterval       time.Duration
}

// ConfigFromOptions extracts the transport configuration from SDK options.
func ConfigFromOptions(o *contracts.TransportOptions) Config {
	return Config{
		AppName:            o.AppName,
		MaxActiveNotes:     o.MaxActiveNotes,
		MaxPendingMessages: o.MaxPendingMessages,
		Patterns:           ports.Patterns{Input: o.InputPortPattern, Output: o.OutputPortPattern},
		PortMode:           o.PortMode,
		DiscoveryMode:      o.DiscoveryMode,
		PollInterval:       o.PollInterval,
	}
}

type handlers struct {
	noteOn        contracts.NoteHandler
	noteOff       contracts.NoteHandler
	controlChange contracts.ControlChangeHandler
	sysEx         contracts.SysExHandler
	clock         contracts.ClockHandler
	start         contracts.RealtimeHandler
	stop          contracts.RealtimeHandler
	cont          contracts.RealtimeHandler
}

// Transport implements contracts.Transport.
//
// Only the inbound queue is shared with backend goroutines. Bindings, the
// note registry and handlers belong to the goroutine that calls Init, Pump
// and the Send methods.
type Transport struct {
	id      uuid.UUID
	cfg     Config
	backend contracts.Backend
	logger  contracts.Logger

	state       contracts.TransportState
	backendOpen bool
	inbound     *queue.Inbound
	reported    uint64 // overflow count already logged
	notes       *notes.Registry
	selector    ports.Selector
	input       contracts.InputConn
	output      contracts.OutputConn
	handlers    handlers
}

var _ contracts.Transport = (*Transport)(nil)

// New returns an uninitialized transport over backend.
func New(backend contracts.Backend, cfg Config, logger contracts.Logger) *Transport {
	if cfg.AppName == "" {
		cfg.AppName = contracts.DefaultAppName
	}
	if cfg.MaxActiveNotes <= 0 {
		cfg.MaxActiveNotes = contracts.DefaultMaxActiveNotes
	}
	if cfg.MaxPendingMessages <= 0 {
		cfg.MaxPendingMessages = contracts.DefaultMaxPendingMessages
	}
	id := uuid.New()
	return &Transport{
		id:      id,
		cfg:     cfg,
		backend: backend,
		logger:  logger.With(logger.Field().String("transport", id.String())),
		inbound: queue.NewInbound(cfg.MaxPendingMessages),
		notes:   notes.New(0),
	}
}

// ID identifies this transport in logs.
func (t *Transport) ID() uuid.UUID { return t.id }

// State implements contracts.Transport.
func (t *Transport) State() contracts.TransportState { return t.state }

// Init opens the backend, allocates the note registry and runs port
// discovery. Calling it again once Ready does nothing. Only a backend that
// cannot be opened, enumerated or bound yields an error, wrapping
// contracts.ErrHardwareInitFailed; unmatched patterns leave directions
// unbound.
func (t *Transport) Init() error {
	if t.state == contracts.Ready {
		return nil
	}
	t.state = contracts.Initializing
	t.notes = notes.New(t.cfg.MaxActiveNotes)
	// A callback that outlived a previous Close may have queued frames.
	t.inbound.DrainAll()

	t.logger.Info("initializing MIDI transport",
		t.logger.Field().String("backend", t.backend.String()),
		t.logger.Field().String("app", t.cfg.AppName))

	if err := t.backend.Open(t.cfg.AppName); err != nil {
		return t.fail(err)
	}
	t.backendOpen = true

	sel := t.newSelector()
	t.selector = sel
	if err := sel.Discover(binder{t}); err != nil {
		return t.fail(err)
	}

	t.state = contracts.Ready
	in, _ := t.Input()
	out, _ := t.Output()
	t.logger.Info("MIDI transport ready",
		t.logger.Field().String("discovery", sel.Mode().String()),
		t.logger.Field().String("input", in.Name),
		t.logger.Field().String("output", out.Name))
	return nil
}

func (t *Transport) fail(cause error) error {
	t.logger.Error("MIDI init failed", t.logger.Field().Error("error", cause))
	_ = t.release()
	t.state = contracts.Uninitialized
	return fmt.Errorf("%w: %w", contracts.ErrHardwareInitFailed, cause)
}

func (t *Transport) newSelector() ports.Selector {
	caps := t.backend.Capabilities()

	if t.cfg.PortMode == contracts.CreateVirtual {
		if _, ok := t.backend.(contracts.VirtualPortCreator); ok && caps.VirtualPorts {
			return ports.NewSyncDiscovery(virtualPorts{t.cfg}, t.cfg.Patterns, t.logger)
		}
		t.logger.Warn("virtual ports requested; matching existing ports instead",
			t.logger.Field().Error("error", contracts.ErrVirtualPortsUnsupported))
	}

	mode := t.cfg.DiscoveryMode
	if mode == contracts.DiscoveryAuto {
		mode = contracts.DiscoverySync
		if caps.AsyncDiscovery {
			mode = contracts.DiscoveryAsync
		}
	}
	if mode == contracts.DiscoverySync {
		return ports.NewSyncDiscovery(t.backend, t.cfg.Patterns, t.logger)
	}

	watcher, ok := t.backend.(contracts.PortWatcher)
	if !ok {
		watcher = ports.NewPollingWatcher(t.backend, t.cfg.PollInterval, t.logger)
	}
	return ports.NewAsyncDiscovery(watcher, t.cfg.Patterns, t.logger)
}

// Input implements contracts.Transport.
func (t *Transport) Input() (contracts.PortDescriptor, bool) {
	if t.input == nil {
		return contracts.PortDescriptor{}, false
	}
	return t.input.Descriptor(), true
}

// Output implements contracts.Transport.
func (t *Transport) Output() (contracts.PortDescriptor, bool) {
	if t.output == nil {
		return contracts.PortDescriptor{}, false
	}
	return t.output.Descriptor(), true
}

// Dropped implements contracts.Transport.
func (t *Transport) Dropped() uint64 { return t.inbound.Dropped() }

// ActiveNotes returns the notes currently tracked as sounding.
func (t *Transport) ActiveNotes() []notes.Slot { return t.notes.Active() }

// Close releases the selector, both bindings and the backend, and discards
// frames still waiting in the inbound queue. The transport returns to
// Uninitialized.
func (t *Transport) Close() error {
	err := t.release()
	t.state = contracts.Uninitialized
	t.logger.Info("MIDI transport closed")
	return err
}

func (t *Transport) release() error {
	var err error
	if t.selector != nil {
		err = multierr.Append(err, t.selector.Close())
		t.selector = nil
	}
	if t.input != nil {
		err = multierr.Append(err, t.input.Close())
		t.input = nil
	}
	if t.output != nil {
		err = multierr.Append(err, t.output.Close())
		t.output = nil
	}
	if t.backendOpen {
		err = multierr.Append(err, t.backend.Close())
		t.backendOpen = false
	}
	t.inbound.DrainAll()
	return err
}

// binder opens ports on behalf of a selector.
type binder struct{ t *Transport }

func (b binder) InputBound() bool  { return b.t.input != nil }
func (b binder) OutputBound() bool { return b.t.output != nil }

func (b binder) BindInput(port contracts.PortDescriptor) error {
	t := b.t
	if t.input != nil {
		return nil
	}
	// The closure holds the queue, not the transport, so a late backend
	// callback never touches transport state.
	q := t.inbound
	onBytes := func(data []byte) { q.Enqueue(data) }

	var (
		conn contracts.InputConn
		err  error
	)
	if port.Virtual {
		conn, err = t.backend.(contracts.VirtualPortCreator).CreateVirtualInput(port.Name, onBytes)
	} else {
		conn, err = t.backend.OpenInput(port, onBytes)
	}
	if err != nil {
		return err
	}
	t.input = conn
	t.logger.Info("MIDI input port opened",
		t.logger.Field().String("name", port.Name),
		t.logger.Field().Bool("virtual", port.Virtual))
	return nil
}

func (b binder) BindOutput(port contracts.PortDescriptor) error {
	t := b.t
	if t.output != nil {
		return nil
	}
	var (
		conn contracts.OutputConn
		err  error
	)
	if port.Virtual {
		conn, err = t.backend.(contracts.VirtualPortCreator).CreateVirtualOutput(port.Name)
	} else {
		conn, err = t.backend.OpenOutput(port)
	}
	if err != nil {
		return err
	}
	t.output = conn
	t.logger.Info("MIDI output port opened",
		t.logger.Field().String("name", port.Name),
		t.logger.Field().Bool("virtual", port.Virtual))
	return nil
}

// virtualPorts enumerates the ports a transport would create, so the regular
// matching rule applies unchanged in CreateVirtual mode.
type virtualPorts struct{ cfg Config }

func (v virtualPorts) name(pattern string) string {
	if pattern == "" {
		return v.cfg.AppName
	}
	return pattern
}

func (v virtualPorts) InputPorts() ([]contracts.PortDescriptor, error) {
	return []contracts.PortDescriptor{{
		Name:      v.name(v.cfg.Patterns.Input),
		Direction: contracts.Input,
		Virtual:   true,
	}}, nil
}

func (v virtualPorts) OutputPorts() ([]contracts.PortDescriptor, error) {
	return []contracts.PortDescriptor{{
		Name:      v.name(v.cfg.Patterns.Output),
		Direction: contracts.Output,
		Virtual:   true,
	}}, nil
}
