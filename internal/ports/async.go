package ports

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/miditransport/internal/queue"
	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// DefaultBacklog bounds port notifications waiting for the next Poll.
const DefaultBacklog = 256

// AsyncDiscovery binds ports as a PortWatcher announces them. Notifications
// may arrive on any goroutine; they are queued and only acted on in Poll, so
// bindings change on the pump goroutine alone.
//
// An added port is bound when its direction is still unbound and its name
// matches. Removals are logged and never trigger a rebind or a fallback
// search.
type AsyncDiscovery struct {
	watcher  contracts.PortWatcher
	patterns Patterns
	logger   contracts.Logger
	pending  *queue.Bounded[contracts.PortEvent]

	binder   Binder
	stop     func()
	stopOnce sync.Once
}

// NewAsyncDiscovery returns a selector fed by watcher.
func NewAsyncDiscovery(watcher contracts.PortWatcher, patterns Patterns, logger contracts.Logger) *AsyncDiscovery {
	return &AsyncDiscovery{
		watcher:  watcher,
		patterns: patterns,
		logger:   logger,
		pending:  queue.NewBounded[contracts.PortEvent](DefaultBacklog),
	}
}

// Mode implements Selector.
func (a *AsyncDiscovery) Mode() contracts.DiscoveryMode { return contracts.DiscoveryAsync }

// Discover subscribes to port notifications. Nothing is bound until Poll.
func (a *AsyncDiscovery) Discover(b Binder) error {
	a.binder = b
	stop, err := a.watcher.WatchPorts(a.enqueue)
	if err != nil {
		return fmt.Errorf("error watching MIDI ports: %w", err)
	}
	a.stop = stop
	a.logger.Info("MIDI port observer started, waiting for ports")
	return nil
}

func (a *AsyncDiscovery) enqueue(ev contracts.PortEvent) {
	if !a.pending.Push(ev) {
		a.logger.Warn("port notification backlog full; notification dropped",
			a.logger.Field().String("port", ev.Port.Name))
	}
}

// Poll applies queued notifications in arrival order.
func (a *AsyncDiscovery) Poll() int {
	events := a.pending.DrainAll()
	for _, ev := range events {
		a.Handle(ev)
	}
	return len(events)
}

// Handle applies one notification immediately. Callers must be on the pump
// goroutine.
func (a *AsyncDiscovery) Handle(ev contracts.PortEvent) {
	switch {
	case ev.Kind == contracts.PortAdded && ev.Port.Direction == contracts.Input:
		a.InputAdded(ev.Port)
	case ev.Kind == contracts.PortAdded:
		a.OutputAdded(ev.Port)
	default:
		a.logger.Debug("MIDI port removed",
			a.logger.Field().String("direction", ev.Port.Direction.String()),
			a.logger.Field().String("name", ev.Port.Name))
	}
}

// InputAdded binds port as the input if none is bound and it matches.
func (a *AsyncDiscovery) InputAdded(port contracts.PortDescriptor) {
	port.Direction = contracts.Input
	a.added(port)
}

// OutputAdded binds port as the output if none is bound and it matches.
func (a *AsyncDiscovery) OutputAdded(port contracts.PortDescriptor) {
	port.Direction = contracts.Output
	a.added(port)
}

func (a *AsyncDiscovery) added(port contracts.PortDescriptor) {
	a.logger.Debug("MIDI port available",
		a.logger.Field().String("direction", port.Direction.String()),
		a.logger.Field().String("name", port.Name))

	if a.binder == nil {
		return
	}
	bound, bind := a.binder.InputBound, a.binder.BindInput
	if port.Direction == contracts.Output {
		bound, bind = a.binder.OutputBound, a.binder.BindOutput
	}
	if bound() {
		return
	}
	if !Matches(port.Name, a.patterns.For(port.Direction)) {
		return
	}
	if err := bind(port); err != nil {
		a.logger.Error("failed to open MIDI port",
			a.logger.Field().String("direction", port.Direction.String()),
			a.logger.Field().String("name", port.Name),
			a.logger.Field().Error("error", err))
	}
}

// Close stops the watcher. Queued notifications are discarded.
func (a *AsyncDiscovery) Close() error {
	a.stopOnce.Do(func() {
		if a.stop != nil {
			a.stop()
		}
		a.pending.DrainAll()
	})
	return nil
}
