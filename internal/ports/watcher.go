package ports

import (
	"context"
	"sync"
	"time"

	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// DefaultScanTimeout abandons an enumeration that does not return in time.
// Some platform MIDI services hang instead of failing.
const DefaultScanTimeout = 3 * time.Second

// PollingWatcher implements contracts.PortWatcher for backends that can only
// enumerate, by rescanning periodically and reporting differences.
type PollingWatcher struct {
	enum        Enumerator
	interval    time.Duration
	scanTimeout time.Duration
	logger      contracts.Logger

	known []contracts.PortDescriptor
}

// NewPollingWatcher returns a watcher rescanning enum every interval.
func NewPollingWatcher(enum Enumerator, interval time.Duration, logger contracts.Logger) *PollingWatcher {
	if interval <= 0 {
		interval = contracts.DefaultPollInterval
	}
	return &PollingWatcher{
		enum:        enum,
		interval:    interval,
		scanTimeout: DefaultScanTimeout,
		logger:      logger,
	}
}

// WatchPorts starts scanning on a background goroutine. The first scan runs
// immediately and reports every existing port as added, in enumeration order.
// stop blocks until the goroutine exits.
func (w *PollingWatcher) WatchPorts(handler func(contracts.PortEvent)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.scan(ctx, handler)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.scan(ctx, handler)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

type scanResult struct {
	ports []contracts.PortDescriptor
	err   error
}

func (w *PollingWatcher) scan(ctx context.Context, handler func(contracts.PortEvent)) {
	ch := make(chan scanResult, 1)
	go func() {
		ins, err := w.enum.InputPorts()
		if err != nil {
			ch <- scanResult{err: err}
			return
		}
		outs, err := w.enum.OutputPorts()
		ch <- scanResult{ports: append(ins, outs...), err: err}
	}()

	var res scanResult
	select {
	case res = <-ch:
	case <-time.After(w.scanTimeout):
		w.logger.Warn("MIDI port scan timed out; skipping")
		return
	case <-ctx.Done():
		return
	}
	if res.err != nil {
		w.logger.Warn("MIDI port scan failed", w.logger.Field().Error("error", res.err))
		return
	}
	w.diff(res.ports, handler)
}

// diff reports ports added since the previous scan in enumeration order,
// then ports that disappeared.
func (w *PollingWatcher) diff(current []contracts.PortDescriptor, handler func(contracts.PortEvent)) {
	seen := make(map[contracts.PortDescriptor]bool, len(current))
	for _, p := range current {
		seen[p] = true
	}
	was := make(map[contracts.PortDescriptor]bool, len(w.known))
	for _, p := range w.known {
		was[p] = true
	}

	for _, p := range current {
		if !was[p] {
			handler(contracts.PortEvent{Kind: contracts.PortAdded, Port: p})
		}
	}
	for _, p := range w.known {
		if !seen[p] {
			handler(contracts.PortEvent{Kind: contracts.PortRemoved, Port: p})
		}
	}
	w.known = current
}
