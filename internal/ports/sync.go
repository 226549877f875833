package ports

import (
	"fmt"

	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// SyncDiscovery enumerates ports once and binds the first match per
// direction. A direction without a match stays unbound for good.
type SyncDiscovery struct {
	enum     Enumerator
	patterns Patterns
	logger   contracts.Logger
}

// NewSyncDiscovery returns a selector over enum.
func NewSyncDiscovery(enum Enumerator, patterns Patterns, logger contracts.Logger) *SyncDiscovery {
	return &SyncDiscovery{enum: enum, patterns: patterns, logger: logger}
}

// Mode implements Selector.
func (s *SyncDiscovery) Mode() contracts.DiscoveryMode { return contracts.DiscoverySync }

// Discover enumerates both directions and binds. Enumeration and open errors
// are returned; a missing match is only logged.
func (s *SyncDiscovery) Discover(b Binder) error {
	ins, err := s.enum.InputPorts()
	if err != nil {
		return fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	outs, err := s.enum.OutputPorts()
	if err != nil {
		return fmt.Errorf("error listing MIDI outputs: %w", err)
	}

	s.logger.Info("MIDI ports found",
		s.logger.Field().Int("inputs", len(ins)),
		s.logger.Field().Int("outputs", len(outs)))

	if !b.InputBound() {
		if err := s.bindFirst(ins, contracts.Input, b.BindInput); err != nil {
			return err
		}
	}
	if !b.OutputBound() {
		if err := s.bindFirst(outs, contracts.Output, b.BindOutput); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncDiscovery) bindFirst(list []contracts.PortDescriptor, d contracts.Direction, bind func(contracts.PortDescriptor) error) error {
	for i, p := range list {
		s.logger.Debug("MIDI port",
			s.logger.Field().String("direction", d.String()),
			s.logger.Field().Int("index", i),
			s.logger.Field().String("name", p.Name))
	}
	pattern := s.patterns.For(d)
	i, ok := FindFirst(list, pattern)
	if !ok {
		notFound(s.logger, d, pattern)
		return nil
	}
	if err := bind(list[i]); err != nil {
		return fmt.Errorf("error opening MIDI %s %q: %w", d, list[i].Name, err)
	}
	return nil
}

// Poll implements Selector; there is never anything pending.
func (s *SyncDiscovery) Poll() int { return 0 }

// Close implements Selector.
func (s *SyncDiscovery) Close() error { return nil }
