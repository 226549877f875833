//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the dummy backend.
var ErrUnavailable = errors.New("CoreMIDI is not available on this platform")

// DummyBackend stands in for CoreMIDI on other systems.
type DummyBackend struct {
	logger contracts.Logger
}

func NewBackend(options *contracts.TransportOptions) (contracts.Backend, error) {
	options.Logger.Info("Using dummy CoreMIDI backend for non-macOS system")
	return &DummyBackend{logger: options.Logger}, nil
}

func (m *DummyBackend) String() string { return "coremidi-dummy" }

func (m *DummyBackend) Capabilities() contracts.Capabilities { return contracts.Capabilities{} }

func (m *DummyBackend) Open(string) error {
	m.logger.Warn("Open called on dummy CoreMIDI backend")
	return ErrUnavailable
}

func (m *DummyBackend) InputPorts() ([]contracts.PortDescriptor, error) {
	return nil, ErrUnavailable
}

func (m *DummyBackend) OutputPorts() ([]contracts.PortDescriptor, error) {
	return nil, ErrUnavailable
}

func (m *DummyBackend) OpenInput(contracts.PortDescriptor, func([]byte)) (contracts.InputConn, error) {
	return nil, ErrUnavailable
}

func (m *DummyBackend) OpenOutput(contracts.PortDescriptor) (contracts.OutputConn, error) {
	return nil, ErrUnavailable
}

func (m *DummyBackend) Close() error { return nil }
