//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// ErrUnavailable is returned when WinMM is used outside Windows.
var ErrUnavailable = errors.New("WinMM is not available on this platform")

type dummyBackend struct {
	logger contracts.Logger
}

// NewBackend initializes a dummy MIDI backend for non-Windows systems.
func NewBackend(options *contracts.TransportOptions) (contracts.Backend, error) {
	options.Logger.Info("Using dummy WinMM backend for non-Windows system")
	return &dummyBackend{logger: options.Logger}, nil
}

func (m *dummyBackend) String() string                       { return "winmm-dummy" }
func (m *dummyBackend) Capabilities() contracts.Capabilities { return contracts.Capabilities{} }

func (m *dummyBackend) Open(string) error {
	m.logger.Warn("Open called on dummy WinMM backend")
	return ErrUnavailable
}

func (m *dummyBackend) InputPorts() ([]contracts.PortDescriptor, error)  { return nil, ErrUnavailable }
func (m *dummyBackend) OutputPorts() ([]contracts.PortDescriptor, error) { return nil, ErrUnavailable }

func (m *dummyBackend) OpenInput(contracts.PortDescriptor, func([]byte)) (contracts.InputConn, error) {
	return nil, ErrUnavailable
}

func (m *dummyBackend) OpenOutput(contracts.PortDescriptor) (contracts.OutputConn, error) {
	return nil, ErrUnavailable
}

func (m *dummyBackend) Close() error { return nil }
