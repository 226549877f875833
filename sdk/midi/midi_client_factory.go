package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/miditransport/internal/midi/mididarwin"
	"github.com/leandrodaf/miditransport/internal/midi/midigomidi"
	"github.com/leandrodaf/miditransport/internal/midi/midiloop"
	"github.com/leandrodaf/miditransport/internal/midi/midiserial"
	"github.com/leandrodaf/miditransport/internal/midi/midiwindows"
	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system has no MIDI backend.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// backendInitializers maps OS names to corresponding MIDI backend initializers.
var backendInitializers = map[string]func(*contracts.TransportOptions) (contracts.Backend, error){
	"darwin":  mididarwin.NewBackend,       // CoreMIDI.
	"windows": midiwindows.NewBackend,      // WinMM.
	"linux":   midigomidi.NewRtMidiBackend, // ALSA through rtmidi; needs the rtmidi build tag.
}

// NewBackend returns the MIDI backend for the current operating system.
// It returns ErrUnsupportedOS if the OS has none.
//
// opts *contracts.TransportOptions: Configuration options; only the logger is used.
//
// Returns:
//   - contracts.Backend: The platform backend, not yet opened.
//   - error: An error if the operating system is unsupported or if the backend cannot be built.
func NewBackend(opts *contracts.TransportOptions) (contracts.Backend, error) {
	return newBackendFor(runtime.GOOS, opts)
}

func newBackendFor(goos string, opts *contracts.TransportOptions) (contracts.Backend, error) {
	if initializer, exists := backendInitializers[goos]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}

// NewSerialBackend returns a backend speaking DIN MIDI over serial devices,
// for USB-serial adapters and microcontroller bridges. Each device is offered
// as an input and an output named after its path, so port patterns such as
// "ttyUSB" or "COM3" select it. A zero baud rate selects the MIDI standard 31250.
func NewSerialBackend(baud int, log contracts.Logger) contracts.Backend {
	return midiserial.New(midiserial.WithBaudRate(baud), midiserial.WithLogger(log))
}

// NewLoopbackBackend returns an in-process backend whose ports are created by
// the caller. Bytes written to an output reach inputs of the same name.
func NewLoopbackBackend() *midiloop.Backend {
	return midiloop.New(midiloop.WithAsyncDiscovery())
}
