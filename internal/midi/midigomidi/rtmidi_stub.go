//go:build !rtmidi
// +build !rtmidi

package midigomidi

import (
	"errors"

	"github.com/leandrodaf/miditransport/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrRtMidiUnavailable is returned when opening the rtmidi backend of a
// binary built without the rtmidi tag.
var ErrRtMidiUnavailable = errors.New("built without rtmidi support; rebuild with -tags rtmidi")

// NewRtMidiBackend returns a backend whose Open always fails, so Init reports
// a hardware init failure instead of the program failing to start.
func NewRtMidiBackend(options *contracts.TransportOptions) (contracts.Backend, error) {
	return New("rtmidi", func() (drivers.Driver, error) {
		return nil, ErrRtMidiUnavailable
	}, options.Logger), nil
}
