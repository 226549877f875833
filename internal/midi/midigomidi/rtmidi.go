//go:build rtmidi
// +build rtmidi

package midigomidi

import (
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// NewRtMidiBackend returns a backend over the rtmidi driver. rtmidi supports
// virtual ports on ALSA, JACK and CoreMIDI.
func NewRtMidiBackend(options *contracts.TransportOptions) (contracts.Backend, error) {
	return New("rtmidi", func() (drivers.Driver, error) {
		return rtmididrv.New()
	}, options.Logger), nil
}
