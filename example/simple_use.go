package main

import (
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/miditransport/internal/logger"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"github.com/leandrodaf/miditransport/sdk/midi"
)

func main() {
	in := flag.String("in", "", "substring of the MIDI input port name")
	out := flag.String("out", "", "substring of the MIDI output port name")
	virtual := flag.Bool("virtual", false, "publish virtual ports instead of matching existing ones")
	serialBaud := flag.Int("serial", 0, "use serial DIN MIDI at this baud rate instead of the OS backend")
	flag.Parse()

	log := logger.NewZapLogger()

	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithAppName("GO MIDI Example"),
		contracts.WithInputPortPattern(*in),
		contracts.WithOutputPortPattern(*out),
	}
	if *virtual {
		opts = append(opts, contracts.WithPortMode(contracts.CreateVirtual))
	}
	if *serialBaud > 0 {
		opts = append(opts, contracts.WithBackend(midi.NewSerialBackend(*serialBaud, log)))
	}

	transport, err := midi.NewTransport(opts...)
	if err != nil {
		log.Error("Failed to create MIDI transport", log.Field().Error("error", err))
		return
	}
	defer transport.Close()

	if err := transport.Init(); err != nil {
		log.Error("Failed to initialize MIDI transport", log.Field().Error("error", err))
		return
	}

	transport.SetOnNoteOn(func(channel, note, velocity uint8) {
		log.Info("Note on",
			log.Field().Uint8("channel", channel+1),
			log.Field().Uint8("note", note),
			log.Field().Uint8("velocity", velocity))
		// Echo an octave up.
		transport.SendNoteOn(channel, note+12, velocity)
	})
	transport.SetOnNoteOff(func(channel, note, velocity uint8) {
		log.Info("Note off", log.Field().Uint8("channel", channel+1), log.Field().Uint8("note", note))
		transport.SendNoteOff(channel, note+12, velocity)
	})
	transport.SetOnControlChange(func(channel, controller, value uint8) {
		log.Info("Control change",
			log.Field().Uint8("channel", channel+1),
			log.Field().Uint8("controller", controller),
			log.Field().Uint8("value", value))
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	log.Info("Pumping MIDI events... Press Ctrl+C to exit.")
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-interrupt:
			transport.AllNotesOff()
			if dropped := transport.Dropped(); dropped > 0 {
				log.Warn("Inbound MIDI dropped", log.Field().Uint64("frames", dropped))
			}
			return
		case <-ticker.C:
			transport.Pump()
		}
	}
}
