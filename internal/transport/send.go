package transport

import (
	"github.com/leandrodaf/miditransport/internal/wire"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

// Send encodes cmd and writes it to the output. Without a connected output
// it does nothing at all, including note tracking. Write failures are logged
// and otherwise ignored.
func (t *Transport) Send(cmd contracts.Command) {
	if t.output == nil || !t.output.IsConnected() {
		return
	}
	data := wire.Encode(cmd)
	if data == nil {
		return
	}

	switch c := cmd.(type) {
	case contracts.NoteOn:
		t.notes.MarkActive(c.Channel&0x0F, c.Note&0x7F)
	case contracts.NoteOff:
		t.notes.MarkInactive(c.Channel&0x0F, c.Note&0x7F)
	}

	err := t.output.Write(data)
	if !t.logger.Enabled(contracts.DebugLevel) {
		return
	}
	if err != nil {
		t.logger.Debug("MIDI write failed",
			t.logger.Field().String("msg", midi.Message(data).String()),
			t.logger.Field().Error("error", err))
		return
	}
	t.logger.Debug("TX", t.logger.Field().String("msg", midi.Message(data).String()))
}

func (t *Transport) SendCC(channel, controller, value uint8) {
	t.Send(contracts.ControlChange{Channel: channel, Controller: controller, Value: value})
}

func (t *Transport) SendNoteOn(channel, note, velocity uint8) {
	t.Send(contracts.NoteOn{Channel: channel, Note: note, Velocity: velocity})
}

func (t *Transport) SendNoteOff(channel, note, velocity uint8) {
	t.Send(contracts.NoteOff{Channel: channel, Note: note, Velocity: velocity})
}

// SendSysEx writes data verbatim; framing bytes are the caller's job.
func (t *Transport) SendSysEx(data []byte) {
	t.Send(contracts.SysEx{Data: data})
}

func (t *Transport) SendProgramChange(channel, program uint8) {
	t.Send(contracts.ProgramChange{Channel: channel, Program: program})
}

func (t *Transport) SendPitchBend(channel uint8, value int16) {
	t.Send(contracts.PitchBend{Channel: channel, Value: value})
}

func (t *Transport) SendChannelPressure(channel, pressure uint8) {
	t.Send(contracts.ChannelPressure{Channel: channel, Pressure: pressure})
}

func (t *Transport) SendClock()    { t.Send(contracts.Clock{}) }
func (t *Transport) SendStart()    { t.Send(contracts.Start{}) }
func (t *Transport) SendStop()     { t.Send(contracts.Stop{}) }
func (t *Transport) SendContinue() { t.Send(contracts.Continue{}) }

// AllNotesOff sends a velocity 0 note off for every tracked note and clears
// the registry. Without a connected output the note offs are skipped like any
// other send, but the registry is still cleared.
func (t *Transport) AllNotesOff() {
	t.notes.AllNotesOff(t.SendNoteOff)
}
