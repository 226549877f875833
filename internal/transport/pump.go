package transport

import (
	"github.com/leandrodaf/miditransport/internal/queue"
	"github.com/leandrodaf/miditransport/internal/wire"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

// Pump applies pending port notifications, then dispatches every frame
// received since the previous call in arrival order. Frames that do not
// decode are dropped. It returns the number of frames drained.
func (t *Transport) Pump() int {
	if t.selector != nil {
		t.selector.Poll()
	}
	frames := t.inbound.DrainAll()
	debug := t.logger.Enabled(contracts.DebugLevel)
	if debug {
		t.reportOverflow()
	}
	for _, f := range frames {
		t.dispatch(f, debug)
	}
	return len(frames)
}

// reportOverflow logs frames the queue refused since the last report.
func (t *Transport) reportOverflow() {
	dropped := t.inbound.Dropped()
	if dropped == t.reported {
		return
	}
	t.logger.Debug("inbound MIDI frames dropped",
		t.logger.Field().Uint64("frames", dropped-t.reported),
		t.logger.Field().Error("error", contracts.ErrQueueOverflow))
	t.reported = dropped
}

func (t *Transport) dispatch(f queue.RawFrame, debug bool) {
	ev, ok := wire.Decode(f.Bytes)
	if !ok {
		if debug {
			t.logger.Debug("MIDI frame dropped",
				t.logger.Field().String("bytes", midi.Message(f.Bytes).String()),
				t.logger.Field().Error("error", wire.Classify(f.Bytes)))
		}
		return
	}
	if debug {
		t.logger.Debug("RX", t.logger.Field().String("msg", midi.Message(f.Bytes).String()))
	}

	h := &t.handlers
	switch e := ev.(type) {
	case contracts.NoteOn:
		t.notes.MarkActive(e.Channel, e.Note)
		if h.noteOn != nil {
			h.noteOn(e.Channel, e.Note, e.Velocity)
		}
	case contracts.NoteOff:
		t.notes.MarkInactive(e.Channel, e.Note)
		if h.noteOff != nil {
			h.noteOff(e.Channel, e.Note, e.Velocity)
		}
	case contracts.ControlChange:
		if h.controlChange != nil {
			h.controlChange(e.Channel, e.Controller, e.Value)
		}
	case contracts.SysEx:
		if h.sysEx != nil {
			h.sysEx(e.Data)
		}
	case contracts.Clock:
		if h.clock != nil {
			h.clock(f.Timestamp)
		}
	case contracts.Start:
		if h.start != nil {
			h.start()
		}
	case contracts.Stop:
		if h.stop != nil {
			h.stop()
		}
	case contracts.Continue:
		if h.cont != nil {
			h.cont()
		}
	}
}

// SetOnNoteOn implements contracts.Transport.
func (t *Transport) SetOnNoteOn(h contracts.NoteHandler) { t.handlers.noteOn = h }

// SetOnNoteOff implements contracts.Transport.
func (t *Transport) SetOnNoteOff(h contracts.NoteHandler) { t.handlers.noteOff = h }

// SetOnControlChange implements contracts.Transport.
func (t *Transport) SetOnControlChange(h contracts.ControlChangeHandler) {
	t.handlers.controlChange = h
}

// SetOnSysEx implements contracts.Transport.
func (t *Transport) SetOnSysEx(h contracts.SysExHandler) { t.handlers.sysEx = h }

// SetOnClock implements contracts.Transport.
func (t *Transport) SetOnClock(h contracts.ClockHandler) { t.handlers.clock = h }

// SetOnStart implements contracts.Transport.
func (t *Transport) SetOnStart(h contracts.RealtimeHandler) { t.handlers.start = h }

// SetOnStop implements contracts.Transport.
func (t *Transport) SetOnStop(h contracts.RealtimeHandler) { t.handlers.stop = h }

// SetOnContinue implements contracts.Transport.
func (t *Transport) SetOnContinue(h contracts.RealtimeHandler) { t.handlers.cont = h }
