package wire

// DefaultMaxSysEx caps a single SysEx frame assembled by a Framer.
const DefaultMaxSysEx = 4096

// Framer splits a raw MIDI byte stream, such as a serial DIN link, into the
// complete frames Decode expects. Realtime bytes are emitted on their own as
// soon as they arrive, even in the middle of another message, and running
// status is expanded so every emitted channel frame carries its status byte.
//
// A Framer is not safe for concurrent use; it belongs to the reader goroutine.
type Framer struct {
	emit     func([]byte)
	maxSysEx int

	running  byte
	buf      []byte
	need     int
	inSysEx  bool
	overflow bool
}

// NewFramer returns a Framer that passes each frame to emit. Emitted slices
// are freshly allocated and owned by the callee.
func NewFramer(maxSysEx int, emit func([]byte)) *Framer {
	if maxSysEx <= 0 {
		maxSysEx = DefaultMaxSysEx
	}
	return &Framer{emit: emit, maxSysEx: maxSysEx}
}

// Write feeds stream bytes to the framer. It never fails, so a Framer can be
// the destination of io.Copy.
func (f *Framer) Write(p []byte) (int, error) {
	for _, c := range p {
		f.feed(c)
	}
	return len(p), nil
}

// Reset drops any partial message and the running status.
func (f *Framer) Reset() {
	f.running = 0
	f.buf = f.buf[:0]
	f.need = 0
	f.inSysEx = false
	f.overflow = false
}

func (f *Framer) feed(c byte) {
	switch {
	case c >= StatusClock:
		f.emit([]byte{c})
	case c >= 0x80:
		f.status(c)
	default:
		f.data(c)
	}
}

func (f *Framer) status(c byte) {
	if f.inSysEx {
		if c == StatusSysExEnd {
			f.buf = append(f.buf, c)
			f.endSysEx()
			return
		}
		// Any other status byte terminates an unfinished SysEx.
		f.endSysEx()
	}

	switch {
	case c == StatusSysEx:
		f.running = 0
		f.inSysEx = true
		f.overflow = false
		f.buf = append(f.buf[:0], c)
		f.need = 0
	case c == StatusSysExEnd:
		f.buf = f.buf[:0]
		f.need = 0
	case c > StatusSysEx:
		// System common cancels running status.
		f.running = 0
		f.start(c)
	default:
		f.running = c
		f.start(c)
	}
}

func (f *Framer) start(c byte) {
	f.buf = append(f.buf[:0], c)
	f.need = dataLen(c)
	if f.need == 0 {
		f.flush()
	}
}

func (f *Framer) data(c byte) {
	if f.inSysEx {
		if len(f.buf) >= f.maxSysEx {
			f.overflow = true
			return
		}
		f.buf = append(f.buf, c)
		return
	}
	if f.need == 0 {
		if f.running == 0 {
			return
		}
		f.buf = append(f.buf[:0], f.running)
		f.need = dataLen(f.running)
	}
	f.buf = append(f.buf, c)
	f.need--
	if f.need == 0 {
		f.flush()
	}
}

func (f *Framer) endSysEx() {
	if !f.overflow {
		f.flush()
	}
	f.buf = f.buf[:0]
	f.inSysEx = false
	f.overflow = false
}

func (f *Framer) flush() {
	out := make([]byte, len(f.buf))
	copy(out, f.buf)
	f.buf = f.buf[:0]
	f.need = 0
	f.emit(out)
}

// dataLen is the number of data bytes following status.
func dataLen(status byte) int {
	switch status & 0xF0 {
	case StatusProgramChange, StatusChannelPressure:
		return 1
	case 0xF0:
		switch status {
		case 0xF1, 0xF3:
			return 1
		case 0xF2:
			return 2
		default:
			return 0
		}
	default:
		return 2
	}
}

// MessageLen is the total length of a non-SysEx message starting with status,
// for backends that receive messages packed into a machine word.
func MessageLen(status byte) int {
	if status >= StatusClock {
		return 1
	}
	return 1 + dataLen(status)
}
