package midiserial

import (
	"sync"

	"github.com/leandrodaf/miditransport/internal/wire"
	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// link is one open serial device. Its reader goroutine starts with the first
// listener and runs until the device closes or fails.
type link struct {
	device string
	port   Port
	logger contracts.Logger
	framer *wire.Framer // reader goroutine only
	done   chan struct{}

	refs int // guarded by Backend.mu

	mu      sync.Mutex
	onBytes func([]byte)
	started bool
	closing bool
	broken  bool

	wmu sync.Mutex
}

func newLink(device string, port Port, maxSysEx int, logger contracts.Logger) *link {
	l := &link{
		device: device,
		port:   port,
		logger: logger,
		done:   make(chan struct{}),
		refs:   1,
	}
	l.framer = wire.NewFramer(maxSysEx, l.deliver)
	return l
}

// listen sets the frame callback; nil detaches it.
func (l *link) listen(onBytes func([]byte)) {
	l.mu.Lock()
	l.onBytes = onBytes
	start := !l.started && onBytes != nil
	if start {
		l.started = true
	}
	l.mu.Unlock()

	if start {
		go l.read()
	}
}

func (l *link) read() {
	defer close(l.done)
	buf := make([]byte, 256)
	for {
		n, err := l.port.Read(buf)
		if n > 0 {
			_, _ = l.framer.Write(buf[:n])
		}
		if err != nil {
			l.mu.Lock()
			closing := l.closing
			l.broken = true
			l.mu.Unlock()
			if !closing {
				l.logger.Warn("serial read failed; link down",
					l.logger.Field().String("device", l.device),
					l.logger.Field().Error("error", err))
			}
			return
		}
	}
}

func (l *link) deliver(frame []byte) {
	l.mu.Lock()
	cb := l.onBytes
	l.mu.Unlock()
	if cb != nil {
		cb(frame)
	}
}

func (l *link) alive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.broken && !l.closing
}

func (l *link) write(data []byte) error {
	if !l.alive() {
		return ErrLinkClosed
	}
	l.wmu.Lock()
	defer l.wmu.Unlock()
	_, err := l.port.Write(data)
	return err
}

// close closes the device and waits for the reader to exit.
func (l *link) close() error {
	l.mu.Lock()
	l.closing = true
	started := l.started
	l.mu.Unlock()

	err := l.port.Close()
	if started {
		<-l.done
	}
	return err
}
