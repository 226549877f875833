package midiserial

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/miditransport/internal/logger"
	"github.com/leandrodaf/miditransport/internal/ports"
	"github.com/leandrodaf/miditransport/internal/transport"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakePort is a serial device whose inbound stream is fed through a pipe.
type fakePort struct {
	r    *io.PipeReader
	feed *io.PipeWriter

	mu      sync.Mutex
	written [][]byte
	closed  bool
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{r: r, feed: w}
}

func (p *fakePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, append([]byte(nil), b...))
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.r.Close()
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePort) sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.written...)
}

type fakeSystem struct {
	port  *fakePort
	opens int
	baud  int
	err   error
}

func (s *fakeSystem) options() []Option {
	return []Option{
		WithLister(func() ([]string, error) { return []string{"/dev/ttyS0", "/dev/ttyUSB0"}, nil }),
		WithOpener(func(name string, baud int) (Port, error) {
			if s.err != nil {
				return nil, s.err
			}
			s.opens++
			s.baud = baud
			return s.port, nil
		}),
	}
}

func TestSerialPortsListBothDirections(t *testing.T) {
	sys := &fakeSystem{port: newFakePort()}
	b := New(sys.options()...)

	_, err := b.InputPorts()
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, b.Open("client"))
	ins, err := b.InputPorts()
	require.NoError(t, err)
	outs, err := b.OutputPorts()
	require.NoError(t, err)
	assert.Equal(t, []contracts.PortDescriptor{
		{ID: "/dev/ttyS0", Name: "/dev/ttyS0", Direction: contracts.Input},
		{ID: "/dev/ttyUSB0", Name: "/dev/ttyUSB0", Direction: contracts.Input},
	}, ins)
	assert.Equal(t, contracts.Output, outs[1].Direction)
}

func TestSerialBaudRate(t *testing.T) {
	sys := &fakeSystem{port: newFakePort()}
	b := New(append(sys.options(), WithBaudRate(0))...)
	require.NoError(t, b.Open("client"))
	out, err := b.OpenOutput(contracts.PortDescriptor{ID: "/dev/ttyS0", Direction: contracts.Output})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaudRate, sys.baud)
	require.NoError(t, out.Close())

	b = New(append(sys.options(), WithBaudRate(115200))...)
	require.NoError(t, b.Open("client"))
	_, err = b.OpenOutput(contracts.PortDescriptor{ID: "/dev/ttyS0", Direction: contracts.Output})
	require.NoError(t, err)
	assert.Equal(t, 115200, sys.baud)
}

func TestSerialOpenError(t *testing.T) {
	busy := errors.New("device busy")
	sys := &fakeSystem{err: busy}
	b := New(sys.options()...)
	require.NoError(t, b.Open("client"))

	_, err := b.OpenInput(contracts.PortDescriptor{ID: "/dev/ttyS0"}, func([]byte) {})
	assert.ErrorIs(t, err, busy)
}

func TestSerialSharesOneHandlePerDevice(t *testing.T) {
	sys := &fakeSystem{port: newFakePort()}
	b := New(sys.options()...)
	require.NoError(t, b.Open("client"))

	in, err := b.OpenInput(contracts.PortDescriptor{ID: "/dev/ttyUSB0", Direction: contracts.Input}, func([]byte) {})
	require.NoError(t, err)
	out, err := b.OpenOutput(contracts.PortDescriptor{ID: "/dev/ttyUSB0", Direction: contracts.Output})
	require.NoError(t, err)
	assert.Equal(t, 1, sys.opens)

	require.NoError(t, in.Close())
	assert.False(t, sys.port.isClosed())
	assert.True(t, out.IsConnected())

	require.NoError(t, out.Close())
	assert.True(t, sys.port.isClosed())
	assert.False(t, out.IsConnected())
	assert.ErrorIs(t, out.Write([]byte{0xF8}), ErrLinkClosed)
}

func TestSerialThroughTransport(t *testing.T) {
	sys := &fakeSystem{port: newFakePort()}
	tr := transport.New(New(sys.options()...), transport.Config{
		Patterns: ports.Patterns{Input: "ttyUSB", Output: "ttyUSB"},
	}, logger.NewNopLogger())
	require.NoError(t, tr.Init())
	defer tr.Close()

	in, ok := tr.Input()
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyUSB0", in.Name)
	assert.Equal(t, 1, sys.opens)

	var got []string
	tr.SetOnNoteOn(func(_, note, _ uint8) { got = append(got, "on") })
	tr.SetOnClock(func(uint64) { got = append(got, "clock") })

	// Running status with a clock byte in the middle of the second note.
	go func() { _, _ = sys.port.feed.Write([]byte{0x90, 60, 100, 62, 0xF8, 100}) }()

	require.Eventually(t, func() bool {
		tr.Pump()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"on", "clock", "on"}, got)

	tr.SendCC(0, 7, 100)
	assert.Equal(t, [][]byte{{0xB0, 7, 100}}, sys.port.sent())
}

func TestSerialLinkFailureDisconnectsOutput(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sys := &fakeSystem{port: newFakePort()}
	b := New(append(sys.options(), WithLogger(logger.NewZapLoggerFrom(zap.New(core))))...)
	require.NoError(t, b.Open("client"))

	in, err := b.OpenInput(contracts.PortDescriptor{ID: "/dev/ttyS0"}, func([]byte) {})
	require.NoError(t, err)
	out, err := b.OpenOutput(contracts.PortDescriptor{ID: "/dev/ttyS0"})
	require.NoError(t, err)

	require.NoError(t, sys.port.feed.CloseWithError(errors.New("unplugged")))
	require.Eventually(t, func() bool { return !out.IsConnected() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("serial read failed; link down").Len())

	require.NoError(t, in.Close())
	require.NoError(t, out.Close())
}
