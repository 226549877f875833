package midigomidi

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/miditransport/internal/logger"
	"github.com/leandrodaf/miditransport/internal/transport"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/testdrv"
)

func newTestBackend() *Backend {
	return New("test", func() (drivers.Driver, error) {
		return testdrv.New("fake"), nil
	}, logger.NewNopLogger())
}

type received struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *received) add(b []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), b...))
}

func (r *received) get() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames...)
}

func TestBackendRequiresOpen(t *testing.T) {
	b := newTestBackend()
	_, err := b.InputPorts()
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = b.OpenOutput(contracts.PortDescriptor{})
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.NoError(t, b.Close())
}

func TestBackendOpenFailure(t *testing.T) {
	boom := errors.New("no sequencer")
	b := New("broken", func() (drivers.Driver, error) { return nil, boom }, logger.NewNopLogger())
	err := b.Open("client")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestBackendRoundTripOverTestDriver(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Open("client"))
	defer b.Close()

	ins, err := b.InputPorts()
	require.NoError(t, err)
	require.Len(t, ins, 1)
	outs, err := b.OutputPorts()
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, contracts.Input, ins[0].Direction)
	assert.NotEmpty(t, ins[0].Name)

	var got received
	in, err := b.OpenInput(ins[0], got.add)
	require.NoError(t, err)
	assert.Equal(t, ins[0], in.Descriptor())

	out, err := b.OpenOutput(outs[0])
	require.NoError(t, err)
	assert.True(t, out.IsConnected())
	require.NoError(t, out.Write([]byte{0x90, 60, 100}))

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []byte{0x90, 60, 100}, got.get()[0])

	require.NoError(t, in.Close())
	require.NoError(t, in.Close())
	require.NoError(t, out.Close())
	assert.False(t, out.IsConnected())
}

func TestBackendUnknownPort(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Open("client"))
	defer b.Close()

	_, err := b.OpenInput(contracts.PortDescriptor{ID: "input-9", Name: "nope", Direction: contracts.Input}, func([]byte) {})
	assert.ErrorIs(t, err, ErrUnknownPort)
}

func TestBackendWithoutVirtualSupport(t *testing.T) {
	b := newTestBackend()
	assert.False(t, b.Capabilities().VirtualPorts)
	require.NoError(t, b.Open("client"))
	defer b.Close()

	assert.False(t, b.Capabilities().VirtualPorts)
	_, err := b.CreateVirtualOutput("Out")
	assert.ErrorIs(t, err, contracts.ErrVirtualPortsUnsupported)
}

func TestTransportOverTestDriver(t *testing.T) {
	tr := transport.New(newTestBackend(), transport.Config{}, logger.NewNopLogger())
	require.NoError(t, tr.Init())
	defer tr.Close()

	var notes []uint8
	tr.SetOnNoteOn(func(_, note, _ uint8) { notes = append(notes, note) })
	tr.SetOnNoteOff(func(_, note, _ uint8) { notes = append(notes, note) })

	tr.SendNoteOn(0, 64, 90)
	tr.SendNoteOff(0, 64, 0)

	require.Eventually(t, func() bool {
		tr.Pump()
		return len(notes) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint8{64, 64}, notes)
}

// virtualDrv publishes in-memory ports the way rtmididrv publishes ALSA ones.
type virtualDrv struct {
	drivers.Driver
	created []string
}

func (v *virtualDrv) OpenVirtualIn(name string) (drivers.In, error) {
	v.created = append(v.created, "in:"+name)
	ins, err := v.Driver.Ins()
	if err != nil {
		return nil, err
	}
	return ins[0], nil
}

func (v *virtualDrv) OpenVirtualOut(name string) (drivers.Out, error) {
	v.created = append(v.created, "out:"+name)
	outs, err := v.Driver.Outs()
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}

func TestBackendVirtualPorts(t *testing.T) {
	drv := &virtualDrv{Driver: testdrv.New("virtual")}
	b := New("virtual", func() (drivers.Driver, error) { return drv, nil }, logger.NewNopLogger())
	require.NoError(t, b.Open("client"))
	defer b.Close()
	assert.True(t, b.Capabilities().VirtualPorts)

	var got received
	in, err := b.CreateVirtualInput("Looper", got.add)
	require.NoError(t, err)
	assert.Equal(t, contracts.PortDescriptor{ID: "virtual-input", Name: "Looper", Direction: contracts.Input, Virtual: true}, in.Descriptor())

	out, err := b.CreateVirtualOutput("Looper")
	require.NoError(t, err)
	assert.True(t, out.Descriptor().Virtual)
	assert.Equal(t, []string{"in:Looper", "out:Looper"}, drv.created)

	require.NoError(t, out.Write([]byte{0x90, 1, 1}))
	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
}
