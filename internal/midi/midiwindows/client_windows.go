//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/miditransport/internal/wire"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"go.uber.org/multierr"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_NULL     = 0x00000000 // No callback
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // SysEx buffer returned
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const midiErrStillPlaying = 65

// ErrMMSystem wraps non-zero MMRESULT codes from winmm.
var (
	ErrMMSystem      = errors.New("winmm call failed")
	ErrInvalidDevice = errors.New("invalid MIDI device")
	ErrPortClosed    = errors.New("MIDI port closed")
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

type midiHdr struct {
	lpData          *byte
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                      = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs       = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps       = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen             = winmm.NewProc("midiInOpen")
	procMidiInStart            = winmm.NewProc("midiInStart")
	procMidiInStop             = winmm.NewProc("midiInStop")
	procMidiInReset            = winmm.NewProc("midiInReset")
	procMidiInClose            = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader    = winmm.NewProc("midiInPrepareHeader")
	procMidiInUnprepareHeader  = winmm.NewProc("midiInUnprepareHeader")
	procMidiInAddBuffer        = winmm.NewProc("midiInAddBuffer")
	procMidiOutGetNumDevs      = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps      = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen            = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg        = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg         = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader   = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHeader = winmm.NewProc("midiOutUnprepareHeader")
	procMidiOutReset           = winmm.NewProc("midiOutReset")
	procMidiOutClose           = winmm.NewProc("midiOutClose")
)

// Windows limits the number of callbacks a process can create, so every input
// shares one and is looked up by its instance value.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr
	openInputs   sync.Map // uintptr -> *inputConn
	nextInstance atomic.Uintptr
)

func mmCall(proc *windows.LazyProc, args ...uintptr) error {
	r1, _, _ := proc.Call(args...)
	if r1 != 0 {
		return fmt.Errorf("%w: %s returned %d", ErrMMSystem, proc.Name, r1)
	}
	return nil
}

// Backend talks to WinMM MIDI devices.
type Backend struct {
	logger contracts.Logger
	mu     sync.Mutex
	open   bool
}

// NewBackend creates a MIDI backend for Windows. winmm.dll is loaded on Open.
func NewBackend(options *contracts.TransportOptions) (contracts.Backend, error) {
	return &Backend{logger: options.Logger}, nil
}

func (m *Backend) String() string { return "winmm" }

// Capabilities implements contracts.Backend. WinMM has no hot-plug
// notifications, so async discovery polls.
func (m *Backend) Capabilities() contracts.Capabilities { return contracts.Capabilities{} }

// Open loads winmm.dll. WinMM has no client object, so the name is unused.
func (m *Backend) Open(string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := winmm.Load(); err != nil {
		return err
	}
	callbackOnce.Do(func() { callbackPtr = windows.NewCallback(midiInCallback) })
	m.open = true
	m.logger.Info("MIDI backend created for Windows")
	return nil
}

// InputPorts lists the MIDI input devices.
func (m *Backend) InputPorts() ([]contracts.PortDescriptor, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)

	ports := make([]contracts.PortDescriptor, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		if err := mmCall(procMidiInGetDevCaps, uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps)); err != nil {
			m.logger.Warn("Failed to get information for MIDI input device",
				m.logger.Field().Int("device", int(i)), m.logger.Field().Error("error", err))
			continue
		}
		ports = append(ports, descriptor(i, windows.UTF16ToString(caps.szPname[:]), contracts.Input))
	}
	return ports, nil
}

// OutputPorts lists the MIDI output devices.
func (m *Backend) OutputPorts() ([]contracts.PortDescriptor, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)

	ports := make([]contracts.PortDescriptor, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		if err := mmCall(procMidiOutGetDevCaps, uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps)); err != nil {
			m.logger.Warn("Failed to get information for MIDI output device",
				m.logger.Field().Int("device", int(i)), m.logger.Field().Error("error", err))
			continue
		}
		ports = append(ports, descriptor(i, windows.UTF16ToString(caps.szPname[:]), contracts.Output))
	}
	return ports, nil
}

func descriptor(device uint32, name string, d contracts.Direction) contracts.PortDescriptor {
	return contracts.PortDescriptor{ID: fmt.Sprintf("%s-%d", d, device), Name: name, Direction: d}
}

// deviceIndex resolves a descriptor to its current device number.
func (m *Backend) deviceIndex(port contracts.PortDescriptor, list func() ([]contracts.PortDescriptor, error)) (uint32, error) {
	ports, err := list()
	if err != nil {
		return 0, err
	}
	for _, p := range ports {
		if p == port {
			var device uint32
			if _, err := fmt.Sscanf(p.ID, p.Direction.String()+"-%d", &device); err != nil {
				return 0, err
			}
			return device, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidDevice, port.Name)
}

// OpenInput opens and starts the input device described by port.
func (m *Backend) OpenInput(port contracts.PortDescriptor, onBytes func([]byte)) (contracts.InputConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil, ErrPortClosed
	}
	device, err := m.deviceIndex(port, m.InputPorts)
	if err != nil {
		return nil, err
	}

	c := &inputConn{
		desc:     port,
		onBytes:  onBytes,
		sysEx:    newSysExReader(onBytes),
		logger:   m.logger,
		instance: nextInstance.Add(1),
	}
	openInputs.Store(c.instance, c)

	if err := mmCall(procMidiInOpen,
		uintptr(unsafe.Pointer(&c.handle)),
		uintptr(device),
		callbackPtr,
		c.instance,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	); err != nil {
		openInputs.Delete(c.instance)
		return nil, fmt.Errorf("failed to open MIDI device %d: %w", device, err)
	}
	if err := c.addSysExBuffers(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to queue SysEx buffers: %w", err)
	}
	if err := mmCall(procMidiInStart, uintptr(c.handle)); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to start MIDI capture: %w", err)
	}

	m.logger.Info("MIDI input device connected", m.logger.Field().Int("device", int(device)))
	return c, nil
}

// OpenOutput opens the output device described by port.
func (m *Backend) OpenOutput(port contracts.PortDescriptor) (contracts.OutputConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil, ErrPortClosed
	}
	device, err := m.deviceIndex(port, m.OutputPorts)
	if err != nil {
		return nil, err
	}

	c := &outputConn{desc: port}
	if err := mmCall(procMidiOutOpen,
		uintptr(unsafe.Pointer(&c.handle)),
		uintptr(device),
		0, 0,
		uintptr(CALLBACK_NULL),
	); err != nil {
		return nil, fmt.Errorf("failed to open MIDI device %d: %w", device, err)
	}

	m.logger.Info("MIDI output device connected", m.logger.Field().Int("device", int(device)))
	return c, nil
}

// Close implements contracts.Backend. Connections are closed by their owners.
func (m *Backend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	v, ok := openInputs.Load(dwInstance)
	if !ok {
		return 0
	}
	c := v.(*inputConn)

	switch wMsg {
	case MIM_DATA, MIM_MOREDATA:
		status := byte(dwParam1 & 0xFF)
		msg := []byte{status, byte((dwParam1 >> 8) & 0xFF), byte((dwParam1 >> 16) & 0xFF)}
		c.onBytes(msg[:wire.MessageLen(status)])
	case MIM_OPEN:
		c.logger.Debug("MIDI device opened")
	case MIM_CLOSE:
		c.logger.Debug("MIDI device closed")
	case MIM_ERROR, MIM_LONGERROR:
		c.logger.Warn("MIDI input error", c.logger.Field().Uint64("msg", uint64(wMsg)))
	case MIM_LONGDATA:
		c.longData(dwParam1)
	}
	return 0
}

// sysExBuffer is a header and its data, pinned while the driver owns them.
type sysExBuffer struct {
	hdr      midiHdr
	data     []byte
	prepared bool
}

type inputConn struct {
	desc     contracts.PortDescriptor
	onBytes  func([]byte)
	sysEx    *sysExReader
	logger   contracts.Logger
	instance uintptr
	handle   HMIDIIN
	once     sync.Once

	buffers []*sysExBuffer
	pinner  runtime.Pinner
	closing atomic.Bool
}

func (c *inputConn) Descriptor() contracts.PortDescriptor { return c.desc }

func (c *inputConn) addSysExBuffers() error {
	size := unsafe.Sizeof(midiHdr{})
	for i := 0; i < sysExBuffers; i++ {
		b := &sysExBuffer{data: make([]byte, sysExBufferSize)}
		b.hdr.lpData = &b.data[0]
		b.hdr.dwBufferLength = sysExBufferSize
		c.pinner.Pin(b)
		c.pinner.Pin(&b.data[0])
		c.buffers = append(c.buffers, b)

		if err := mmCall(procMidiInPrepareHeader, uintptr(c.handle), uintptr(unsafe.Pointer(&b.hdr)), size); err != nil {
			return err
		}
		b.prepared = true
		if err := mmCall(procMidiInAddBuffer, uintptr(c.handle), uintptr(unsafe.Pointer(&b.hdr)), size); err != nil {
			return err
		}
	}
	return nil
}

// longData handles a SysEx buffer returned by the driver and queues it again.
func (c *inputConn) longData(hdrAddr uintptr) {
	for _, b := range c.buffers {
		if uintptr(unsafe.Pointer(&b.hdr)) != hdrAddr {
			continue
		}
		c.sysEx.received(b.data, b.hdr.dwBytesRecorded)
		if c.closing.Load() {
			return
		}
		if err := mmCall(procMidiInAddBuffer, uintptr(c.handle), hdrAddr, unsafe.Sizeof(b.hdr)); err != nil {
			c.logger.Warn("failed to requeue SysEx buffer", c.logger.Field().Error("error", err))
		}
		return
	}
}

// Close stops capture, reclaims the SysEx buffers and releases the device.
func (c *inputConn) Close() error {
	var err error
	c.once.Do(func() {
		c.closing.Store(true)
		err = multierr.Combine(
			mmCall(procMidiInStop, uintptr(c.handle)),
			mmCall(procMidiInReset, uintptr(c.handle)),
		)
		size := unsafe.Sizeof(midiHdr{})
		for _, b := range c.buffers {
			if b.prepared {
				err = multierr.Append(err,
					mmCall(procMidiInUnprepareHeader, uintptr(c.handle), uintptr(unsafe.Pointer(&b.hdr)), size))
			}
		}
		err = multierr.Append(err, mmCall(procMidiInClose, uintptr(c.handle)))
		openInputs.Delete(c.instance)
		c.pinner.Unpin()
	})
	return err
}

type outputConn struct {
	desc   contracts.PortDescriptor
	mu     sync.Mutex
	handle HMIDIOUT
	closed bool
}

func (c *outputConn) Descriptor() contracts.PortDescriptor { return c.desc }

func (c *outputConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Write sends short messages packed into a word and SysEx through a prepared
// header, waiting until the driver is done with the buffer.
func (c *outputConn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrPortClosed
	}
	if len(data) == 0 {
		return nil
	}
	if data[0] != wire.StatusSysEx && len(data) <= 3 {
		var packed uintptr
		for i, b := range data {
			packed |= uintptr(b) << (8 * i)
		}
		return mmCall(procMidiOutShortMsg, uintptr(c.handle), packed)
	}
	return c.writeLong(data)
}

func (c *outputConn) writeLong(data []byte) error {
	buf := append([]byte(nil), data...)
	hdr := &midiHdr{lpData: &buf[0], dwBufferLength: uint32(len(buf))}
	size := unsafe.Sizeof(*hdr)

	if err := mmCall(procMidiOutPrepareHeader, uintptr(c.handle), uintptr(unsafe.Pointer(hdr)), size); err != nil {
		return err
	}
	sendErr := mmCall(procMidiOutLongMsg, uintptr(c.handle), uintptr(unsafe.Pointer(hdr)), size)

	var unprepareErr error
	for i := 0; i < 1000; i++ {
		r1, _, _ := procMidiOutUnprepareHeader.Call(uintptr(c.handle), uintptr(unsafe.Pointer(hdr)), size)
		if r1 != midiErrStillPlaying {
			if r1 != 0 {
				unprepareErr = fmt.Errorf("%w: %s returned %d", ErrMMSystem, procMidiOutUnprepareHeader.Name, r1)
			}
			break
		}
		time.Sleep(time.Millisecond)
	}
	runtime.KeepAlive(buf)
	runtime.KeepAlive(hdr)
	return multierr.Append(sendErr, unprepareErr)
}

func (c *outputConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return multierr.Combine(
		mmCall(procMidiOutReset, uintptr(c.handle)),
		mmCall(procMidiOutClose, uintptr(c.handle)),
	)
}
