package contracts

import "errors"

// Error taxonomy of the transport. Only ErrHardwareInitFailed is ever returned
// to callers; the others classify conditions that are logged or counted.
var (
	ErrHardwareInitFailed      = errors.New("MIDI hardware initialization failed")
	ErrPortNotFound            = errors.New("no MIDI port matches pattern")
	ErrFrameTruncated          = errors.New("truncated MIDI frame")
	ErrFrameUnrecognized       = errors.New("unrecognized MIDI frame")
	ErrQueueOverflow           = errors.New("inbound MIDI queue full")
	ErrVirtualPortsUnsupported = errors.New("virtual MIDI ports not supported by backend")
)
