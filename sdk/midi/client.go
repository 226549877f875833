package midi

import (
	"github.com/leandrodaf/miditransport/internal/transport"
	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// NewTransport creates a MIDI transport with the specified options.
// It applies default options and, unless WithBackend is given, selects the
// backend for the current operating system. The transport is returned
// uninitialized; call Init before pumping or sending.
//
// opts ...contracts.Option: A variadic list of option functions to customize the transport configuration.
//
// Returns:
//   - contracts.Transport: An instance of the MIDI transport.
//   - error: An error, if any occurred during the creation of the backend.
func NewTransport(opts ...contracts.Option) (contracts.Transport, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	backend := options.Backend
	if backend == nil {
		backend, err = NewBackend(&options)
		if err != nil {
			return nil, err
		}
	}

	return transport.New(backend, transport.ConfigFromOptions(&options), options.Logger), nil
}
