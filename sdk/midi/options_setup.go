package midi

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/miditransport/internal/logger"
	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// ErrInvalidOption is returned when an option value can never work.
var ErrInvalidOption = errors.New("invalid transport option")

// applyDefaultOptions sets default values for TransportOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify TransportOptions.
//
// Returns:
//   - contracts.TransportOptions: A structure containing the finalized options with defaults applied.
//   - error: An error if an option holds a negative size or interval.
func applyDefaultOptions(opts ...contracts.Option) (contracts.TransportOptions, error) {
	options := &contracts.TransportOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.MaxActiveNotes < 0 {
		return contracts.TransportOptions{}, fmt.Errorf("%w: max active notes %d", ErrInvalidOption, options.MaxActiveNotes)
	}
	if options.MaxPendingMessages < 0 {
		return contracts.TransportOptions{}, fmt.Errorf("%w: max pending messages %d", ErrInvalidOption, options.MaxPendingMessages)
	}
	if options.PollInterval < 0 {
		return contracts.TransportOptions{}, fmt.Errorf("%w: poll interval %s", ErrInvalidOption, options.PollInterval)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.AppName == "" {
		options.AppName = contracts.DefaultAppName
	}
	if options.MaxActiveNotes == 0 {
		options.MaxActiveNotes = contracts.DefaultMaxActiveNotes
	}
	if options.MaxPendingMessages == 0 {
		options.MaxPendingMessages = contracts.DefaultMaxPendingMessages
	}
	if options.PollInterval == 0 {
		options.PollInterval = contracts.DefaultPollInterval
	}

	options.Logger.SetLevel(options.LogLevel) // Set the logger to the specified log level
	return *options, nil
}
