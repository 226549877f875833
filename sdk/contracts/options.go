package contracts

import "time"

// Defaults applied when an option is left unset.
const (
	DefaultAppName            = "GO MIDI Client"
	DefaultMaxActiveNotes     = 32
	DefaultMaxPendingMessages = 1024
	DefaultPollInterval       = time.Second
)

// PortMode selects whether ports are matched against existing ones or created.
type PortMode int

const (
	// MatchExisting binds the first enumerated port matching each pattern.
	MatchExisting PortMode = iota
	// CreateVirtual asks the backend to publish ports named after the
	// patterns (or the application name). Falls back to MatchExisting when
	// the backend cannot create virtual ports.
	CreateVirtual
)

// DiscoveryMode selects how ports become known to the transport.
type DiscoveryMode int

const (
	// DiscoveryAuto follows the backend's Capabilities.
	DiscoveryAuto DiscoveryMode = iota
	// DiscoverySync enumerates once during Init.
	DiscoverySync
	// DiscoveryAsync binds ports as they are announced.
	DiscoveryAsync
)

func (m DiscoveryMode) String() string {
	switch m {
	case DiscoverySync:
		return "sync"
	case DiscoveryAsync:
		return "async"
	default:
		return "auto"
	}
}

// TransportOptions defines the configuration of a Transport. It is consumed at
// construction and never reloaded.
type TransportOptions struct {
	Logger             Logger        // Logger for lifecycle and traffic logs.
	LogLevel           LogLevel      // Level of logging to use.
	Backend            Backend       // Platform collaborator; chosen by OS when nil.
	AppName            string        // Client and virtual port name.
	MaxActiveNotes     int           // Capacity of the active note registry.
	MaxPendingMessages int           // Capacity of the inbound queue.
	InputPortPattern   string        // Substring matched against input names; empty matches any.
	OutputPortPattern  string        // Substring matched against output names; empty matches any.
	PortMode           PortMode      // Match existing ports or create virtual ones.
	DiscoveryMode      DiscoveryMode // Sync, async or backend-driven discovery.
	PollInterval       time.Duration // Rescan period when async discovery polls.
}

// Option is a function that modifies TransportOptions.
type Option func(*TransportOptions)

// WithLogger sets the logger for the transport.
func WithLogger(l Logger) Option {
	return func(opts *TransportOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the transport.
func WithLogLevel(level LogLevel) Option {
	return func(opts *TransportOptions) {
		opts.LogLevel = level
	}
}

// WithBackend overrides the OS-selected backend.
func WithBackend(b Backend) Option {
	return func(opts *TransportOptions) {
		opts.Backend = b
	}
}

// WithAppName sets the client name announced to the platform.
func WithAppName(name string) Option {
	return func(opts *TransportOptions) {
		opts.AppName = name
	}
}

// WithMaxActiveNotes sets how many sounding notes AllNotesOff can track.
func WithMaxActiveNotes(n int) Option {
	return func(opts *TransportOptions) {
		opts.MaxActiveNotes = n
	}
}

// WithMaxPendingMessages bounds the inbound queue between two pumps.
func WithMaxPendingMessages(n int) Option {
	return func(opts *TransportOptions) {
		opts.MaxPendingMessages = n
	}
}

// WithInputPortPattern sets the input port name pattern.
func WithInputPortPattern(pattern string) Option {
	return func(opts *TransportOptions) {
		opts.InputPortPattern = pattern
	}
}

// WithOutputPortPattern sets the output port name pattern.
func WithOutputPortPattern(pattern string) Option {
	return func(opts *TransportOptions) {
		opts.OutputPortPattern = pattern
	}
}

// WithPortMode selects between matching existing ports and creating virtual ones.
func WithPortMode(mode PortMode) Option {
	return func(opts *TransportOptions) {
		opts.PortMode = mode
	}
}

// WithDiscoveryMode forces synchronous or asynchronous discovery.
func WithDiscoveryMode(mode DiscoveryMode) Option {
	return func(opts *TransportOptions) {
		opts.DiscoveryMode = mode
	}
}

// WithPollInterval sets the rescan period used by polling async discovery.
func WithPollInterval(d time.Duration) Option {
	return func(opts *TransportOptions) {
		opts.PollInterval = d
	}
}
