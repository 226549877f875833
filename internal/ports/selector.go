// Package ports decides which discovered MIDI ports a transport binds.
package ports

import (
	"fmt"
	"strings"

	"github.com/leandrodaf/miditransport/sdk/contracts"
)

// Patterns holds the name patterns for each direction. An empty pattern
// matches any port.
type Patterns struct {
	Input  string
	Output string
}

// For returns the pattern used for direction d.
func (p Patterns) For(d contracts.Direction) string {
	if d == contracts.Output {
		return p.Output
	}
	return p.Input
}

// Matches reports whether a port named name satisfies pattern: the pattern is
// empty or a case-sensitive substring of name.
func Matches(name, pattern string) bool {
	return pattern == "" || strings.Contains(name, pattern)
}

// FindFirst returns the index of the first port matching pattern, in
// enumeration order.
func FindFirst(ports []contracts.PortDescriptor, pattern string) (int, bool) {
	for i, p := range ports {
		if Matches(p.Name, pattern) {
			return i, true
		}
	}
	return -1, false
}

// Binder opens ports chosen by a Selector. Implementations must keep the first
// successful binding per direction; Selectors never ask to replace one.
type Binder interface {
	BindInput(port contracts.PortDescriptor) error
	BindOutput(port contracts.PortDescriptor) error
	InputBound() bool
	OutputBound() bool
}

// Enumerator lists currently available ports.
type Enumerator interface {
	InputPorts() ([]contracts.PortDescriptor, error)
	OutputPorts() ([]contracts.PortDescriptor, error)
}

// Selector is a port discovery strategy.
type Selector interface {
	Mode() contracts.DiscoveryMode
	// Discover performs the initial selection. Sync selectors bind here;
	// async selectors start listening for port notifications.
	Discover(b Binder) error
	// Poll applies queued notifications on the calling goroutine and returns
	// how many were handled.
	Poll() int
	Close() error
}

func notFound(log contracts.Logger, d contracts.Direction, pattern string) {
	log.Warn("no MIDI port opened",
		log.Field().String("direction", d.String()),
		log.Field().String("pattern", pattern),
		log.Field().Error("error", fmt.Errorf("%w: %q", contracts.ErrPortNotFound, pattern)),
	)
}
