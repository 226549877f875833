// Package notes tracks which notes the transport believes are sounding.
package notes

// Slot is one entry of the registry.
type Slot struct {
	Channel uint8
	Note    uint8
	Active  bool
}

// Registry is a fixed-capacity set of sounding (channel, note) pairs used to
// silence everything on panic or shutdown.
//
// When every slot is active, MarkActive overwrites slot 0 regardless of age,
// so the note it held can no longer be released by AllNotesOff. This mirrors
// long-standing behavior and is covered by tests; it is not an LRU.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	slots []Slot
}

// New returns a registry with capacity slots, all inactive. A capacity of
// zero or less tracks nothing.
func New(capacity int) *Registry {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry{slots: make([]Slot, capacity)}
}

// MarkActive records a sounding note in the first free slot, evicting slot 0
// when the registry is full.
func (r *Registry) MarkActive(channel, note uint8) {
	for i := range r.slots {
		if !r.slots[i].Active {
			r.slots[i] = Slot{Channel: channel, Note: note, Active: true}
			return
		}
	}
	if len(r.slots) > 0 {
		r.slots[0] = Slot{Channel: channel, Note: note, Active: true}
	}
}

// MarkInactive clears the first active slot holding exactly channel and note.
func (r *Registry) MarkInactive(channel, note uint8) {
	for i := range r.slots {
		s := &r.slots[i]
		if s.Active && s.Channel == channel && s.Note == note {
			s.Active = false
			return
		}
	}
}

// AllNotesOff calls sink with velocity 0 for every active slot, in slot order,
// and marks each slot inactive. A second call without new notes does nothing.
func (r *Registry) AllNotesOff(sink func(channel, note, velocity uint8)) {
	for i := range r.slots {
		s := r.slots[i]
		if !s.Active {
			continue
		}
		sink(s.Channel, s.Note, 0)
		r.slots[i].Active = false
	}
}

// Active returns the active slots in slot order.
func (r *Registry) Active() []Slot {
	var out []Slot
	for _, s := range r.slots {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of active slots.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.slots {
		if s.Active {
			n++
		}
	}
	return n
}

// Cap returns the number of slots.
func (r *Registry) Cap() int {
	return len(r.slots)
}
