// Package feedback is the one-way call surface into the decorative bucket
// overlay. Calls are fire-and-forget and never report failure.
package feedback

import "bucketsort/internal/zone"

// Sink receives zone highlight requests.
type Sink interface {
	// SetEmphasis turns the hover glow of a zone on or off.
	SetEmphasis(name zone.Name, emphasized bool)
	// Flash plays the one-shot success effect on a zone.
	Flash(name zone.Name)
}

// Nop discards every call. It stands in when no overlay is attached.
type Nop struct{}

func (Nop) SetEmphasis(zone.Name, bool) {}
func (Nop) Flash(zone.Name)             {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// Multi fans calls out to several sinks.
type Multi []Sink

func (m Multi) SetEmphasis(name zone.Name, emphasized bool) {
	for _, s := range m {
		if s != nil {
			s.SetEmphasis(name, emphasized)
		}
	}
}

func (m Multi) Flash(name zone.Name) {
	for _, s := range m {
		if s != nil {
			s.Flash(name)
		}
	}
}

// Call is one recorded sink invocation.
type Call struct {
	Flash      bool
	Zone       zone.Name
	Emphasized bool
}

// Recorder remembers every call and the latest emphasis per zone. It backs
// tests and the room's emphasis de-duplication.
type Recorder struct {
	Calls    []Call
	emphasis map[zone.Name]bool
}

func (r *Recorder) SetEmphasis(name zone.Name, emphasized bool) {
	if r.emphasis == nil {
		r.emphasis = make(map[zone.Name]bool)
	}
	r.emphasis[name] = emphasized
	r.Calls = append(r.Calls, Call{Zone: name, Emphasized: emphasized})
}

func (r *Recorder) Flash(name zone.Name) {
	r.Calls = append(r.Calls, Call{Flash: true, Zone: name})
}

// Emphasized reports the last emphasis set for name.
func (r *Recorder) Emphasized(name zone.Name) bool {
	return r.emphasis[name]
}

// Flashes counts Flash calls for name.
func (r *Recorder) Flashes(name zone.Name) int {
	n := 0
	for _, c := range r.Calls {
		if c.Flash && c.Zone == name {
			n++
		}
	}
	return n
}
