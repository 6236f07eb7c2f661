package model

import "github.com/db47h/lsim"

// Segment is a straight piece of wire between two points.
//
type Segment struct {
	P0, P1 Point
}

// Wire connects a set of pins. Its segments only matter for drawing: every pin
// on a wire ends up on the same node once instantiated.
//
type Wire struct {
	id       uint32
	pins     []lsim.PinID
	segments []Segment
}

// ID returns the wire id.
func (w *Wire) ID() uint32 { return w.id }

// Pins returns the pins connected by w.
func (w *Wire) Pins() []lsim.PinID { return w.pins }

// NumPins returns the number of pins on w.
func (w *Wire) NumPins() int { return len(w.pins) }

// HasPin returns true if pin is connected to w.
//
func (w *Wire) HasPin(pin lsim.PinID) bool {
	for _, p := range w.pins {
		if p == pin {
			return true
		}
	}
	return false
}

// AddPin connects pin to w. Adding a pin twice is a no-op.
//
func (w *Wire) AddPin(pin lsim.PinID) {
	if !w.HasPin(pin) {
		w.pins = append(w.pins, pin)
	}
}

// RemovePin disconnects pin from w.
//
func (w *Wire) RemovePin(pin lsim.PinID) {
	for i, p := range w.pins {
		if p == pin {
			w.pins = append(w.pins[:i], w.pins[i+1:]...)
			return
		}
	}
}

// RemoveComponentPins disconnects every pin of component compID.
//
func (w *Wire) RemoveComponentPins(compID uint32) {
	pins := w.pins[:0]
	for _, p := range w.pins {
		if p.Component() != compID {
			pins = append(pins, p)
		}
	}
	w.pins = pins
}

// AddSegment adds a segment from p0 to p1.
//
func (w *Wire) AddSegment(p0, p1 Point) {
	w.segments = append(w.segments, Segment{p0, p1})
}

// Segments returns the segments of w.
func (w *Wire) Segments() []Segment { return w.segments }

// Junctions returns the points shared by three or more segment end points.
//
func (w *Wire) Junctions() []Point {
	count := make(map[Point]int)
	var order []Point
	for _, s := range w.segments {
		for _, p := range [2]Point{s.P0, s.P1} {
			if count[p] == 0 {
				order = append(order, p)
			}
			count[p]++
		}
	}
	var r []Point
	for _, p := range order {
		if count[p] >= 3 {
			r = append(r, p)
		}
	}
	return r
}
