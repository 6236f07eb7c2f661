// Package trace records the values of circuit ports at every simulation step.
//
// A Recorder samples a set of ports of an lsim.Instance after each step. The
// resulting Trace holds one Signal per port pin, all of the same length:
// sample i was taken at tick Start+i.
//
package trace

import (
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
)

// Signal is the recorded history of a single pin.
//
type Signal struct {
	Name   string
	Values []lsim.Value
}

// String returns the values of s as a string of "0", "1", "U" and "E"
// characters.
//
func (s *Signal) String() string {
	var b strings.Builder
	b.Grow(len(s.Values))
	for _, v := range s.Values {
		b.WriteString(v.String())
	}
	return b.String()
}

// ParseSignal is the inverse of Signal.String.
//
func ParseSignal(name, values string) (Signal, error) {
	s := Signal{Name: name, Values: make([]lsim.Value, 0, len(values))}
	for i, r := range values {
		v, err := lsim.ParseValue(string(r))
		if err != nil {
			return Signal{}, errors.Wrapf(err, "signal %q at %d", name, i)
		}
		s.Values = append(s.Values, v)
	}
	return s, nil
}

// Edges returns the sample indices at which s changes value.
//
func (s *Signal) Edges() []int {
	var r []int
	for i := 1; i < len(s.Values); i++ {
		if s.Values[i] != s.Values[i-1] {
			r = append(r, i)
		}
	}
	return r
}

// Trace is a set of signals sampled at the same ticks.
//
type Trace struct {
	Circuit string
	Start   lsim.Timestamp
	Signals []Signal
}

// Len returns the number of samples.
//
func (t *Trace) Len() int {
	if len(t.Signals) == 0 {
		return 0
	}
	return len(t.Signals[0].Values)
}

// Signal returns the named signal, or nil.
//
func (t *Trace) Signal(name string) *Signal {
	for i := range t.Signals {
		if t.Signals[i].Name == name {
			return &t.Signals[i]
		}
	}
	return nil
}

// Ticks returns the tick of every sample.
//
func (t *Trace) Ticks() []lsim.Timestamp {
	ts := make([]lsim.Timestamp, t.Len())
	for i := range ts {
		ts[i] = t.Start + lsim.Timestamp(i)
	}
	return ts
}

// WriteText writes t as a table, one signal per line.
//
func (t *Trace) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := io.WriteString(tw, "# "+t.Circuit+"\t@"+strconv.FormatUint(uint64(t.Start), 10)+"\n"); err != nil {
		return err
	}
	for i := range t.Signals {
		s := &t.Signals[i]
		if _, err := io.WriteString(tw, s.Name+"\t"+s.String()+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Recorder samples ports of a circuit instance.
//
type Recorder struct {
	inst *lsim.Instance
	ids  []lsim.PinID
	tr   Trace
}

// NewRecorder returns a recorder for the named ports of inst. Names may use
// ranges: "A[0..3]".
//
func NewRecorder(inst *lsim.Instance, ports ...string) (*Recorder, error) {
	names, err := model.ExpandPorts(ports...)
	if err != nil {
		return nil, err
	}
	ids, err := inst.PortPinIDs(names...)
	if err != nil {
		return nil, err
	}
	r := &Recorder{
		inst: inst,
		ids:  ids,
		tr:   Trace{Circuit: inst.Name(), Signals: make([]Signal, len(names))},
	}
	for i, n := range names {
		r.tr.Signals[i].Name = n
	}
	return r, nil
}

// Sample records the current value of every port.
//
func (r *Recorder) Sample() {
	if r.tr.Len() == 0 {
		r.tr.Start = r.inst.Simulator().CurrentTime()
	}
	for i, id := range r.ids {
		r.tr.Signals[i].Values = append(r.tr.Signals[i].Values, r.inst.ReadPin(id))
	}
}

// Step runs n simulation steps, sampling after each one.
//
func (r *Recorder) Step(n int) {
	sim := r.inst.Simulator()
	for i := 0; i < n; i++ {
		sim.Step()
		r.Sample()
	}
}

// RunUntilStable steps and samples until no node changed for quiet
// consecutive steps, or maxTicks steps were run. It returns true if the
// simulation settled.
//
func (r *Recorder) RunUntilStable(quiet, maxTicks int) bool {
	sim := r.inst.Simulator()
	if quiet < 1 {
		quiet = 1
	}
	remaining := quiet
	for i := 0; i < maxTicks; i++ {
		sim.Step()
		r.Sample()
		if sim.Changes() > 0 {
			remaining = quiet
			continue
		}
		if remaining--; remaining == 0 {
			return true
		}
	}
	return false
}

// Trace returns the recorded trace. It is updated by further sampling.
//
func (r *Recorder) Trace() *Trace { return &r.tr }

// Reset drops all samples.
//
func (r *Recorder) Reset() {
	for i := range r.tr.Signals {
		r.tr.Signals[i].Values = r.tr.Signals[i].Values[:0]
	}
	r.tr.Start = 0
}
