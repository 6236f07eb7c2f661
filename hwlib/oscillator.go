package hwlib

import "github.com/db47h/lsim"

// OscillatorState is the runtime state of an oscillator.
//
type OscillatorState struct {
	Low, High lsim.Timestamp // durations of each half period, in steps
	Next      lsim.Timestamp // step at which the output toggles
	Output    lsim.Value
}

func (st *OscillatorState) duration() lsim.Timestamp {
	if st.Output == lsim.True {
		return st.High
	}
	return st.Low
}

func atLeastOne(v int64) lsim.Timestamp {
	if v < 1 {
		return 1
	}
	return lsim.Timestamp(v)
}

// OscillatorSetup initializes the oscillator state from the "low_duration"
// and "high_duration" properties and the current output value.
//
func OscillatorSetup(sim *lsim.Simulator, c *lsim.Component) {
	d := c.Descriptor()
	st := &OscillatorState{
		Low:    atLeastOne(d.PropertyInt("low_duration", 5)),
		High:   atLeastOne(d.PropertyInt("high_duration", 5)),
		Output: c.ReadPin(c.OutputPinIndex(0)),
	}
	if st.Output != lsim.True {
		st.Output = lsim.False
	}
	st.Next = sim.CurrentTime() + st.duration()
	c.SetExtra(st)
}

// Oscillator toggles its output every Low or High steps.
//
//	Outputs: out
//
func Oscillator(sim *lsim.Simulator, c *lsim.Component) {
	st, ok := c.Extra().(*OscillatorState)
	if !ok {
		return
	}
	out := c.OutputPinIndex(0)
	if now := sim.CurrentTime(); now >= st.Next {
		st.Output = st.Output.Not()
		st.Next = now + st.duration()
		c.WritePin(out, st.Output)
		return
	}
	if sim.PinOutput(c.Pin(out)) != st.Output {
		c.WritePin(out, st.Output)
	}
}
