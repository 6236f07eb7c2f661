package hwlib

import "github.com/db47h/lsim"

// LEDSegments is the number of segments of a 7-segment LED, decimal point
// included.
//
const LEDSegments = 8

// LEDState accumulates, for each segment, the number of steps it was lit since
// the last call to LEDBrightness.
//
type LEDState struct {
	NumSamples int
	Samples    [LEDSegments]int
}

// LEDSetup allocates the LED state.
//
func LEDSetup(sim *lsim.Simulator, c *lsim.Component) {
	c.SetExtra(&LEDState{})
}

// LED samples the segment inputs on every step while the common control pin
// is True.
//
//	Inputs: a, b, c, d, e, f, g, dp
//	Controls: on
//
func LED(sim *lsim.Simulator, c *lsim.Component) {
	st, ok := c.Extra().(*LEDState)
	if !ok || c.ReadPin(c.ControlPinIndex(0)) != lsim.True {
		return
	}
	st.NumSamples++
	for i := 0; i < LEDSegments && i < c.NumInputs(); i++ {
		if c.ReadPin(c.InputPinIndex(i)) == lsim.True {
			st.Samples[i]++
		}
	}
}

// LEDBrightness returns the fraction of sampled steps each segment was lit and
// resets the accumulators. All segments are off if nothing was sampled.
//
func LEDBrightness(c *lsim.Component) [LEDSegments]float64 {
	var r [LEDSegments]float64
	st, ok := c.Extra().(*LEDState)
	if !ok {
		return r
	}
	if st.NumSamples > 0 {
		for i, n := range st.Samples {
			r[i] = float64(n) / float64(st.NumSamples)
		}
	}
	*st = LEDState{}
	return r
}
