// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/lsim"

// ConnectorIn drives the outputs of an input connector with their user values
// then goes idle until a user value changes.
//
// Nested connectors have no user values and are driven through the port of
// their parent sub-circuit component instead. A tri-state connector releases
// its node when its user value is Undefined.
//
func ConnectorIn(sim *lsim.Simulator, c *lsim.Component) {
	if c.UserValuesEnabled() {
		for i := 0; i < c.NumOutputs(); i++ {
			idx := c.OutputPinIndex(i)
			c.WritePin(idx, c.UserValue(idx))
		}
	}
	sim.DeactivateIndependent(c)
}

// Constant drives the "value" property then goes idle. A constant keeps
// driving its node until the simulator is re-initialized.
//
func Constant(sim *lsim.Simulator, c *lsim.Component) {
	c.WritePin(c.OutputPinIndex(0), c.Descriptor().PropertyValue("value", lsim.False))
	sim.DeactivateIndependent(c)
}

// PullResistorSetup sets the default and initial value of the resistor's
// node to the "pull_to" property. The node takes that value whenever no other
// component drives it.
//
func PullResistorSetup(sim *lsim.Simulator, c *lsim.Component) {
	v := c.Descriptor().PropertyValue("pull_to", lsim.False)
	pin := c.Pin(c.OutputPinIndex(0))
	sim.PinSetDefault(pin, v)
	sim.PinSetInitialValue(pin, v)
}

// ReadUint returns the values of pins as an unsigned integer, pins[0] being the
// least significant bit. The second result is false if any pin is neither
// True nor False. ReadUint panics if pins has more than 64 elements.
//
func ReadUint(inst *lsim.Instance, pins []lsim.PinID) (uint64, bool) {
	if len(pins) > 64 {
		panic("ReadUint: more than 64 pins")
	}
	var r uint64
	ok := true
	for i, p := range pins {
		switch inst.ReadPin(p) {
		case lsim.True:
			r |= 1 << uint(i)
		case lsim.False:
		default:
			ok = false
		}
	}
	return r, ok
}
