// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import "strconv"

// Descriptor is the read-only description of a component, as provided by the
// circuit model.
//
type Descriptor interface {
	// ID returns the component id, unique within its circuit.
	ID() uint32
	Type() ComponentType
	NumInputs() int
	NumOutputs() int
	NumControls() int
	// Property accessors return def if the property is not set.
	PropertyValue(key string, def Value) Value
	PropertyInt(key string, def int64) int64
	PropertyBool(key string, def bool) bool
	PropertyString(key string, def string) string
}

// Component is the runtime counterpart of a model component: its pins in the
// simulator, optional user values, nested circuit instance and scratch data.
//
// Pins are ordered: inputs, then outputs, then controls. Pin indices passed to
// the methods of Component are indices in that list; use InputPinIndex,
// OutputPinIndex and ControlPinIndex to compute them.
//
type Component struct {
	sim          *Simulator
	desc         Descriptor
	id           uint32
	pins         []Pin
	outputStart  int
	controlStart int
	userValues   []Value
	nested       *Instance
	extra        interface{}
	badRead      bool

	queued Timestamp // last step at which the component was queued
	active bool      // in the active independent set
}

func newComponent(s *Simulator, desc Descriptor, id uint32) *Component {
	c := &Component{
		sim:          s,
		desc:         desc,
		id:           id,
		outputStart:  desc.NumInputs(),
		controlStart: desc.NumInputs() + desc.NumOutputs(),
	}
	n := c.controlStart + desc.NumControls()
	c.pins = make([]Pin, 0, n)
	for i := 0; i < n; i++ {
		c.pins = append(c.pins, s.AssignPin(c, i < c.outputStart || i >= c.controlStart))
	}
	return c
}

// applyInitialValues seeds the output nodes with the initial_output property
// and, for top-level input connectors, a False user value.
//
func (c *Component) applyInitialValues() {
	initial := c.desc.PropertyValue("initial_output", Undefined)
	if initial != Undefined {
		for _, pin := range c.OutputPins() {
			c.sim.PinSetInitialValue(pin, initial)
		}
	}
	if c.desc.Type() == ConnectorIn && c.UserValuesEnabled() && !c.desc.PropertyBool("tri_state", false) {
		for i := c.outputStart; i < c.controlStart; i++ {
			c.userValues[i] = False
			c.sim.PinSetInitialValue(c.pins[i], False)
		}
	}
}

// Descriptor returns the model description of c.
func (c *Component) Descriptor() Descriptor { return c.desc }

// Type returns the component type.
func (c *Component) Type() ComponentType { return c.desc.Type() }

// ID returns the simulator-wide id of c.
func (c *Component) ID() uint32 { return c.id }

// Simulator returns the simulator c belongs to.
func (c *Component) Simulator() *Simulator { return c.sim }

func (c *Component) checkIndex(index int) {
	if index < 0 || index >= len(c.pins) {
		panic("pin index " + strconv.Itoa(index) + " out of range for " + c.desc.Type().String() +
			" component with " + strconv.Itoa(len(c.pins)) + " pins")
	}
}

// Pin returns the simulator pin at index.
//
func (c *Component) Pin(index int) Pin {
	c.checkIndex(index)
	return c.pins[index]
}

// Pins returns all pins of c. The returned slice must not be modified.
func (c *Component) Pins() []Pin { return c.pins }

// InputPins returns the input pins of c.
func (c *Component) InputPins() []Pin { return c.pins[:c.outputStart] }

// OutputPins returns the output pins of c.
func (c *Component) OutputPins() []Pin { return c.pins[c.outputStart:c.controlStart] }

// ControlPins returns the control pins of c.
func (c *Component) ControlPins() []Pin { return c.pins[c.controlStart:] }

// NumInputs returns the number of input pins.
func (c *Component) NumInputs() int { return c.outputStart }

// NumOutputs returns the number of output pins.
func (c *Component) NumOutputs() int { return c.controlStart - c.outputStart }

// NumControls returns the number of control pins.
func (c *Component) NumControls() int { return len(c.pins) - c.controlStart }

// InputPinIndex returns the pin index of input i.
func (c *Component) InputPinIndex(i int) int { return i }

// OutputPinIndex returns the pin index of output i.
func (c *Component) OutputPinIndex(i int) int { return c.outputStart + i }

// ControlPinIndex returns the pin index of control i.
func (c *Component) ControlPinIndex(i int) int { return c.controlStart + i }

// ReadPin returns the settled value of the node connected to pin index.
//
func (c *Component) ReadPin(index int) Value {
	return c.sim.ReadPin(c.Pin(index))
}

// WritePin drives value through pin index. Writing Undefined to a pin that
// already relinquished its node is a no-op, unless the node has not been
// resolved since the last Init.
//
func (c *Component) WritePin(index int, value Value) {
	pin := c.Pin(index)
	if value == Undefined && c.sim.pinReleased(pin) {
		return
	}
	c.sim.WritePin(pin, value)
}

// ReadPinChecked reads pin index as a boolean. Reading a value other than False
// or True sets the bad read flag of c until the next call to ResetBadRead.
//
func (c *Component) ReadPinChecked(index int) bool {
	v := c.ReadPin(index)
	if !v.IsBool() {
		c.badRead = true
	}
	return v == True
}

// WritePinChecked drives value through pin index, or Error if a checked read
// failed since the last call to ResetBadRead.
//
func (c *Component) WritePinChecked(index int, value bool) {
	if c.badRead {
		c.WritePin(index, Error)
		return
	}
	c.WritePin(index, ValueOf(value))
}

// ResetBadRead clears the bad read flag.
func (c *Component) ResetBadRead() { c.badRead = false }

// EnableUserValues allocates user values for every pin of c, all Undefined.
//
func (c *Component) EnableUserValues() {
	c.userValues = make([]Value, len(c.pins))
	for i := range c.userValues {
		c.userValues[i] = Undefined
	}
}

// UserValuesEnabled returns true if EnableUserValues was called on c.
func (c *Component) UserValuesEnabled() bool { return len(c.userValues) > 0 }

// UserValue returns the user value of pin index, or Undefined if user values
// are not enabled.
//
func (c *Component) UserValue(index int) Value {
	if index < 0 || index >= len(c.userValues) {
		return Undefined
	}
	return c.userValues[index]
}

// SetUserValue sets the user value of pin index and activates the independent
// behavior of c so that the value is applied at the next step.
// It panics if user values are not enabled.
//
func (c *Component) SetUserValue(index int, value Value) {
	c.checkIndex(index)
	if !c.UserValuesEnabled() {
		panic("user values not enabled on " + c.desc.Type().String() + " component " +
			strconv.FormatUint(uint64(c.desc.ID()), 10))
	}
	c.userValues[index] = value
	c.sim.ActivateIndependent(c)
}

// SetNested links the instance of the nested circuit of a sub-circuit
// component.
//
func (c *Component) SetNested(inst *Instance) { c.nested = inst }

// Nested returns the nested circuit instance of a sub-circuit component, or
// nil.
//
func (c *Component) Nested() *Instance { return c.nested }

// SetExtra stores component specific runtime data, usually from a setup
// behavior.
//
func (c *Component) SetExtra(v interface{}) { c.extra = v }

// Extra returns the data stored with SetExtra.
func (c *Component) Extra() interface{} { return c.extra }
