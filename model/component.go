package model

import (
	"strconv"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// Point is a position on the circuit canvas.
//
type Point struct {
	X, Y float64
}

// Component is the description of a component in a circuit: its type, pin
// counts and properties. It implements lsim.Descriptor.
//
// Pins are numbered inputs first, then outputs, then controls.
//
type Component struct {
	circuit  *Circuit
	id       uint32
	typ      lsim.ComponentType
	inputs   int
	outputs  int
	controls int

	props map[string]*Property
	keys  []string

	Position Point
	Angle    int

	nestedName string
	nested     *Circuit
	ports      map[string]lsim.PinID
}

func newComponent(c *Circuit, id uint32, typ lsim.ComponentType, inputs, outputs, controls int) *Component {
	comp := &Component{
		circuit:  c,
		id:       id,
		typ:      typ,
		inputs:   inputs,
		outputs:  outputs,
		controls: controls,
		props:    make(map[string]*Property),
	}
	comp.addDefaultProperties()
	return comp
}

func (c *Component) addDefaultProperties() {
	switch c.typ {
	case lsim.ConnectorIn, lsim.ConnectorOut:
		c.AddProperty(StringProperty("name", "c#"+strconv.FormatUint(uint64(c.id), 10)))
		c.AddProperty(BoolProperty("tri_state", false))
		c.AddProperty(BoolProperty("descending", false))
	case lsim.Constant:
		c.AddProperty(ValueProperty("value", lsim.False))
	case lsim.PullResistor:
		c.AddProperty(ValueProperty("pull_to", lsim.False))
	case lsim.Text:
		c.AddProperty(StringProperty("text", "text"))
	case lsim.Via:
		c.AddProperty(StringProperty("name", "via"))
		c.AddProperty(BoolProperty("right", false))
	case lsim.Oscillator:
		c.AddProperty(IntProperty("low_duration", 5))
		c.AddProperty(IntProperty("high_duration", 5))
		c.AddProperty(ValueProperty("initial_output", lsim.False))
	case lsim.SevenSegmentLED:
	case lsim.SubCircuit:
		c.AddProperty(BoolProperty("flip", false))
		c.AddProperty(StringProperty("caption", ""))
	default:
		c.AddProperty(ValueProperty("initial_output", lsim.Undefined))
	}
}

// Circuit returns the circuit c belongs to.
func (c *Component) Circuit() *Circuit { return c.circuit }

// ID returns the component id.
func (c *Component) ID() uint32 { return c.id }

// Type returns the component type.
func (c *Component) Type() lsim.ComponentType { return c.typ }

// NumInputs returns the number of input pins.
func (c *Component) NumInputs() int { return c.inputs }

// NumOutputs returns the number of output pins.
func (c *Component) NumOutputs() int { return c.outputs }

// NumControls returns the number of control pins.
func (c *Component) NumControls() int { return c.controls }

// NumPins returns the total pin count.
func (c *Component) NumPins() int { return c.inputs + c.outputs + c.controls }

func (c *Component) pinID(index, count int, kind string) lsim.PinID {
	if index < 0 || index >= count {
		panic(kind + " index " + strconv.Itoa(index) + " out of range for component " +
			strconv.FormatUint(uint64(c.id), 10) + " (" + c.typ.String() + ")")
	}
	return lsim.MakePinID(c.id, uint32(index))
}

// PinID returns the pin id of pin index.
func (c *Component) PinID(index int) lsim.PinID { return c.pinID(index, c.NumPins(), "pin") }

// InputPinID returns the pin id of input i.
func (c *Component) InputPinID(i int) lsim.PinID {
	c.pinID(i, c.inputs, "input")
	return lsim.MakePinID(c.id, uint32(i))
}

// OutputPinID returns the pin id of output i.
func (c *Component) OutputPinID(i int) lsim.PinID {
	c.pinID(i, c.outputs, "output")
	return lsim.MakePinID(c.id, uint32(c.inputs+i))
}

// ControlPinID returns the pin id of control i.
func (c *Component) ControlPinID(i int) lsim.PinID {
	c.pinID(i, c.controls, "control")
	return lsim.MakePinID(c.id, uint32(c.inputs+c.outputs+i))
}

// PinIDs returns the ids of all pins of c.
//
func (c *Component) PinIDs() []lsim.PinID {
	ids := make([]lsim.PinID, c.NumPins())
	for i := range ids {
		ids[i] = lsim.MakePinID(c.id, uint32(i))
	}
	return ids
}

// AddProperty adds or replaces a property.
//
func (c *Component) AddProperty(p *Property) {
	if _, ok := c.props[p.key]; !ok {
		c.keys = append(c.keys, p.key)
	}
	c.props[p.key] = p
}

// Property returns the property with the given key, or nil.
func (c *Component) Property(key string) *Property { return c.props[key] }

// PropertyKeys returns the property keys in insertion order.
func (c *Component) PropertyKeys() []string { return c.keys }

// PropertyValue implements lsim.Descriptor.
func (c *Component) PropertyValue(key string, def lsim.Value) lsim.Value {
	if p := c.props[key]; p != nil {
		return p.Value()
	}
	return def
}

// PropertyInt implements lsim.Descriptor.
func (c *Component) PropertyInt(key string, def int64) int64 {
	if p := c.props[key]; p != nil {
		return p.Int()
	}
	return def
}

// PropertyBool implements lsim.Descriptor.
func (c *Component) PropertyBool(key string, def bool) bool {
	if p := c.props[key]; p != nil {
		return p.Bool()
	}
	return def
}

// PropertyString implements lsim.Descriptor.
func (c *Component) PropertyString(key string, def string) string {
	if p := c.props[key]; p != nil {
		return p.String()
	}
	return def
}

// SetProperty sets the value of an existing property from its text form, or
// adds a string property.
//
func (c *Component) SetProperty(key, value string) error {
	if p := c.props[key]; p != nil {
		return p.SetString(value)
	}
	c.AddProperty(StringProperty(key, value))
	return nil
}

// NestedName returns the name of the circuit a sub-circuit component refers to.
func (c *Component) NestedName() string { return c.nestedName }

// Nested returns the circuit linked by the last call to SyncNested, or nil.
func (c *Component) Nested() *Circuit { return c.nested }

// SyncNested resolves the nested circuit of a sub-circuit component through the
// circuit's context and updates the pin counts and port table to match the
// nested circuit's ports. It is a no-op for other component types.
//
func (c *Component) SyncNested() error {
	if c.typ != lsim.SubCircuit {
		return nil
	}
	var lib *Library
	var ctx *Context
	if c.circuit != nil {
		lib = c.circuit.lib
		ctx = c.circuit.Context()
	}
	var nested *Circuit
	switch {
	case ctx != nil:
		nested = ctx.FindCircuit(c.nestedName, lib)
	case lib != nil:
		nested = lib.CircuitByName(c.nestedName)
	}
	if nested == nil {
		return errors.Wrapf(lsim.ErrNotFound, "circuit %q used by component %d", c.nestedName, c.id)
	}
	c.nested = nested
	c.inputs = len(nested.inputs)
	c.outputs = len(nested.outputs)
	c.controls = 0
	c.ports = make(map[string]lsim.PinID, c.inputs+c.outputs)
	for i, n := range nested.inputs {
		c.ports[n] = lsim.MakePinID(c.id, uint32(i))
	}
	for i, n := range nested.outputs {
		c.ports[n] = lsim.MakePinID(c.id, uint32(c.inputs+i))
	}
	return nil
}

// PortByName returns the pin id of the named port of a sub-circuit component,
// or lsim.PinIDInvalid.
//
func (c *Component) PortByName(name string) lsim.PinID {
	if id, ok := c.ports[name]; ok {
		return id
	}
	return lsim.PinIDInvalid
}

// PortNames returns the port names of a sub-circuit component, inputs first.
//
func (c *Component) PortNames() []string {
	if c.nested == nil {
		return nil
	}
	names := make([]string, 0, len(c.nested.inputs)+len(c.nested.outputs))
	names = append(names, c.nested.inputs...)
	return append(names, c.nested.outputs...)
}
