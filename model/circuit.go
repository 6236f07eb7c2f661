// Package model describes circuits: components, wires, ports and the libraries
// holding them. Circuit.Instantiate turns a description into simulator
// components.
package model

import (
	"sort"
	"strconv"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// Circuit is the description of a logic circuit: components, wires and the
// ports derived from its connectors. It implements lsim.CircuitDescriptor.
//
type Circuit struct {
	name string
	lib  *Library

	components map[uint32]*Component
	nextComp   uint32
	wires      map[uint32]*Wire
	nextWire   uint32

	inputs  []string
	outputs []string
	ports   map[string]lsim.PinID
}

func newCircuit(name string, lib *Library) *Circuit {
	return &Circuit{
		name:       name,
		lib:        lib,
		components: make(map[uint32]*Component),
		wires:      make(map[uint32]*Wire),
		ports:      make(map[string]lsim.PinID),
	}
}

// NewCircuit returns a circuit that does not belong to any library. Sub-circuit
// components of such a circuit cannot be resolved.
//
func NewCircuit(name string) *Circuit { return newCircuit(name, nil) }

// Name returns the circuit name.
func (c *Circuit) Name() string { return c.name }

// Library returns the library the circuit belongs to, or nil.
func (c *Circuit) Library() *Library { return c.lib }

// Context returns the context of the circuit's library, or nil.
//
func (c *Circuit) Context() *Context {
	if c.lib == nil {
		return nil
	}
	return c.lib.ctx
}

// QualifiedName returns "<library>.<circuit>" for circuits of reference
// libraries and the bare name otherwise.
//
func (c *Circuit) QualifiedName() string {
	if c.lib == nil || c.lib.name == "" || c.lib.name == UserLibraryName {
		return c.name
	}
	return c.lib.name + "." + c.name
}

// AddComponent creates a component of the given type. The sub-circuit type
// must be added with AddSubCircuit.
//
func (c *Circuit) AddComponent(typ lsim.ComponentType, inputs, outputs, controls int) *Component {
	if typ == lsim.SubCircuit {
		panic("AddComponent: use AddSubCircuit for sub-circuit components")
	}
	return c.addComponent(typ, inputs, outputs, controls)
}

func (c *Circuit) addComponent(typ lsim.ComponentType, inputs, outputs, controls int) *Component {
	comp := newComponent(c, c.nextComp, typ, inputs, outputs, controls)
	c.nextComp++
	c.components[comp.id] = comp
	return comp
}

// AddComponentWithID creates a component with a specific id, as found in a
// saved library. Ids need not be contiguous.
//
func (c *Circuit) AddComponentWithID(id uint32, typ lsim.ComponentType, inputs, outputs, controls int) (*Component, error) {
	if _, ok := c.components[id]; ok {
		return nil, errors.Errorf("duplicate component id %d in circuit %q", id, c.name)
	}
	comp := newComponent(c, id, typ, inputs, outputs, controls)
	if id >= c.nextComp {
		c.nextComp = id + 1
	}
	c.components[id] = comp
	return comp, nil
}

// AddSubCircuit adds a component instantiating circuit name, resolved through
// the circuit's context.
//
func (c *Circuit) AddSubCircuit(name string) (*Component, error) {
	comp := c.addComponent(lsim.SubCircuit, 0, 0, 0)
	comp.nestedName = name
	comp.Property("caption").SetText(name)
	if err := comp.SyncNested(); err != nil {
		c.RemoveComponent(comp.id)
		return nil, err
	}
	return comp, nil
}

// AddSubCircuitPins adds a sub-circuit component with explicit pin counts and
// without resolving the nested circuit. SyncSubCircuits resolves it later.
//
func (c *Circuit) AddSubCircuitPins(name string, inputs, outputs int) *Component {
	comp := c.addComponent(lsim.SubCircuit, inputs, outputs, 0)
	comp.nestedName = name
	comp.Property("caption").SetText(name)
	return comp
}

// AddSubCircuitWithID adds an unresolved sub-circuit component with a specific
// id and pin counts, as found in a saved library.
//
func (c *Circuit) AddSubCircuitWithID(id uint32, name string, inputs, outputs int) (*Component, error) {
	comp, err := c.AddComponentWithID(id, lsim.SubCircuit, inputs, outputs, 0)
	if err != nil {
		return nil, err
	}
	comp.nestedName = name
	comp.Property("caption").SetText(name)
	return comp, nil
}

// SetNestedName sets the circuit name of a sub-circuit component.
//
func (c *Circuit) SetNestedName(comp *Component, name string) {
	comp.nestedName = name
	comp.nested = nil
}

// SyncSubCircuits resolves the nested circuit of every sub-circuit component.
//
func (c *Circuit) SyncSubCircuits() error {
	for _, id := range c.ComponentIDsOfType(lsim.SubCircuit) {
		if err := c.components[id].SyncNested(); err != nil {
			return errors.Wrapf(err, "circuit %q", c.name)
		}
	}
	return nil
}

// AddConnectorIn adds an input connector with bits outputs and registers its
// ports.
//
func (c *Circuit) AddConnectorIn(name string, bits int, triState bool) *Component {
	return c.addConnector(lsim.ConnectorIn, name, bits, triState)
}

// AddConnectorOut adds an output connector with bits inputs and registers its
// ports.
//
func (c *Circuit) AddConnectorOut(name string, bits int, triState bool) *Component {
	return c.addConnector(lsim.ConnectorOut, name, bits, triState)
}

func (c *Circuit) addConnector(typ lsim.ComponentType, name string, bits int, triState bool) *Component {
	if bits < 1 {
		panic("connector " + name + " needs at least one pin")
	}
	var comp *Component
	if typ == lsim.ConnectorIn {
		comp = c.addComponent(typ, 0, bits, 0)
	} else {
		comp = c.addComponent(typ, bits, 0, 0)
	}
	comp.Property("name").SetText(name)
	comp.Property("tri_state").SetBool(triState)
	c.addPort(comp)
	return comp
}

// AddConstant adds a constant driving value.
func (c *Circuit) AddConstant(value lsim.Value) *Component {
	comp := c.addComponent(lsim.Constant, 0, 1, 0)
	comp.Property("value").SetValue(value)
	return comp
}

// AddPullResistor adds a pull resistor setting the default value of its node.
func (c *Circuit) AddPullResistor(pullTo lsim.Value) *Component {
	comp := c.addComponent(lsim.PullResistor, 0, 1, 0)
	comp.Property("pull_to").SetValue(pullTo)
	return comp
}

func checkBits(what string, n, min int) {
	if n < min {
		panic(what + " needs at least " + strconv.Itoa(min) + " pins, got " + strconv.Itoa(n))
	}
}

// AddBuffer adds a buffer with bits inputs and outputs.
func (c *Circuit) AddBuffer(bits int) *Component {
	checkBits("buffer", bits, 1)
	return c.addComponent(lsim.Buffer, bits, bits, 0)
}

// AddTristateBuffer adds a tri-state buffer with bits inputs and outputs and one
// enable control.
//
func (c *Circuit) AddTristateBuffer(bits int) *Component {
	checkBits("tri-state buffer", bits, 1)
	return c.addComponent(lsim.TristateBuffer, bits, bits, 1)
}

// AddAndGate adds an n-input AND gate.
func (c *Circuit) AddAndGate(n int) *Component {
	checkBits("and gate", n, 2)
	return c.addComponent(lsim.AndGate, n, 1, 0)
}

// AddOrGate adds an n-input OR gate.
func (c *Circuit) AddOrGate(n int) *Component {
	checkBits("or gate", n, 2)
	return c.addComponent(lsim.OrGate, n, 1, 0)
}

// AddNandGate adds an n-input NAND gate.
func (c *Circuit) AddNandGate(n int) *Component {
	checkBits("nand gate", n, 2)
	return c.addComponent(lsim.NandGate, n, 1, 0)
}

// AddNorGate adds an n-input NOR gate.
func (c *Circuit) AddNorGate(n int) *Component {
	checkBits("nor gate", n, 2)
	return c.addComponent(lsim.NorGate, n, 1, 0)
}

// AddNotGate adds an inverter.
func (c *Circuit) AddNotGate() *Component { return c.addComponent(lsim.NotGate, 1, 1, 0) }

// AddXorGate adds a 2-input XOR gate.
func (c *Circuit) AddXorGate() *Component { return c.addComponent(lsim.XorGate, 2, 1, 0) }

// AddXnorGate adds a 2-input XNOR gate.
func (c *Circuit) AddXnorGate() *Component { return c.addComponent(lsim.XnorGate, 2, 1, 0) }

// AddVia adds a via: all vias with the same name in a circuit are connected
// pin-wise.
//
func (c *Circuit) AddVia(name string, bits int) *Component {
	checkBits("via", bits, 1)
	comp := c.addComponent(lsim.Via, bits, 0, 0)
	comp.Property("name").SetText(name)
	return comp
}

// AddOscillator adds a clock source staying lowDuration steps low and
// highDuration steps high.
//
func (c *Circuit) AddOscillator(lowDuration, highDuration int) *Component {
	comp := c.addComponent(lsim.Oscillator, 0, 1, 0)
	comp.Property("low_duration").SetInt(int64(lowDuration))
	comp.Property("high_duration").SetInt(int64(highDuration))
	return comp
}

// AddSevenSegmentLED adds a 7-segment display with a decimal point: 8 segment
// inputs and one common control.
//
func (c *Circuit) AddSevenSegmentLED() *Component {
	return c.addComponent(lsim.SevenSegmentLED, 8, 0, 1)
}

// AddText adds an annotation.
func (c *Circuit) AddText(text string) *Component {
	comp := c.addComponent(lsim.Text, 0, 0, 0)
	comp.Property("text").SetText(text)
	return comp
}

// ComponentByID returns the component with the given id, or nil.
func (c *Circuit) ComponentByID(id uint32) *Component { return c.components[id] }

// NumComponents returns the number of components.
func (c *Circuit) NumComponents() int { return len(c.components) }

// ComponentIDs returns all component ids in ascending order.
//
func (c *Circuit) ComponentIDs() []uint32 {
	return sortedKeys(c.components)
}

// ComponentIDsOfType returns the ids of the components of type typ, in
// ascending order.
//
func (c *Circuit) ComponentIDsOfType(typ lsim.ComponentType) []uint32 {
	var ids []uint32
	for _, id := range c.ComponentIDs() {
		if c.components[id].typ == typ {
			ids = append(ids, id)
		}
	}
	return ids
}

// RemoveComponent deletes a component and disconnects its pins from every
// wire. Wires left without pins are removed.
//
func (c *Circuit) RemoveComponent(id uint32) {
	comp, ok := c.components[id]
	if !ok {
		return
	}
	for _, wid := range c.WireIDs() {
		w := c.wires[wid]
		w.RemoveComponentPins(id)
		if len(w.pins) == 0 {
			delete(c.wires, wid)
		}
	}
	delete(c.components, id)
	if comp.typ == lsim.ConnectorIn || comp.typ == lsim.ConnectorOut {
		c.RebuildPortList()
	}
}

// CreateWire adds an empty wire.
//
func (c *Circuit) CreateWire() *Wire {
	w := &Wire{id: c.nextWire}
	c.nextWire++
	c.wires[w.id] = w
	return w
}

// CreateWireWithID adds an empty wire with a specific id.
//
func (c *Circuit) CreateWireWithID(id uint32) (*Wire, error) {
	if _, ok := c.wires[id]; ok {
		return nil, errors.Errorf("duplicate wire id %d in circuit %q", id, c.name)
	}
	w := &Wire{id: id}
	if id >= c.nextWire {
		c.nextWire = id + 1
	}
	c.wires[id] = w
	return w, nil
}

// Connect adds a wire between pins a and b.
//
func (c *Circuit) Connect(a, b lsim.PinID) *Wire {
	w := c.CreateWire()
	w.AddPin(a)
	w.AddPin(b)
	return w
}

// ConnectAll adds a single wire connecting all the given pins.
//
func (c *Circuit) ConnectAll(pins ...lsim.PinID) *Wire {
	w := c.CreateWire()
	for _, p := range pins {
		w.AddPin(p)
	}
	return w
}

// DisconnectPin removes pin from every wire. Wires left without pins are
// removed.
//
func (c *Circuit) DisconnectPin(pin lsim.PinID) {
	for _, wid := range c.WireIDs() {
		w := c.wires[wid]
		w.RemovePin(pin)
		if len(w.pins) == 0 {
			delete(c.wires, wid)
		}
	}
}

// RemoveWire deletes a wire.
func (c *Circuit) RemoveWire(id uint32) { delete(c.wires, id) }

// WireByID returns the wire with the given id, or nil.
func (c *Circuit) WireByID(id uint32) *Wire { return c.wires[id] }

// NumWires returns the number of wires.
func (c *Circuit) NumWires() int { return len(c.wires) }

// WireIDs returns all wire ids in ascending order.
func (c *Circuit) WireIDs() []uint32 { return sortedKeys(c.wires) }

func sortedKeys[T any](m map[uint32]T) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Circuit) addPort(conn *Component) {
	n := conn.inputs + conn.outputs
	name := conn.PropertyString("name", "")
	list := &c.outputs
	if conn.typ == lsim.ConnectorIn {
		list = &c.inputs
	}
	if n == 1 {
		c.ports[name] = conn.PinID(0)
		*list = append(*list, name)
		return
	}
	for i := 0; i < n; i++ {
		pn := BusPinName(name, i)
		c.ports[pn] = conn.PinID(i)
		*list = append(*list, pn)
	}
}

// RebuildPortList recomputes the ports from the connectors, in component id
// order. Call it after renaming a connector.
//
func (c *Circuit) RebuildPortList() {
	c.inputs = nil
	c.outputs = nil
	c.ports = make(map[string]lsim.PinID)
	for _, id := range c.ComponentIDs() {
		comp := c.components[id]
		if comp.typ == lsim.ConnectorIn || comp.typ == lsim.ConnectorOut {
			c.addPort(comp)
		}
	}
}

// ChangePortPinCount resizes a connector. Pins beyond the new count are
// disconnected from their wires.
//
func (c *Circuit) ChangePortPinCount(id uint32, bits int) error {
	comp := c.components[id]
	if comp == nil {
		return errors.Wrapf(lsim.ErrNotFound, "component %d in circuit %q", id, c.name)
	}
	if comp.typ != lsim.ConnectorIn && comp.typ != lsim.ConnectorOut {
		return errors.Errorf("component %d in circuit %q is not a connector", id, c.name)
	}
	checkBits("connector", bits, 1)
	for i := bits; i < comp.NumPins(); i++ {
		c.DisconnectPin(comp.PinID(i))
	}
	if comp.typ == lsim.ConnectorIn {
		comp.outputs = bits
	} else {
		comp.inputs = bits
	}
	c.RebuildPortList()
	return nil
}

// PortByName implements lsim.CircuitDescriptor. It returns lsim.PinIDInvalid if
// the circuit has no such port.
//
func (c *Circuit) PortByName(name string) lsim.PinID {
	if id, ok := c.ports[name]; ok {
		return id
	}
	return lsim.PinIDInvalid
}

// PortByIndex returns the pin id of input (or output) port index.
//
func (c *Circuit) PortByIndex(input bool, index int) lsim.PinID {
	return c.PortByName(c.PortName(input, index))
}

// PortName returns the name of input (or output) port index.
//
func (c *Circuit) PortName(input bool, index int) string {
	list := c.outputs
	if input {
		list = c.inputs
	}
	if index < 0 || index >= len(list) {
		panic("port index " + strconv.Itoa(index) + " out of range in circuit " + c.name)
	}
	return list[index]
}

// InputPorts returns the input port names.
func (c *Circuit) InputPorts() []string { return c.inputs }

// OutputPorts returns the output port names.
func (c *Circuit) OutputPorts() []string { return c.outputs }
