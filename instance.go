package lsim

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// CircuitDescriptor is the part of a circuit description an Instance needs:
// its name and its named ports.
//
type CircuitDescriptor interface {
	Name() string
	// PortByName returns the pin id of the named port, or PinIDInvalid.
	PortByName(name string) PinID
}

// Instance is one instantiation of a circuit description in a Simulator. It
// maps structural pin ids to simulator pins. Several instances of the same
// description may share a Simulator.
//
type Instance struct {
	sim        *Simulator
	desc       CircuitDescriptor
	name       string
	components map[uint32]*Component
}

// NewInstance returns an empty instance of desc.
//
func NewInstance(sim *Simulator, desc CircuitDescriptor) *Instance {
	return &Instance{
		sim:        sim,
		desc:       desc,
		name:       desc.Name(),
		components: make(map[uint32]*Component),
	}
}

// Simulator returns the simulator of inst.
func (inst *Instance) Simulator() *Simulator { return inst.sim }

// Descriptor returns the circuit description inst was created from.
func (inst *Instance) Descriptor() CircuitDescriptor { return inst.desc }

// Name returns the instance name: the circuit name for a top-level instance,
// "<circuit>#<component id>" for nested ones.
//
func (inst *Instance) Name() string { return inst.name }

// BuildName names a nested instance after the id of the sub-circuit component
// it belongs to.
//
func (inst *Instance) BuildName(compID uint32) {
	inst.name = inst.desc.Name() + "#" + strconv.FormatUint(uint64(compID), 10)
}

// AddComponent creates the simulated component for desc and registers it in
// inst under desc.ID().
//
func (inst *Instance) AddComponent(desc Descriptor) *Component {
	c := inst.sim.CreateComponent(desc)
	inst.components[desc.ID()] = c
	return c
}

// Component returns the component with the given model id, or nil.
func (inst *Instance) Component(id uint32) *Component { return inst.components[id] }

// ComponentIDs returns the model ids of all components, sorted.
//
func (inst *Instance) ComponentIDs() []uint32 {
	ids := make([]uint32, 0, len(inst.components))
	for id := range inst.components {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PinFromPinID resolves a pin id to a simulator pin. It returns PinInvalid if
// the component does not exist.
//
func (inst *Instance) PinFromPinID(id PinID) Pin {
	if id == PinIDInvalid {
		return PinInvalid
	}
	c, ok := inst.components[id.Component()]
	if !ok || int(id.Index()) >= len(c.pins) {
		return PinInvalid
	}
	return c.pins[id.Index()]
}

func (inst *Instance) mustPin(id PinID) Pin {
	p := inst.PinFromPinID(id)
	if p == PinInvalid {
		panic("unknown pin " + id.String() + " in " + inst.name)
	}
	return p
}

func (inst *Instance) mustComponent(id PinID) *Component {
	c, ok := inst.components[id.Component()]
	if !ok {
		panic("unknown component for pin " + id.String() + " in " + inst.name)
	}
	return c
}

// ConnectPins connects two pins of the instance. Unknown pins are ignored and
// NodeInvalid is returned.
//
func (inst *Instance) ConnectPins(a, b PinID) Node {
	pa, pb := inst.PinFromPinID(a), inst.PinFromPinID(b)
	if pa == PinInvalid || pb == PinInvalid {
		return NodeInvalid
	}
	return inst.sim.ConnectPins(pa, pb)
}

// ReadPin returns the settled value of the node of pin id.
func (inst *Instance) ReadPin(id PinID) Value {
	return inst.sim.ReadPin(inst.mustPin(id))
}

// WritePin sets the user value of pin id. The owning component must have user
// values enabled, i.e. be a top-level input connector.
//
func (inst *Instance) WritePin(id PinID, v Value) {
	inst.mustComponent(id).SetUserValue(int(id.Index()), v)
}

// ReadPins reads up to 64 pins as an unsigned integer. pins[0] is the least
// significant bit; any value other than True reads as 0.
//
func (inst *Instance) ReadPins(pins []PinID) uint64 {
	if len(pins) > 64 {
		panic("ReadPins: more than 64 pins")
	}
	var r uint64
	for i, id := range pins {
		if inst.ReadPin(id) == True {
			r |= 1 << uint(i)
		}
	}
	return r
}

// ReadNibble reads 4 pins, pins[0] being the least significant bit.
//
func (inst *Instance) ReadNibble(pins []PinID) uint8 {
	if len(pins) != 4 {
		panic("ReadNibble: need exactly 4 pins")
	}
	return uint8(inst.ReadPins(pins))
}

// ReadByte reads 8 pins, pins[0] being the least significant bit.
//
func (inst *Instance) ReadByte(pins []PinID) uint8 {
	if len(pins) != 8 {
		panic("ReadByte: need exactly 8 pins")
	}
	return uint8(inst.ReadPins(pins))
}

// WritePins writes the low len(pins) bits of data, pins[0] receiving the least
// significant bit.
//
func (inst *Instance) WritePins(pins []PinID, data uint64) {
	for i, id := range pins {
		inst.WritePin(id, ValueOf(data>>uint(i)&1 != 0))
	}
}

// WriteNibble writes 4 bits of data.
//
func (inst *Instance) WriteNibble(pins []PinID, data uint8) {
	if len(pins) != 4 {
		panic("WriteNibble: need exactly 4 pins")
	}
	inst.WritePins(pins, uint64(data))
}

// WriteByte writes 8 bits of data.
//
func (inst *Instance) WriteByte(pins []PinID, data uint8) {
	if len(pins) != 8 {
		panic("WriteByte: need exactly 8 pins")
	}
	inst.WritePins(pins, uint64(data))
}

// WriteValues writes values[i] to pins[i].
//
func (inst *Instance) WriteValues(pins []PinID, values []Value) {
	if len(pins) != len(values) {
		panic("WriteValues: pin and value count mismatch")
	}
	for i, id := range pins {
		inst.WritePin(id, values[i])
	}
}

// WriteOutputPins writes data to the outputs of component compID, bit 0 going to
// the first output.
//
func (inst *Instance) WriteOutputPins(compID uint32, data uint64) {
	c := inst.components[compID]
	if c == nil {
		panic("unknown component " + strconv.FormatUint(uint64(compID), 10) + " in " + inst.name)
	}
	for i := 0; i < c.NumOutputs(); i++ {
		c.SetUserValue(c.OutputPinIndex(i), ValueOf(data>>uint(i)&1 != 0))
	}
}

// PinNode returns the node of pin id.
func (inst *Instance) PinNode(id PinID) Node { return inst.sim.PinNode(inst.mustPin(id)) }

// NodeDirty returns true if node changed during the last step.
func (inst *Instance) NodeDirty(node Node) bool { return inst.sim.NodeDirty(node) }

// PinOutput returns the last value driven through pin id.
func (inst *Instance) PinOutput(id PinID) Value { return inst.sim.PinOutput(inst.mustPin(id)) }

// UserValue returns the user value of pin id.
func (inst *Instance) UserValue(id PinID) Value {
	return inst.mustComponent(id).UserValue(int(id.Index()))
}

// PortPinID returns the pin id of the named port.
//
func (inst *Instance) PortPinID(name string) (PinID, error) {
	id := inst.desc.PortByName(name)
	if id == PinIDInvalid {
		return PinIDInvalid, errors.Wrapf(ErrNotFound, "port %q in circuit %q", name, inst.desc.Name())
	}
	return id, nil
}

// PortPinIDs resolves several port names.
//
func (inst *Instance) PortPinIDs(names ...string) ([]PinID, error) {
	ids := make([]PinID, 0, len(names))
	for _, n := range names {
		id, err := inst.PortPinID(n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ReadPort returns the value of the named port.
//
func (inst *Instance) ReadPort(name string) (Value, error) {
	id, err := inst.PortPinID(name)
	if err != nil {
		return Undefined, err
	}
	return inst.ReadPin(id), nil
}

// WritePort sets the user value of the named input port.
//
func (inst *Instance) WritePort(name string, v Value) error {
	id, err := inst.PortPinID(name)
	if err != nil {
		return err
	}
	c := inst.mustComponent(id)
	if !c.UserValuesEnabled() {
		return errors.Errorf("port %q of circuit %q is not writable", name, inst.desc.Name())
	}
	c.SetUserValue(int(id.Index()), v)
	return nil
}
