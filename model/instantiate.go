package model

import (
	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// Instantiate creates the simulator components of c, and recursively of its
// sub-circuits, then merges the nodes of connected pins.
//
// Input connectors of a top-level instance accept user values: they are the
// circuit inputs. Nested input connectors are driven through the ports of
// their parent component instead.
//
// The circuit tree is checked before any component is created: a failed
// Instantiate leaves sim untouched.
//
func (c *Circuit) Instantiate(sim *lsim.Simulator, topLevel bool) (*lsim.Instance, error) {
	if err := c.validate(make(map[*Circuit]bool), make(map[*Circuit]bool)); err != nil {
		return nil, err
	}
	return c.instantiate(sim, topLevel, make(map[*Circuit]bool))
}

// validate resolves the sub-circuits of c and its descendants and checks their
// ports and vias. Circuits in done have already been checked.
//
func (c *Circuit) validate(stack, done map[*Circuit]bool) error {
	if stack[c] {
		return errors.Errorf("circuit %q contains itself", c.QualifiedName())
	}
	if done[c] {
		return nil
	}
	stack[c] = true
	defer delete(stack, c)

	vias := make(map[string]*Component)
	for _, id := range c.ComponentIDs() {
		comp := c.components[id]
		switch comp.typ {
		case lsim.SubCircuit:
			if err := comp.SyncNested(); err != nil {
				return errors.Wrapf(err, "instantiate %q", c.name)
			}
			if err := comp.nested.validate(stack, done); err != nil {
				return errors.Wrapf(err, "instantiate %q", c.name)
			}
			for _, name := range comp.PortNames() {
				if comp.nested.PortByName(name) == lsim.PinIDInvalid || comp.PortByName(name) == lsim.PinIDInvalid {
					return errors.Wrapf(lsim.ErrNotFound, "port %q of circuit %q", name, comp.nestedName)
				}
			}
		case lsim.Via:
			name := comp.PropertyString("name", "via")
			first, ok := vias[name]
			if !ok {
				vias[name] = comp
				break
			}
			if first.NumPins() != comp.NumPins() {
				return errors.Errorf("via %q: pin count mismatch between components %d and %d in %q",
					name, first.id, comp.id, c.name)
			}
		}
	}
	done[c] = true
	return nil
}

func (c *Circuit) instantiate(sim *lsim.Simulator, topLevel bool, stack map[*Circuit]bool) (*lsim.Instance, error) {
	if stack[c] {
		return nil, errors.Errorf("circuit %q contains itself", c.QualifiedName())
	}
	stack[c] = true
	defer delete(stack, c)

	inst := lsim.NewInstance(sim, c)
	vias := make(map[string]*Component)

	for _, id := range c.ComponentIDs() {
		comp := c.components[id]
		sc := inst.AddComponent(comp)

		switch comp.typ {
		case lsim.SubCircuit:
			nested, err := comp.nested.instantiate(sim, false, stack)
			if err != nil {
				return nil, errors.Wrapf(err, "instantiate %q", c.name)
			}
			nested.BuildName(comp.id)
			for _, name := range comp.PortNames() {
				inner := nested.PinFromPinID(comp.nested.PortByName(name))
				if inner == lsim.PinInvalid {
					return nil, errors.Wrapf(lsim.ErrNotFound, "port %q of circuit %q", name, comp.nestedName)
				}
				sim.ConnectPins(inner, inst.PinFromPinID(comp.PortByName(name)))
			}
			sc.SetNested(nested)
		case lsim.Via:
			name := comp.PropertyString("name", "via")
			first, ok := vias[name]
			if !ok {
				vias[name] = comp
				break
			}
			if first.NumPins() != comp.NumPins() {
				return nil, errors.Errorf("via %q: pin count mismatch between components %d and %d in %q",
					name, first.id, comp.id, c.name)
			}
			for i := 0; i < comp.NumPins(); i++ {
				inst.ConnectPins(first.PinID(i), comp.PinID(i))
			}
		case lsim.ConnectorIn:
			if topLevel {
				sc.EnableUserValues()
			}
		}
	}

	for _, id := range c.WireIDs() {
		w := c.wires[id]
		if len(w.pins) < 2 {
			continue
		}
		for _, p := range w.pins[1:] {
			inst.ConnectPins(w.pins[0], p)
		}
	}
	return inst, nil
}
