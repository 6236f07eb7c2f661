// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

// A BehaviorFunc implements one aspect of a component type's behavior. It
// reads the component's inputs through c.ReadPin and drives its outputs
// through c.WritePin.
//
// For example, a NOT gate is implemented like this:
//
//	func not(sim *lsim.Simulator, c *lsim.Component) {
//		c.ResetBadRead()
//		in := c.ReadPinChecked(c.InputPinIndex(0))
//		c.WritePinChecked(c.OutputPinIndex(0), !in)
//	}
//
type BehaviorFunc func(sim *Simulator, c *Component)

// Behavior groups the callbacks of a component type. Any of them may be nil.
//
type Behavior struct {
	// Setup runs once per component during Simulator.Init.
	Setup BehaviorFunc
	// InputChanged runs during a step when one of the component's input or
	// control nodes changed during the previous step. If nil, ForwardLatched
	// is used.
	InputChanged BehaviorFunc
	// Independent runs every step while the component is active. Components
	// of a type with an Independent behavior are active from creation.
	Independent BehaviorFunc
}

// Registry maps component types to their behavior.
//
// A Registry is populated once before creating components and can be shared by
// several simulators. New component types are added with Register without any
// change to the Simulator.
//
type Registry struct {
	m map[ComponentType]Behavior
}

// NewRegistry returns an empty registry.
//
func NewRegistry() *Registry {
	return &Registry{m: make(map[ComponentType]Behavior)}
}

// Register sets the behavior of component type t, replacing any previous
// registration.
//
func (r *Registry) Register(t ComponentType, b Behavior) {
	r.m[t] = b
}

// Lookup returns the behavior registered for t.
//
func (r *Registry) Lookup(t ComponentType) (Behavior, bool) {
	b, ok := r.m[t]
	return b, ok
}

// Types returns the number of registered component types.
func (r *Registry) Types() int { return len(r.m) }

// HasSetup returns true if t has a setup behavior.
func (r *Registry) HasSetup(t ComponentType) bool { return r.m[t].Setup != nil }

// HasIndependent returns true if t has an independent behavior.
func (r *Registry) HasIndependent(t ComponentType) bool { return r.m[t].Independent != nil }

func (r *Registry) inputChanged(t ComponentType) BehaviorFunc {
	if f := r.m[t].InputChanged; f != nil {
		return f
	}
	return ForwardLatched
}

func (r *Registry) independent(t ComponentType) BehaviorFunc {
	return r.m[t].Independent
}

// ForwardLatched is the default input-changed behavior: every output keeps
// driving the value it drove last, if any.
//
func ForwardLatched(sim *Simulator, c *Component) {
	for i := 0; i < c.NumOutputs(); i++ {
		pin := c.Pin(c.OutputPinIndex(i))
		if v := sim.PinOutput(pin); v != Undefined {
			sim.WritePin(pin, v)
		}
	}
}
