// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"io"
	"log/slog"
	"strconv"
)

// nodeMeta is the bookkeeping of a single node.
//
type nodeMeta struct {
	def        Value        // value when no pin drives the node
	pins       []Pin        // pins in the node
	dependents []*Component // components reading the node
	active     []Pin        // pins currently driving a defined value
}

func (m *nodeMeta) addDependent(c *Component) {
	for _, d := range m.dependents {
		if d == c {
			return
		}
	}
	m.dependents = append(m.dependents, c)
}

func (m *nodeMeta) activate(p Pin) {
	for _, a := range m.active {
		if a == p {
			return
		}
	}
	m.active = append(m.active, p)
}

func (m *nodeMeta) release(p Pin) {
	for i, a := range m.active {
		if a == p {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

// An Option configures a Simulator.
//
type Option func(*Simulator)

// WithLogger sets the logger used for structural events (init, clear).
// The default logger discards everything.
//
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// Simulator owns all runtime pin, node and value state, and runs the step
// algorithm. A Simulator is not safe for concurrent use.
//
type Simulator struct {
	reg  *Registry
	log  *slog.Logger
	time Timestamp

	// components
	components  []*Component
	independent []*Component // active independent components, in activation order
	indepOps    []indepOp    // pending activations and deactivations
	dirtyComps  []*Component

	// pins
	pinNodes  []Node
	pinValues []Value // last value written through each pin

	// nodes
	nodes      []nodeMeta
	freeNodes  []Node
	values     nodeValues
	writeTime  []Timestamp
	changeTime []Timestamp
	dirtyRead  []Node // nodes that changed during the previous step
	dirtyNext  []Node // nodes that changed during the current step
	dirtyWrite []Node // nodes written to during the current step
	changes    int    // node changes during the last step
}

type indepOp struct {
	c   *Component
	add bool
}

// New returns a new Simulator dispatching component behaviors through reg.
//
func New(reg *Registry, opts ...Option) *Simulator {
	if reg == nil {
		panic("nil registry")
	}
	s := &Simulator{
		reg: reg,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Registry returns the behavior registry of the simulator.
func (s *Simulator) Registry() *Registry { return s.reg }

// Logger returns the simulator's logger.
func (s *Simulator) Logger() *slog.Logger { return s.log }

// CurrentTime returns the current step count.
func (s *Simulator) CurrentTime() Timestamp { return s.time }

// NumPins returns the number of allocated pins.
func (s *Simulator) NumPins() int { return len(s.pinNodes) }

// NumNodes returns the number of live nodes.
func (s *Simulator) NumNodes() int { return s.values.len() - len(s.freeNodes) }

// NumComponents returns the number of simulated components.
func (s *Simulator) NumComponents() int { return len(s.components) }

func (s *Simulator) checkPin(pin Pin) {
	if int(pin) >= len(s.pinNodes) {
		panic("invalid pin " + strconv.FormatUint(uint64(pin), 10))
	}
}

func (s *Simulator) checkNode(node Node) {
	if int(node) >= s.values.len() {
		panic("invalid node " + strconv.FormatUint(uint64(node), 10))
	}
}

// CreateComponent creates the runtime counterpart of a model component and
// assigns its pins: inputs first, then outputs, then controls. Inputs and
// controls make the component a dependent of their node.
//
// Components whose type has an independent behavior are active from creation.
//
func (s *Simulator) CreateComponent(desc Descriptor) *Component {
	c := newComponent(s, desc, uint32(len(s.components)))
	s.components = append(s.components, c)
	if b, ok := s.reg.Lookup(desc.Type()); ok && b.Independent != nil {
		c.active = true
		s.independent = append(s.independent, c)
	}
	return c
}

// ClearComponents drops every component, pin and node. Previously returned
// identifiers must not be used afterwards.
//
func (s *Simulator) ClearComponents() {
	s.log.Debug("clearing simulator", "components", len(s.components), "pins", len(s.pinNodes))
	s.components = s.components[:0]
	s.independent = s.independent[:0]
	s.indepOps = s.indepOps[:0]
	s.dirtyComps = s.dirtyComps[:0]
	s.pinNodes = s.pinNodes[:0]
	s.pinValues = s.pinValues[:0]
	s.nodes = s.nodes[:0]
	s.freeNodes = s.freeNodes[:0]
	s.values.clear()
	s.writeTime = s.writeTime[:0]
	s.changeTime = s.changeTime[:0]
	s.dirtyRead = s.dirtyRead[:0]
	s.dirtyNext = s.dirtyNext[:0]
	s.dirtyWrite = s.dirtyWrite[:0]
	s.time = 0
}

// assignNode returns a new empty node, reusing a released node id if possible.
//
func (s *Simulator) assignNode() Node {
	if n := len(s.freeNodes); n > 0 {
		id := s.freeNodes[n-1]
		s.freeNodes = s.freeNodes[:n-1]
		s.nodes[id] = nodeMeta{def: Undefined}
		s.values.force(id, Undefined)
		s.writeTime[id] = 0
		s.changeTime[id] = 0
		return id
	}
	id := s.values.grow(Undefined)
	s.nodes = append(s.nodes, nodeMeta{def: Undefined})
	s.writeTime = append(s.writeTime, 0)
	s.changeTime = append(s.changeTime, 0)
	return id
}

func (s *Simulator) releaseNode(n Node) {
	s.nodes[n] = nodeMeta{def: Undefined}
	s.freeNodes = append(s.freeNodes, n)
}

// AssignPin allocates a new pin in a new node. If usedAsInput is true, owner
// becomes a dependent of that node.
//
func (s *Simulator) AssignPin(owner *Component, usedAsInput bool) Pin {
	n := s.assignNode()
	pin := Pin(len(s.pinNodes))
	s.pinNodes = append(s.pinNodes, n)
	s.pinValues = append(s.pinValues, Undefined)
	s.nodes[n].pins = append(s.nodes[n].pins, pin)
	if usedAsInput && owner != nil {
		s.nodes[n].addDependent(owner)
	}
	return pin
}

// ConnectPins connects pins a and b and returns the node they share. If they
// already share a node, this is a no-op.
//
// The node with fewer pins is absorbed into the other one: its pins,
// dependents and active drivers are moved over and its id is released.
//
func (s *Simulator) ConnectPins(a, b Pin) Node {
	s.checkPin(a)
	s.checkPin(b)
	na, nb := s.pinNodes[a], s.pinNodes[b]
	if na == nb {
		return na
	}
	if len(s.nodes[na].pins) < len(s.nodes[nb].pins) {
		na, nb = nb, na
	}
	return s.mergeNodes(na, nb)
}

func (s *Simulator) mergeNodes(keep, absorb Node) Node {
	dst, src := &s.nodes[keep], &s.nodes[absorb]
	for _, p := range src.pins {
		s.pinNodes[p] = keep
	}
	dst.pins = append(dst.pins, src.pins...)
	for _, c := range src.dependents {
		dst.addDependent(c)
	}
	for _, p := range src.active {
		dst.activate(p)
	}
	if dst.def == Undefined {
		dst.def = src.def
	}
	s.releaseNode(absorb)
	return keep
}

// WritePin records value as the value driven by pin during the current step.
// The value of the pin's node is resolved once all components have run.
//
// Writing Undefined removes pin from the node's active drivers.
//
func (s *Simulator) WritePin(pin Pin, value Value) {
	s.checkPin(pin)
	n := s.pinNodes[pin]
	s.pinValues[pin] = value
	if value == Undefined {
		s.nodes[n].release(pin)
	} else {
		s.nodes[n].activate(pin)
	}
	if s.writeTime[n] != s.time {
		s.writeTime[n] = s.time
		s.dirtyWrite = append(s.dirtyWrite, n)
	}
	s.values.pending.set(n, s.resolve(n))
}

// resolve computes the value of node n from its active drivers.
//
func (s *Simulator) resolve(n Node) Value {
	m := &s.nodes[n]
	switch len(m.active) {
	case 0:
		return m.def
	case 1:
		return s.pinValues[m.active[0]]
	}
	return Error
}

// ReadPin returns the settled value of pin's node, that is its value at the end
// of the previous step.
//
func (s *Simulator) ReadPin(pin Pin) Value {
	s.checkPin(pin)
	return s.values.settled.get(s.pinNodes[pin])
}

// ReadPinCurrentStep returns the value of pin's node as resolved so far during
// the current step.
//
func (s *Simulator) ReadPinCurrentStep(pin Pin) Value {
	s.checkPin(pin)
	return s.values.pending.get(s.pinNodes[pin])
}

// PinSetDefault sets the value of pin's node when no pin drives it.
//
func (s *Simulator) PinSetDefault(pin Pin, value Value) {
	s.checkPin(pin)
	s.nodes[s.pinNodes[pin]].def = value
}

// PinSetInitialValue immediately sets both the settled and pending values of
// pin's node.
//
func (s *Simulator) PinSetInitialValue(pin Pin, value Value) {
	s.checkPin(pin)
	s.values.force(s.pinNodes[pin], value)
}

// PinNode returns the node pin belongs to.
func (s *Simulator) PinNode(pin Pin) Node {
	s.checkPin(pin)
	return s.pinNodes[pin]
}

// PinOutput returns the last value driven through pin, regardless of the value
// of its node.
//
func (s *Simulator) PinOutput(pin Pin) Value {
	s.checkPin(pin)
	return s.pinValues[pin]
}

// pinReleased returns true if pin does not drive its node and the node has
// been resolved since Init. Init forces node values without resolving them.
//
func (s *Simulator) pinReleased(pin Pin) bool {
	return s.pinValues[pin] == Undefined && s.writeTime[s.pinNodes[pin]] != 0
}

// PinChangedPreviousStep returns true if pin's node changed value during the
// last completed step.
//
func (s *Simulator) PinChangedPreviousStep(pin Pin) bool {
	return s.NodeDirty(s.PinNode(pin))
}

// PinLastChangeTime returns the last time pin's node changed value.
func (s *Simulator) PinLastChangeTime(pin Pin) Timestamp {
	return s.NodeLastChangeTime(s.PinNode(pin))
}

// NodeDirty returns true if node changed value during the last completed step.
//
func (s *Simulator) NodeDirty(node Node) bool {
	s.checkNode(node)
	return s.time > 0 && s.changeTime[node] == s.time
}

// NodeLastChangeTime returns the last time node changed value.
func (s *Simulator) NodeLastChangeTime(node Node) Timestamp {
	s.checkNode(node)
	return s.changeTime[node]
}

// NodeValue returns the settled value of node.
func (s *Simulator) NodeValue(node Node) Value {
	s.checkNode(node)
	return s.values.settled.get(node)
}

// NodePins returns the pins of node. The returned slice must not be modified.
//
func (s *Simulator) NodePins(node Node) []Pin {
	s.checkNode(node)
	return s.nodes[node].pins
}
