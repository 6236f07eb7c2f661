package lsim

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pin is a connection point of a simulated component, allocated by the
// Simulator.
//
type Pin uint32

// Node is an electrical net: a set of pins that always share the same value.
//
type Node uint32

// Timestamp counts simulation steps.
//
type Timestamp uint64

// Invalid identifiers.
//
const (
	PinInvalid  Pin  = math.MaxUint32
	NodeInvalid Node = math.MaxUint32
)

// PinID is a structural pin identifier: the id of a model component in the
// upper 32 bits and the pin index in the lower 32 bits. PinIDs do not depend on
// any simulator instantiation.
//
type PinID uint64

// PinIDInvalid denotes an unresolved or missing pin.
//
const PinIDInvalid PinID = math.MaxUint64

// MakePinID returns the PinID of pin index of component comp.
//
func MakePinID(comp, index uint32) PinID {
	return PinID(uint64(comp)<<32 | uint64(index))
}

// Component returns the component id part of id.
func (id PinID) Component() uint32 { return uint32(id >> 32) }

// Index returns the pin index part of id.
func (id PinID) Index() uint32 { return uint32(id) }

// String returns id in the "<component>#<index>" form.
//
func (id PinID) String() string {
	if id == PinIDInvalid {
		return "invalid"
	}
	return strconv.FormatUint(uint64(id.Component()), 10) + "#" + strconv.FormatUint(uint64(id.Index()), 10)
}

// ParsePinID parses a pin id in the "<component>#<index>" form.
//
func ParsePinID(s string) (PinID, error) {
	s = strings.TrimSpace(s)
	if s == "invalid" {
		return PinIDInvalid, nil
	}
	i := strings.IndexByte(s, '#')
	if i < 0 {
		return PinIDInvalid, errors.Errorf("malformed pin id %q", s)
	}
	c, err := strconv.ParseUint(s[:i], 10, 32)
	if err != nil {
		return PinIDInvalid, errors.Wrapf(err, "malformed pin id %q", s)
	}
	n, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return PinIDInvalid, errors.Wrapf(err, "malformed pin id %q", s)
	}
	return MakePinID(uint32(c), uint32(n)), nil
}

// ComponentType identifies the kind of a component. Behaviors are registered
// per ComponentType.
//
type ComponentType uint32

// Built-in component types.
//
const (
	ConnectorIn     ComponentType = 0x0001
	ConnectorOut    ComponentType = 0x0002
	Constant        ComponentType = 0x0003
	PullResistor    ComponentType = 0x0004
	Buffer          ComponentType = 0x0011
	TristateBuffer  ComponentType = 0x0012
	AndGate         ComponentType = 0x0013
	OrGate          ComponentType = 0x0014
	NotGate         ComponentType = 0x0015
	NandGate        ComponentType = 0x0016
	NorGate         ComponentType = 0x0017
	XorGate         ComponentType = 0x0018
	XnorGate        ComponentType = 0x0019
	Via             ComponentType = 0x0020
	Oscillator      ComponentType = 0x0021
	SevenSegmentLED ComponentType = 0x0101
	SubCircuit      ComponentType = 0x1001
	Text            ComponentType = 0x2001
)

var typeNames = map[ComponentType]string{
	ConnectorIn:     "connector_in",
	ConnectorOut:    "connector_out",
	Constant:        "constant",
	PullResistor:    "pull_resistor",
	Buffer:          "buffer",
	TristateBuffer:  "tristate_buffer",
	AndGate:         "and",
	OrGate:          "or",
	NotGate:         "not",
	NandGate:        "nand",
	NorGate:         "nor",
	XorGate:         "xor",
	XnorGate:        "xnor",
	Via:             "via",
	Oscillator:      "oscillator",
	SevenSegmentLED: "7segment_led",
	SubCircuit:      "sub_circuit",
	Text:            "text",
}

func (t ComponentType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "type_0x" + strconv.FormatUint(uint64(t), 16)
}

// ParseComponentType returns the ComponentType for the given name, as returned
// by ComponentType.String.
//
func ParseComponentType(name string) (ComponentType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	if strings.HasPrefix(name, "type_0x") {
		v, err := strconv.ParseUint(name[len("type_0x"):], 16, 32)
		if err == nil {
			return ComponentType(v), nil
		}
	}
	return 0, errors.Wrapf(ErrNotFound, "component type %q", name)
}
