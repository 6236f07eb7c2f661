// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
)

// common port names
const (
	pA   = "A"
	pB   = "B"
	pCi  = "Ci"
	pCo  = "Co"
	pY   = "Y"
	pSel = "Sel"
)

func port(comp *model.Component, name string) lsim.PinID {
	id := comp.PortByName(name)
	if id == lsim.PinIDInvalid {
		panic("no port " + name + " on " + comp.NestedName())
	}
	return id
}

// existing returns the named circuit if lib already has it.
func existing(lib *model.Library, name string) (*model.Circuit, bool, error) {
	if c := lib.CircuitByName(name); c != nil {
		return c, true, nil
	}
	c, err := lib.CreateCircuit(name)
	return c, false, err
}

// HalfAdder adds a half adder circuit named "half_adder" to lib, or returns
// the existing one.
//
//	Inputs: A, B
//	Outputs: Y, Co
//	Function: Y = lsb(A + B)
//	          Co = msb(A + B)
//
func HalfAdder(lib *model.Library) (*model.Circuit, error) {
	c, ok, err := existing(lib, "half_adder")
	if ok || err != nil {
		return c, err
	}
	a := c.AddConnectorIn(pA, 1, false)
	b := c.AddConnectorIn(pB, 1, false)
	y := c.AddConnectorOut(pY, 1, false)
	co := c.AddConnectorOut(pCo, 1, false)
	xor := c.AddXorGate()
	and := c.AddAndGate(2)
	c.ConnectAll(a.OutputPinID(0), xor.InputPinID(0), and.InputPinID(0))
	c.ConnectAll(b.OutputPinID(0), xor.InputPinID(1), and.InputPinID(1))
	c.Connect(xor.OutputPinID(0), y.InputPinID(0))
	c.Connect(and.OutputPinID(0), co.InputPinID(0))
	return c, nil
}

// FullAdder adds a full adder circuit named "full_adder", built from two half
// adders, to lib or returns the existing one.
//
//	Inputs: A, B, Ci
//	Outputs: Y, Co
//	Function: Y = lsb(A + B + Ci)
//	          Co = msb(A + B + Ci)
//
func FullAdder(lib *model.Library) (*model.Circuit, error) {
	c, ok, err := existing(lib, "full_adder")
	if ok || err != nil {
		return c, err
	}
	if _, err = HalfAdder(lib); err != nil {
		return nil, err
	}
	a := c.AddConnectorIn(pA, 1, false)
	b := c.AddConnectorIn(pB, 1, false)
	ci := c.AddConnectorIn(pCi, 1, false)
	y := c.AddConnectorOut(pY, 1, false)
	co := c.AddConnectorOut(pCo, 1, false)
	h0, err := c.AddSubCircuit("half_adder")
	if err != nil {
		return nil, err
	}
	h1, err := c.AddSubCircuit("half_adder")
	if err != nil {
		return nil, err
	}
	or := c.AddOrGate(2)
	c.Connect(a.OutputPinID(0), port(h0, pA))
	c.Connect(b.OutputPinID(0), port(h0, pB))
	c.Connect(port(h0, pY), port(h1, pA))
	c.Connect(ci.OutputPinID(0), port(h1, pB))
	c.Connect(port(h1, pY), y.InputPinID(0))
	c.Connect(port(h0, pCo), or.InputPinID(0))
	c.Connect(port(h1, pCo), or.InputPinID(1))
	c.Connect(or.OutputPinID(0), co.InputPinID(0))
	return c, nil
}

// Adder adds an n-bit ripple carry adder named "adder_<bits>", built from full
// adders, to lib or returns the existing one.
//
//	Inputs: A[bits], B[bits], Ci
//	Outputs: Y[bits], Co
//	Function: Y = lsb(A + B + Ci)
//	          Co = carry out
//
func Adder(lib *model.Library, bits int) (*model.Circuit, error) {
	if bits < 1 {
		return nil, errors.Errorf("adder needs at least one bit, got %d", bits)
	}
	c, ok, err := existing(lib, "adder_"+strconv.Itoa(bits))
	if ok || err != nil {
		return c, err
	}
	if _, err = FullAdder(lib); err != nil {
		return nil, err
	}
	return c, chain(c, "full_adder", 1, bits)
}

// CascadeAdder adds an adder named "<stage>_x<n>" made of n sub-circuits of the
// adder circuit stage, to lib or returns the existing one. The stage circuit
// must have the ports of an Adder.
//
func CascadeAdder(lib *model.Library, stage *model.Circuit, n int) (*model.Circuit, error) {
	in := len(stage.InputPorts())
	if in < 3 || in%2 == 0 {
		return nil, errors.Errorf("%q does not look like an adder", stage.Name())
	}
	if n < 1 {
		return nil, errors.Errorf("cascade needs at least one stage, got %d", n)
	}
	c, ok, err := existing(lib, stage.Name()+"_x"+strconv.Itoa(n))
	if ok || err != nil {
		return c, err
	}
	name := stage.QualifiedName()
	if stage.Library() == lib {
		name = stage.Name()
	}
	return c, chain(c, name, (in-1)/2, n)
}

// chain builds a ripple adder of n stages of stageBits bits each.
func chain(c *model.Circuit, stage string, stageBits, n int) error {
	bits := stageBits * n
	a := c.AddConnectorIn(pA, bits, false)
	b := c.AddConnectorIn(pB, bits, false)
	ci := c.AddConnectorIn(pCi, 1, false)
	y := c.AddConnectorOut(pY, bits, false)
	co := c.AddConnectorOut(pCo, 1, false)

	pin := func(name string, i int) string {
		if stageBits == 1 {
			return name
		}
		return model.BusPinName(name, i)
	}

	carry := ci.OutputPinID(0)
	for s := 0; s < n; s++ {
		sub, err := c.AddSubCircuit(stage)
		if err != nil {
			return err
		}
		for i := 0; i < stageBits; i++ {
			bit := s*stageBits + i
			c.Connect(a.OutputPinID(bit), port(sub, pin(pA, i)))
			c.Connect(b.OutputPinID(bit), port(sub, pin(pB, i)))
			c.Connect(port(sub, pin(pY, i)), y.InputPinID(bit))
		}
		c.Connect(carry, port(sub, pCi))
		carry = port(sub, pCo)
	}
	c.Connect(carry, co.InputPinID(0))
	return nil
}
