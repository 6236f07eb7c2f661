// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides the behaviors of the built-in lsim components and a
// library of reusable circuits built from them.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import "github.com/db47h/lsim"

// Buffer forwards each input to the matching output.
//
//	Inputs: in[n]
//	Outputs: out[n]
//	Function: out[i] = in[i]
//
func Buffer(sim *lsim.Simulator, c *lsim.Component) {
	for i := 0; i < c.NumInputs(); i++ {
		c.WritePin(c.OutputPinIndex(i), c.ReadPin(c.InputPinIndex(i)))
	}
}

// TristateBuffer behaves like Buffer while its control pin is True. Otherwise
// it releases its outputs.
//
//	Inputs: in[n]
//	Outputs: out[n]
//	Controls: en
//	Function: if en == 1 { out[i] = in[i] } else { out[i] = U }
//
func TristateBuffer(sim *lsim.Simulator, c *lsim.Component) {
	if c.ReadPin(c.ControlPinIndex(0)) != lsim.True {
		for i := 0; i < c.NumOutputs(); i++ {
			c.WritePin(c.OutputPinIndex(i), lsim.Undefined)
		}
		return
	}
	Buffer(sim, c)
}

// gate combines all the inputs of a component with op. If any input is
// neither True nor False, the output is Error.
//
type gate struct {
	op  func(a, b bool) bool
	neg bool
}

func (g gate) inputChanged(sim *lsim.Simulator, c *lsim.Component) {
	c.ResetBadRead()
	out := c.ReadPinChecked(0)
	for i := 1; i < c.NumInputs(); i++ {
		out = g.op(out, c.ReadPinChecked(i))
	}
	c.WritePinChecked(c.OutputPinIndex(0), out != g.neg)
}

var (
	and  = gate{op: func(a, b bool) bool { return a && b }}
	or   = gate{op: func(a, b bool) bool { return a || b }}
	nand = gate{op: and.op, neg: true}
	nor  = gate{op: or.op, neg: true}
)

// And is the behavior of AND gates.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = in[0] && in[1] && ... && in[n-1]
//
func And(sim *lsim.Simulator, c *lsim.Component) { and.inputChanged(sim, c) }

// Or is the behavior of OR gates.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = in[0] || in[1] || ... || in[n-1]
//
func Or(sim *lsim.Simulator, c *lsim.Component) { or.inputChanged(sim, c) }

// Nand is the behavior of NAND gates.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = !(in[0] && in[1] && ... && in[n-1])
//
func Nand(sim *lsim.Simulator, c *lsim.Component) { nand.inputChanged(sim, c) }

// Nor is the behavior of NOR gates.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = !(in[0] || in[1] || ... || in[n-1])
//
func Nor(sim *lsim.Simulator, c *lsim.Component) { nor.inputChanged(sim, c) }

// Not is the behavior of inverters.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(sim *lsim.Simulator, c *lsim.Component) {
	c.ResetBadRead()
	in := c.ReadPinChecked(0)
	c.WritePinChecked(1, !in)
}

// Xor is the behavior of 2-input XOR gates.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a != b
//
func Xor(sim *lsim.Simulator, c *lsim.Component) {
	c.ResetBadRead()
	a, b := c.ReadPinChecked(0), c.ReadPinChecked(1)
	c.WritePinChecked(2, a != b)
}

// Xnor is the behavior of 2-input XNOR gates.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a == b
//
func Xnor(sim *lsim.Simulator, c *lsim.Component) {
	c.ResetBadRead()
	a, b := c.ReadPinChecked(0), c.ReadPinChecked(1)
	c.WritePinChecked(2, a == b)
}
