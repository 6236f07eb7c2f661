// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
)

// Mux adds a bus multiplexer named "mux_<bits>" to lib, or returns the
// existing one. The inputs are gated by two tri-state buffers sharing the
// output bus; the bus is pulled low while the selector is undefined.
//
//	Inputs: A[bits], B[bits], Sel
//	Outputs: Y[bits]
//	Function: if Sel == 0 { Y = A } else { Y = B }
//
func Mux(lib *model.Library, bits int) (*model.Circuit, error) {
	if bits < 1 {
		return nil, errors.Errorf("mux needs at least one bit, got %d", bits)
	}
	c, ok, err := existing(lib, "mux_"+strconv.Itoa(bits))
	if ok || err != nil {
		return c, err
	}
	a := c.AddConnectorIn(pA, bits, false)
	b := c.AddConnectorIn(pB, bits, false)
	sel := c.AddConnectorIn(pSel, 1, false)
	y := c.AddConnectorOut(pY, bits, false)

	ta := c.AddTristateBuffer(bits)
	tb := c.AddTristateBuffer(bits)
	not := c.AddNotGate()
	c.ConnectAll(sel.OutputPinID(0), not.InputPinID(0), tb.ControlPinID(0))
	c.Connect(not.OutputPinID(0), ta.ControlPinID(0))
	for i := 0; i < bits; i++ {
		pull := c.AddPullResistor(lsim.False)
		c.Connect(a.OutputPinID(i), ta.InputPinID(i))
		c.Connect(b.OutputPinID(i), tb.InputPinID(i))
		c.ConnectAll(ta.OutputPinID(i), tb.OutputPinID(i), pull.OutputPinID(0), y.InputPinID(i))
	}
	return c, nil
}
