package lsim_test

import (
	"fmt"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/model"
)

// mux2 holds the ports of a 2 bits multiplexer.
//
type mux2 struct {
	A   [2]lsim.PinID `lsim:"port"`     // input bus "A"
	B   [2]lsim.PinID `lsim:"port"`     // input bus "B"
	S   lsim.PinID    `lsim:"port,Sel"` // the second tag value sets the port name
	Out [2]lsim.PinID `lsim:"port,Y"`
}

// BindPorts example with the hwlib multiplexer.
func ExampleBindPorts() {
	ctx := model.NewContext(nil)
	c, err := hwlib.Mux(ctx.UserLibrary(), 2)
	if err != nil {
		panic(err)
	}
	sim := lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(sim, true)
	if err != nil {
		panic(err)
	}
	var m mux2
	if err = lsim.BindPorts(inst, &m); err != nil {
		panic(err)
	}
	sim.Init()

	inst.WritePins(m.A[:], 1)
	inst.WritePins(m.B[:], 2)
	for _, sel := range []lsim.Value{lsim.False, lsim.True} {
		inst.WritePin(m.S, sel)
		sim.RunUntilStableMax(2, 100)
		fmt.Printf("sel=%v => out=%d\n", sel, inst.ReadPins(m.Out[:]))
	}

	// Output:
	// sel=0 => out=1
	// sel=1 => out=2
}
