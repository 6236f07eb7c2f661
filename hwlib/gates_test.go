package hwlib_test

import (
	"testing"

	"github.com/db47h/lsim/model"
)

func TestGates(t *testing.T) {
	td := []struct {
		name string
		add  func(c *model.Circuit) *model.Component
		td   []gateCase
	}{
		{"AND", func(c *model.Circuit) *model.Component { return c.AddAndGate(2) }, []gateCase{
			{vs(_0, _0), vs(_0)}, {vs(_0, _1), vs(_0)}, {vs(_1, _0), vs(_0)}, {vs(_1, _1), vs(_1)},
			{vs(_1, _U), vs(_E)}, {vs(_0, _E), vs(_E)}, {vs(_U, _U), vs(_E)},
		}},
		{"OR", func(c *model.Circuit) *model.Component { return c.AddOrGate(2) }, []gateCase{
			{vs(_0, _0), vs(_0)}, {vs(_0, _1), vs(_1)}, {vs(_1, _0), vs(_1)}, {vs(_1, _1), vs(_1)},
			{vs(_1, _U), vs(_E)}, {vs(_E, _1), vs(_E)},
		}},
		{"NAND", func(c *model.Circuit) *model.Component { return c.AddNandGate(2) }, []gateCase{
			{vs(_0, _0), vs(_1)}, {vs(_0, _1), vs(_1)}, {vs(_1, _0), vs(_1)}, {vs(_1, _1), vs(_0)},
			{vs(_U, _1), vs(_E)},
		}},
		{"NOR", func(c *model.Circuit) *model.Component { return c.AddNorGate(2) }, []gateCase{
			{vs(_0, _0), vs(_1)}, {vs(_0, _1), vs(_0)}, {vs(_1, _0), vs(_0)}, {vs(_1, _1), vs(_0)},
			{vs(_0, _E), vs(_E)},
		}},
		{"XOR", func(c *model.Circuit) *model.Component { return c.AddXorGate() }, []gateCase{
			{vs(_0, _0), vs(_0)}, {vs(_0, _1), vs(_1)}, {vs(_1, _0), vs(_1)}, {vs(_1, _1), vs(_0)},
			{vs(_1, _U), vs(_E)},
		}},
		{"XNOR", func(c *model.Circuit) *model.Component { return c.AddXnorGate() }, []gateCase{
			{vs(_0, _0), vs(_1)}, {vs(_0, _1), vs(_0)}, {vs(_1, _0), vs(_0)}, {vs(_1, _1), vs(_1)},
			{vs(_E, _0), vs(_E)},
		}},
		{"NOT", func(c *model.Circuit) *model.Component { return c.AddNotGate() }, []gateCase{
			{vs(_0), vs(_1)}, {vs(_1), vs(_0)}, {vs(_U), vs(_E)}, {vs(_E), vs(_E)}, {vs(_0), vs(_1)},
		}},
		{"AND4", func(c *model.Circuit) *model.Component { return c.AddAndGate(4) }, []gateCase{
			{vs(_1, _1, _1, _1), vs(_1)}, {vs(_1, _1, _0, _1), vs(_0)}, {vs(_1, _1, _1, _U), vs(_E)},
		}},
		{"OR3", func(c *model.Circuit) *model.Component { return c.AddOrGate(3) }, []gateCase{
			{vs(_0, _0, _0), vs(_0)}, {vs(_0, _0, _1), vs(_1)}, {vs(_1, _U, _0), vs(_E)},
		}},
		{"BUFFER", func(c *model.Circuit) *model.Component { return c.AddBuffer(3) }, []gateCase{
			{vs(_0, _1, _0), vs(_0, _1, _0)}, {vs(_1, _0, _1), vs(_1, _0, _1)}, {vs(_U, _E, _1), vs(_U, _E, _1)},
		}},
		// inputs, then enable
		{"TRISTATE", func(c *model.Circuit) *model.Component { return c.AddTristateBuffer(2) }, []gateCase{
			{vs(_1, _0, _1), vs(_1, _0)}, {vs(_0, _1, _1), vs(_0, _1)}, {vs(_0, _1, _0), vs(_U, _U)},
			{vs(_1, _1, _1), vs(_1, _1)}, {vs(_1, _1, _U), vs(_U, _U)}, {vs(_1, _0, _E), vs(_U, _U)},
		}},
		{"TRISTATE_disabled", func(c *model.Circuit) *model.Component { return c.AddTristateBuffer(2) }, []gateCase{
			{vs(_1, _0, _0), vs(_U, _U)}, {vs(_1, _0, _1), vs(_1, _0)}, {vs(_0, _0, _0), vs(_U, _U)},
		}},
	}

	for _, d := range td {
		d := d
		t.Run(d.name, func(t *testing.T) {
			testGate(t, d.name, d.add, d.td)
		})
	}
}
