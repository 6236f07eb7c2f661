package hwlib_test

import (
	"strconv"
	"testing"
	"testing/quick"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/model"
	"github.com/stretchr/testify/require"
)

type adderBench struct {
	sim     *lsim.Simulator
	inst    *lsim.Instance
	a, b, y []lsim.PinID
	ci, co  lsim.PinID
}

func bus(t *testing.T, inst *lsim.Instance, name string, bits int) []lsim.PinID {
	t.Helper()
	if bits == 1 {
		id, err := inst.PortPinID(name)
		require.NoError(t, err)
		return []lsim.PinID{id}
	}
	names, err := model.ExpandRange(name + "[0.." + strconv.Itoa(bits-1) + "]")
	require.NoError(t, err)
	ids, err := inst.PortPinIDs(names...)
	require.NoError(t, err)
	return ids
}

func newAdderBench(t *testing.T, c *model.Circuit, bits int) *adderBench {
	t.Helper()
	sim := lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(sim, true)
	require.NoError(t, err)
	sim.Init()
	b := &adderBench{sim: sim, inst: inst,
		a: bus(t, inst, "A", bits),
		b: bus(t, inst, "B", bits),
		y: bus(t, inst, "Y", bits),
	}
	b.ci, err = inst.PortPinID("Ci")
	require.NoError(t, err)
	b.co, err = inst.PortPinID("Co")
	require.NoError(t, err)
	return b
}

// add returns the sum and carry out computed by the circuit.
func (b *adderBench) add(t *testing.T, x, y uint64, ci bool) (uint64, bool) {
	t.Helper()
	b.inst.WritePins(b.a, x)
	b.inst.WritePins(b.b, y)
	b.inst.WritePin(b.ci, lsim.ValueOf(ci))
	require.True(t, b.sim.RunUntilStableMax(2, maxTicks), "adder did not settle")
	s, ok := hwlib.ReadUint(b.inst, b.y)
	require.True(t, ok, "undefined sum bit")
	co := b.inst.ReadPin(b.co)
	require.True(t, co.IsBool(), "undefined carry")
	return s, co == lsim.True
}

func TestFullAdder(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	c, err := hwlib.FullAdder(lib)
	require.NoError(t, err)
	b := newAdderBench(t, c, 1)

	// Ci, A, B, Co, Y
	td := [][5]bool{
		{false, false, false, false, false},
		{false, true, false, false, true},
		{false, false, true, false, true},
		{false, true, true, true, false},
		{true, false, false, false, true},
		{true, true, false, true, false},
		{true, false, true, true, false},
		{true, true, true, true, true},
	}
	for _, r := range td {
		var x, y uint64
		if r[1] {
			x = 1
		}
		if r[2] {
			y = 1
		}
		s, co := b.add(t, x, y, r[0])
		if co != r[3] || (s == 1) != r[4] {
			t.Errorf("%v + %v + %v = (%v, %v), got (%v, %v)", r[1], r[2], r[0], r[3], r[4], co, s == 1)
		}
	}
}

func testAdder(t *testing.T, c *model.Circuit, bits uint) {
	b := newAdderBench(t, c, int(bits))
	mask := uint64(1)<<bits - 1
	f := func(x, y uint64, ci bool) bool {
		x &= mask
		y &= mask
		s, co := b.add(t, x, y, ci)
		sum := x + y
		if ci {
			sum++
		}
		return s == sum&mask && co == (sum>>bits != 0)
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 64}); err != nil {
		t.Fatal(err)
	}
}

// sweepAdder checks c against a fixed grid of operands, masked to bits.
func sweepAdder(t *testing.T, c *model.Circuit, bits uint) {
	t.Helper()
	b := newAdderBench(t, c, int(bits))
	mask := uint64(1)<<bits - 1
	for x := uint64(0); x < 256; x += 9 {
		for y := uint64(0); y < 256; y += 12 {
			for _, ci := range []bool{false, true} {
				sum := x&mask + y&mask
				if ci {
					sum++
				}
				s, co := b.add(t, x&mask, y&mask, ci)
				if s != sum&mask || co != (sum>>bits != 0) {
					t.Fatalf("%d + %d + %v = (%d, %v), got (%d, %v)", x&mask, y&mask, ci, sum&mask, sum>>bits != 0, s, co)
				}
			}
		}
	}
}

func TestAdderSweep(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	a4, err := hwlib.Adder(lib, 4)
	require.NoError(t, err)
	a8, err := hwlib.CascadeAdder(lib, a4, 2)
	require.NoError(t, err)

	td := []struct {
		c    *model.Circuit
		bits uint
	}{
		{a4, 4},
		{a8, 8},
	}
	for _, d := range td {
		d := d
		t.Run(d.c.Name(), func(t *testing.T) {
			sweepAdder(t, d.c, d.bits)
		})
	}
}

// reversedFullAdder adds a full adder whose connectors are created outputs
// first and in reverse order.
func reversedFullAdder(t *testing.T, lib *model.Library) *model.Circuit {
	t.Helper()
	_, err := hwlib.HalfAdder(lib)
	require.NoError(t, err)
	c := lib.MustCreateCircuit("full_adder_rev")
	co := c.AddConnectorOut("Co", 1, false)
	y := c.AddConnectorOut("Y", 1, false)
	ci := c.AddConnectorIn("Ci", 1, false)
	b := c.AddConnectorIn("B", 1, false)
	a := c.AddConnectorIn("A", 1, false)
	h0, err := c.AddSubCircuit("half_adder")
	require.NoError(t, err)
	h1, err := c.AddSubCircuit("half_adder")
	require.NoError(t, err)
	or := c.AddOrGate(2)
	c.Connect(a.OutputPinID(0), h0.PortByName("A"))
	c.Connect(b.OutputPinID(0), h0.PortByName("B"))
	c.Connect(h0.PortByName("Y"), h1.PortByName("A"))
	c.Connect(ci.OutputPinID(0), h1.PortByName("B"))
	c.Connect(h1.PortByName("Y"), y.InputPinID(0))
	c.Connect(h0.PortByName("Co"), or.InputPinID(0))
	c.Connect(h1.PortByName("Co"), or.InputPinID(1))
	c.Connect(or.OutputPinID(0), co.InputPinID(0))
	return c
}

func TestAdderConnectorOrder(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	rev := reversedFullAdder(t, lib)
	require.Equal(t, []string{"Ci", "B", "A"}, rev.InputPorts())
	require.Equal(t, []string{"Co", "Y"}, rev.OutputPorts())
	testAdder(t, rev, 1)

	// nested stages are bound by port name, not by position
	a4, err := hwlib.CascadeAdder(lib, rev, 4)
	require.NoError(t, err)
	sweepAdder(t, a4, 4)
}

func TestAdder(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	for _, bits := range []uint{1, 4} {
		bits := bits
		t.Run(strconv.Itoa(int(bits)), func(t *testing.T) {
			c, err := hwlib.Adder(lib, int(bits))
			require.NoError(t, err)
			testAdder(t, c, bits)
		})
	}
}

func TestCascadeAdder(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	a4, err := hwlib.Adder(lib, 4)
	require.NoError(t, err)
	a8, err := hwlib.CascadeAdder(lib, a4, 2)
	require.NoError(t, err)
	require.Equal(t, "adder_4_x2", a8.Name())
	require.Len(t, a8.InputPorts(), 17)
	require.Len(t, a8.OutputPorts(), 9)
	testAdder(t, a8, 8)

	// asking again returns the same circuit
	again, err := hwlib.CascadeAdder(lib, a4, 2)
	require.NoError(t, err)
	require.Same(t, a8, again)

	_, err = hwlib.CascadeAdder(lib, lib.CircuitByName("half_adder"), 2)
	require.Error(t, err)
}

func TestAdderNames(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	_, err := hwlib.Adder(lib, 0)
	require.Error(t, err)
	_, err = hwlib.Adder(lib, 2)
	require.NoError(t, err)
	for _, n := range []string{"half_adder", "full_adder", "adder_2"} {
		require.NotNil(t, lib.CircuitByName(n), n)
	}
}
