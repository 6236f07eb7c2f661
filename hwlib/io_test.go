package hwlib_test

import (
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantiate(t *testing.T, c *model.Circuit) (*lsim.Simulator, *lsim.Instance) {
	t.Helper()
	sim := lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(sim, true)
	require.NoError(t, err)
	sim.Init()
	return sim, inst
}

func readPort(t *testing.T, inst *lsim.Instance, name string) lsim.Value {
	t.Helper()
	v, err := inst.ReadPort(name)
	require.NoError(t, err)
	return v
}

func TestConstant(t *testing.T) {
	td := []struct {
		name   string
		values []lsim.Value
		out    lsim.Value
	}{
		{"false", []lsim.Value{_0}, _0},
		{"true", []lsim.Value{_1}, _1},
		{"conflict", []lsim.Value{_0, _1}, _E},
		{"same value", []lsim.Value{_1, _1}, _E},
	}
	for _, d := range td {
		d := d
		t.Run(d.name, func(t *testing.T) {
			c := model.NewCircuit("const")
			out := c.AddConnectorOut("out", 1, false)
			w := c.CreateWire()
			w.AddPin(out.InputPinID(0))
			for _, v := range d.values {
				w.AddPin(c.AddConstant(v).OutputPinID(0))
			}
			sim, inst := instantiate(t, c)
			sim.Step()
			assert.Equal(t, d.out, readPort(t, inst, "out"))
			// constants keep driving once idle
			require.True(t, sim.RunUntilStableMax(3, maxTicks))
			assert.Equal(t, d.out, readPort(t, inst, "out"))
		})
	}
}

func TestPullResistor(t *testing.T) {
	for _, pull := range []lsim.Value{_0, _1} {
		c := model.NewCircuit("pull")
		in := c.AddConnectorIn("in", 1, true)
		out := c.AddConnectorOut("out", 1, false)
		r := c.AddPullResistor(pull)
		c.ConnectAll(in.OutputPinID(0), r.OutputPinID(0), out.InputPinID(0))
		sim, inst := instantiate(t, c)

		// undriven node takes the pull value from the start
		assert.Equal(t, pull, readPort(t, inst, "out"))
		require.True(t, sim.RunUntilStableMax(2, maxTicks))
		assert.Equal(t, pull, readPort(t, inst, "out"))

		other := pull.Not()
		require.NoError(t, inst.WritePort("in", other))
		require.True(t, sim.RunUntilStableMax(2, maxTicks))
		assert.Equal(t, other, readPort(t, inst, "out"))

		require.NoError(t, inst.WritePort("in", _U))
		require.True(t, sim.RunUntilStableMax(2, maxTicks))
		assert.Equal(t, pull, readPort(t, inst, "out"), "pull_to %v", pull)
	}
}

func TestConnectorIn(t *testing.T) {
	c := model.NewCircuit("conn")
	c.AddConnectorIn("in", 1, false)
	c.AddConnectorIn("tri", 1, true)
	sim, inst := instantiate(t, c)

	id, err := inst.PortPinID("in")
	require.NoError(t, err)
	assert.Equal(t, _0, inst.UserValue(id), "non tri-state inputs start low")
	id, err = inst.PortPinID("tri")
	require.NoError(t, err)
	assert.Equal(t, _U, inst.UserValue(id))

	require.NoError(t, inst.WritePort("in", _1))
	sim.Step()
	assert.Equal(t, _1, readPort(t, inst, "in"))
	require.NoError(t, inst.WritePort("in", _E))
	sim.Step()
	assert.Equal(t, _E, readPort(t, inst, "in"))

	_, err = inst.ReadPort("nope")
	require.Error(t, err)
	assert.True(t, lsim.IsNotFound(err))
}

func TestOscillator(t *testing.T) {
	c := model.NewCircuit("clock")
	osc := c.AddOscillator(2, 3)
	out := c.AddConnectorOut("clk", 1, false)
	c.Connect(osc.OutputPinID(0), out.InputPinID(0))
	sim, inst := instantiate(t, c)

	exp := []lsim.Value{_0, _1, _1, _1, _0, _0, _1, _1, _1, _0}
	for i, v := range exp {
		sim.Step()
		if got := readPort(t, inst, "clk"); got != v {
			t.Errorf("step %d: expected %v, got %v", i+1, v, got)
		}
	}

	assert.False(t, sim.RunUntilStableMax(3, 50), "an oscillator never settles")
	node := inst.PinNode(out.InputPinID(0))
	assert.True(t, sim.RunUntilChange(node, 4))
}

func TestLED(t *testing.T) {
	c := model.NewCircuit("display")
	seg := c.AddConnectorIn("seg", 8, false)
	on := c.AddConstant(_1)
	led := c.AddSevenSegmentLED()
	for i := 0; i < hwlib.LEDSegments; i++ {
		c.Connect(seg.OutputPinID(i), led.InputPinID(i))
	}
	c.Connect(on.OutputPinID(0), led.ControlPinID(0))
	sim, inst := instantiate(t, c)

	pins := bus(t, inst, "seg", 8)
	inst.WriteByte(pins, 0x05)
	for i := 0; i < 10; i++ {
		sim.Step()
	}
	comp := inst.Component(led.ID())
	require.NotNil(t, comp)
	b := hwlib.LEDBrightness(comp)
	assert.Equal(t, [hwlib.LEDSegments]float64{1, 0, 1, 0, 0, 0, 0, 0}, b)
	// accumulators are reset
	assert.Equal(t, [hwlib.LEDSegments]float64{}, hwlib.LEDBrightness(comp))
}

func TestReadUint(t *testing.T) {
	c := model.NewCircuit("wide")
	c.AddConnectorIn("A", 65, false)
	sim, inst := instantiate(t, c)
	pins := bus(t, inst, "A", 65)

	inst.WritePin(pins[0], _1)
	inst.WritePin(pins[63], _1)
	require.True(t, sim.RunUntilStableMax(2, maxTicks))
	v, ok := hwlib.ReadUint(inst, pins[:64])
	assert.True(t, ok)
	assert.Equal(t, uint64(1<<63|1), v)

	inst.WritePin(pins[2], _U)
	require.True(t, sim.RunUntilStableMax(2, maxTicks))
	v, ok = hwlib.ReadUint(inst, pins[:4])
	assert.False(t, ok)
	assert.Equal(t, uint64(1), v)

	assert.Panics(t, func() { hwlib.ReadUint(inst, pins) })
}
