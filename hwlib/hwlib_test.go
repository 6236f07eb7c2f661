package hwlib_test

import (
	"strconv"
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/model"
	"github.com/stretchr/testify/require"
)

const (
	_0 = lsim.False
	_1 = lsim.True
	_U = lsim.Undefined
	_E = lsim.Error
)

// maximum number of steps for a test circuit to settle
const maxTicks = 100

type gateCase struct {
	in  []lsim.Value // inputs, then controls
	out []lsim.Value
}

// gateBench wraps a single component with tri-state input connectors "in<i>"
// and output connectors "out<i>".
//
type gateBench struct {
	sim  *lsim.Simulator
	inst *lsim.Instance
	ins  []string
	outs []string
}

func newGateBench(t *testing.T, add func(c *model.Circuit) *model.Component) *gateBench {
	t.Helper()
	c := model.NewCircuit("bench")
	g := add(c)
	b := &gateBench{}
	for i := 0; i < g.NumInputs()+g.NumControls(); i++ {
		name := "in" + strconv.Itoa(i)
		in := c.AddConnectorIn(name, 1, true)
		pin := g.PinID(i)
		if i >= g.NumInputs() {
			pin = g.ControlPinID(i - g.NumInputs())
		}
		c.Connect(in.OutputPinID(0), pin)
		b.ins = append(b.ins, name)
	}
	for i := 0; i < g.NumOutputs(); i++ {
		name := "out" + strconv.Itoa(i)
		out := c.AddConnectorOut(name, 1, false)
		c.Connect(g.OutputPinID(i), out.InputPinID(0))
		b.outs = append(b.outs, name)
	}
	b.sim = lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(b.sim, true)
	require.NoError(t, err)
	b.inst = inst
	b.sim.Init()
	return b
}

func (b *gateBench) apply(t *testing.T, in []lsim.Value) []lsim.Value {
	t.Helper()
	require.Len(t, in, len(b.ins))
	for i, v := range in {
		require.NoError(t, b.inst.WritePort(b.ins[i], v))
	}
	require.True(t, b.sim.RunUntilStableMax(2, maxTicks), "circuit did not settle")
	out := make([]lsim.Value, len(b.outs))
	for i, n := range b.outs {
		v, err := b.inst.ReadPort(n)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func testGate(t *testing.T, name string, add func(c *model.Circuit) *model.Component, td []gateCase) {
	t.Helper()
	b := newGateBench(t, add)
	for _, tc := range td {
		got := b.apply(t, tc.in)
		if !equal(got, tc.out) {
			t.Errorf("%s %v = %v, got %v", name, tc.in, tc.out, got)
		}
	}
}

func equal(a, b []lsim.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func vs(v ...lsim.Value) []lsim.Value { return v }
