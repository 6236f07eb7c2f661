package trace_test

import (
	"bytes"
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/model"
	"github.com/db47h/lsim/trace"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T) *lsim.Instance {
	t.Helper()
	c := model.NewCircuit("clock")
	osc := c.AddOscillator(2, 3)
	out := c.AddConnectorOut("clk", 1, false)
	not := c.AddNotGate()
	nout := c.AddConnectorOut("nclk", 1, false)
	c.ConnectAll(osc.OutputPinID(0), out.InputPinID(0), not.InputPinID(0))
	c.Connect(not.OutputPinID(0), nout.InputPinID(0))
	sim := lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(sim, true)
	require.NoError(t, err)
	sim.Init()
	return inst
}

func TestRecorder(t *testing.T) {
	inst := clock(t)
	r, err := trace.NewRecorder(inst, "clk", "nclk")
	require.NoError(t, err)
	r.Step(10)

	tr := r.Trace()
	assert.Equal(t, 10, tr.Len())
	assert.Equal(t, lsim.Timestamp(2), tr.Start)
	assert.Equal(t, lsim.Timestamp(11), tr.Ticks()[9])
	assert.Equal(t, []int{1, 4, 6, 9}, tr.Signal("clk").Edges())
	assert.Nil(t, tr.Signal("nope"))

	var buf bytes.Buffer
	require.NoError(t, tr.WriteText(&buf))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "clock", buf.Bytes())

	assert.False(t, r.RunUntilStable(2, 5))
	assert.Equal(t, 15, tr.Len())

	r.Reset()
	assert.Equal(t, 0, tr.Len())
	r.Sample()
	assert.Equal(t, inst.Simulator().CurrentTime(), tr.Start)
}

func TestRecorder_ranges(t *testing.T) {
	ctx := model.NewContext(nil)
	c, err := hwlib.Adder(ctx.UserLibrary(), 2)
	require.NoError(t, err)
	sim := lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(sim, true)
	require.NoError(t, err)
	sim.Init()

	r, err := trace.NewRecorder(inst, "A[0..1]", "Y[1..0]", "Co")
	require.NoError(t, err)
	names := make([]string, 0, 5)
	for _, s := range r.Trace().Signals {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"A[0]", "A[1]", "Y[1]", "Y[0]", "Co"}, names)

	require.NoError(t, inst.WritePort("A[0]", lsim.True))
	require.NoError(t, inst.WritePort("B[0]", lsim.True))
	assert.True(t, r.RunUntilStable(2, 100))
	tr := r.Trace()
	last := tr.Len() - 1
	assert.Equal(t, lsim.True, tr.Signal("Y[1]").Values[last])
	assert.Equal(t, lsim.False, tr.Signal("Y[0]").Values[last])

	_, err = trace.NewRecorder(inst, "nope")
	assert.True(t, lsim.IsNotFound(err))
	_, err = trace.NewRecorder(inst, "A[x..1]")
	assert.Error(t, err)
}

func TestParseSignal(t *testing.T) {
	s, err := trace.ParseSignal("x", "01UE")
	require.NoError(t, err)
	assert.Equal(t, []lsim.Value{lsim.False, lsim.True, lsim.Undefined, lsim.Error}, s.Values)
	assert.Equal(t, "01UE", s.String())
	_, err = trace.ParseSignal("x", "012")
	assert.Error(t, err)
}
