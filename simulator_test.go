package lsim_test

import (
	"testing"

	"github.com/db47h/lsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// desc is a minimal component description.
type desc struct {
	id                        uint32
	typ                       lsim.ComponentType
	inputs, outputs, controls int
	props                     map[string]lsim.Value
}

func (d *desc) ID() uint32                { return d.id }
func (d *desc) Type() lsim.ComponentType  { return d.typ }
func (d *desc) NumInputs() int            { return d.inputs }
func (d *desc) NumOutputs() int           { return d.outputs }
func (d *desc) NumControls() int          { return d.controls }
func (d *desc) PropertyInt(string, int64) int64 { return 0 }
func (d *desc) PropertyBool(_ string, def bool) bool {
	return def
}
func (d *desc) PropertyString(_ string, def string) string { return def }
func (d *desc) PropertyValue(key string, def lsim.Value) lsim.Value {
	if v, ok := d.props[key]; ok {
		return v
	}
	return def
}

const (
	typeDriver  lsim.ComponentType = 0x9000 // drives its "value" property once
	typeCounter lsim.ComponentType = 0x9001 // counts steps
	typeInv     lsim.ComponentType = 0x9002 // inverter
)

func driver(sim *lsim.Simulator, c *lsim.Component) {
	c.WritePin(c.OutputPinIndex(0), c.Descriptor().PropertyValue("value", lsim.Undefined))
	sim.DeactivateIndependent(c)
}

func testRegistry(counter *int) *lsim.Registry {
	r := lsim.NewRegistry()
	r.Register(typeDriver, lsim.Behavior{Independent: driver})
	r.Register(typeCounter, lsim.Behavior{
		Setup:       func(sim *lsim.Simulator, c *lsim.Component) { *counter = 0 },
		Independent: func(sim *lsim.Simulator, c *lsim.Component) { *counter++ },
	})
	r.Register(typeInv, lsim.Behavior{InputChanged: func(sim *lsim.Simulator, c *lsim.Component) {
		c.WritePin(1, c.ReadPin(0).Not())
	}})
	return r
}

func newDriver(sim *lsim.Simulator, id uint32, v lsim.Value) *lsim.Component {
	return sim.CreateComponent(&desc{id: id, typ: typeDriver, outputs: 1, props: map[string]lsim.Value{"value": v}})
}

func TestNew_nilRegistry(t *testing.T) {
	assert.Panics(t, func() { lsim.New(nil) })
}

func TestConnectPins(t *testing.T) {
	var n int
	sim := lsim.New(testRegistry(&n))
	a := newDriver(sim, 0, lsim.True)
	b := sim.CreateComponent(&desc{id: 1, typ: typeInv, inputs: 1, outputs: 1})
	c := sim.CreateComponent(&desc{id: 2, typ: typeInv, inputs: 1, outputs: 1})
	require.Equal(t, 5, sim.NumPins())
	require.Equal(t, 5, sim.NumNodes())

	pa, pb, pc := a.Pin(0), b.Pin(0), c.Pin(0)
	n1 := sim.ConnectPins(pa, pb)
	assert.Equal(t, n1, sim.PinNode(pa))
	assert.Equal(t, n1, sim.PinNode(pb))
	assert.Equal(t, 4, sim.NumNodes())

	// connecting twice is a no-op
	assert.Equal(t, n1, sim.ConnectPins(pb, pa))
	assert.Equal(t, 4, sim.NumNodes())

	// the larger node absorbs the smaller one
	n2 := sim.ConnectPins(pc, pa)
	assert.Equal(t, n1, n2)
	assert.ElementsMatch(t, []lsim.Pin{pa, pb, pc}, sim.NodePins(n1))
	assert.Equal(t, 3, sim.NumNodes())

	sim.Init()
	sim.Step()
	assert.Equal(t, lsim.True, sim.ReadPin(pc))
	sim.Step()
	assert.Equal(t, lsim.False, sim.ReadPin(b.Pin(1)))
	assert.Equal(t, lsim.False, sim.ReadPin(c.Pin(1)))
}

func TestMultipleDrivers(t *testing.T) {
	td := []struct {
		name   string
		values []lsim.Value
		out    lsim.Value
	}{
		{"none", nil, lsim.False}, // Init value, never written
		{"one", []lsim.Value{lsim.True}, lsim.True},
		{"two", []lsim.Value{lsim.True, lsim.False}, lsim.Error},
		{"two same", []lsim.Value{lsim.True, lsim.True}, lsim.Error},
		{"one released", []lsim.Value{lsim.True, lsim.Undefined}, lsim.True},
		{"error", []lsim.Value{lsim.Error}, lsim.Error},
	}
	for _, d := range td {
		d := d
		t.Run(d.name, func(t *testing.T) {
			var n int
			sim := lsim.New(testRegistry(&n))
			inv := sim.CreateComponent(&desc{id: 100, typ: typeInv, inputs: 1, outputs: 1})
			for i, v := range d.values {
				c := newDriver(sim, uint32(i), v)
				sim.ConnectPins(c.Pin(0), inv.Pin(0))
			}
			sim.Init()
			sim.Step()
			assert.Equal(t, d.out, sim.ReadPin(inv.Pin(0)))
			// drivers stay active after going idle
			require.True(t, sim.RunUntilStableMax(2, 10))
			assert.Equal(t, d.out, sim.ReadPin(inv.Pin(0)))
		})
	}
}

// external drives the value pointed to by its extra data when activated.
type external struct {
	v       lsim.Value
	current lsim.Value // node value seen right after writing
}

func (e *external) independent(sim *lsim.Simulator, c *lsim.Component) {
	pin := c.Pin(c.OutputPinIndex(0))
	c.WritePin(c.OutputPinIndex(0), e.v)
	e.current = sim.ReadPinCurrentStep(pin)
	sim.DeactivateIndependent(c)
}

func TestDefaultValue(t *testing.T) {
	const typeExt lsim.ComponentType = 0x9010
	ext := &external{v: lsim.True}
	var n int
	r := testRegistry(&n)
	r.Register(typeExt, lsim.Behavior{Independent: ext.independent})
	sim := lsim.New(r)
	a := sim.CreateComponent(&desc{id: 0, typ: typeExt, outputs: 1})
	inv := sim.CreateComponent(&desc{id: 1, typ: typeInv, inputs: 1, outputs: 1})
	node := sim.ConnectPins(a.Pin(0), inv.Pin(0))
	sim.Init()
	sim.PinSetDefault(inv.Pin(0), lsim.False)

	sim.Step()
	assert.Equal(t, lsim.True, sim.NodeValue(node))
	assert.Equal(t, lsim.True, ext.current)
	assert.True(t, sim.NodeDirty(node))
	assert.Equal(t, sim.CurrentTime(), sim.NodeLastChangeTime(node))
	assert.True(t, sim.PinChangedPreviousStep(inv.Pin(0)))
	assert.Equal(t, lsim.True, sim.PinOutput(a.Pin(0)))

	// release: the node falls back to its default value
	ext.v = lsim.Undefined
	sim.ActivateIndependent(a)
	sim.Step()
	assert.Equal(t, lsim.False, ext.current)
	assert.Equal(t, lsim.False, sim.NodeValue(node))
	assert.Equal(t, lsim.Undefined, sim.PinOutput(a.Pin(0)))

	sim.Step()
	assert.False(t, sim.NodeDirty(node))
}

func TestReleaseAfterInit(t *testing.T) {
	const typeExt lsim.ComponentType = 0x9010
	ext := &external{v: lsim.Undefined}
	var n int
	r := testRegistry(&n)
	r.Register(typeExt, lsim.Behavior{Independent: ext.independent})
	sim := lsim.New(r)
	a := sim.CreateComponent(&desc{id: 0, typ: typeExt, outputs: 1})
	node := sim.PinNode(a.Pin(0))
	for i := 0; i < 2; i++ {
		sim.Init()
		sim.PinSetDefault(a.Pin(0), lsim.True)
		assert.Equal(t, lsim.False, sim.NodeValue(node))

		// the first release after Init resolves the node
		sim.Step()
		assert.Equal(t, lsim.True, sim.NodeValue(node), "init %d", i)
		assert.True(t, sim.NodeDirty(node))

		// further releases are no-ops
		sim.ActivateIndependent(a)
		sim.Step()
		assert.Equal(t, lsim.True, sim.NodeValue(node))
		assert.False(t, sim.NodeDirty(node))
	}
}

func TestIndependent(t *testing.T) {
	var n int
	sim := lsim.New(testRegistry(&n))
	c := sim.CreateComponent(&desc{id: 0, typ: typeCounter})
	sim.Init()
	for i := 0; i < 5; i++ {
		sim.Step()
	}
	assert.Equal(t, 5, n)

	sim.DeactivateIndependent(c)
	sim.Step()
	sim.Step()
	assert.Equal(t, 5, n)

	sim.ActivateIndependent(c)
	sim.ActivateIndependent(c)
	sim.Step()
	assert.Equal(t, 6, n, "activating twice runs once")

	// Init restarts independents and runs setup
	sim.DeactivateIndependent(c)
	sim.Init()
	assert.Equal(t, 0, n)
	sim.Step()
	assert.Equal(t, 1, n)
}

func TestRunUntilStable(t *testing.T) {
	var n int
	sim := lsim.New(testRegistry(&n))
	a := newDriver(sim, 0, lsim.True)
	prev := a.Pin(0)
	var last *lsim.Component
	// chain of 10 inverters
	for i := 0; i < 10; i++ {
		inv := sim.CreateComponent(&desc{id: uint32(i + 1), typ: typeInv, inputs: 1, outputs: 1})
		sim.ConnectPins(prev, inv.Pin(0))
		prev = inv.Pin(1)
		last = inv
	}
	sim.Init()
	sim.RunUntilStable(2)
	assert.Equal(t, lsim.True, sim.ReadPin(last.Pin(1)))
	t0 := sim.CurrentTime()
	sim.RunUntilStable(3)
	assert.Equal(t, t0+3, sim.CurrentTime(), "a stable circuit runs quiet steps only")
}

func TestRunUntilStableMax_ring(t *testing.T) {
	var n int
	sim := lsim.New(testRegistry(&n))
	// a single inverter looped on itself oscillates
	inv := sim.CreateComponent(&desc{id: 0, typ: typeInv, inputs: 1, outputs: 1})
	node := sim.ConnectPins(inv.Pin(0), inv.Pin(1))
	sim.Init()
	assert.False(t, sim.RunUntilStableMax(2, 100))
	assert.True(t, sim.RunUntilChange(node, 2))
}

func TestCheckPin(t *testing.T) {
	var n int
	sim := lsim.New(testRegistry(&n))
	c := newDriver(sim, 0, lsim.True)
	assert.Panics(t, func() { sim.ReadPin(lsim.Pin(42)) })
	assert.Panics(t, func() { c.Pin(1) })
	assert.Panics(t, func() { sim.NodeValue(lsim.NodeInvalid) })
	assert.Panics(t, func() { c.SetUserValue(0, lsim.True) }, "user values not enabled")
}

func TestClearComponents(t *testing.T) {
	var n int
	sim := lsim.New(testRegistry(&n))
	newDriver(sim, 0, lsim.True)
	sim.CreateComponent(&desc{id: 1, typ: typeCounter})
	sim.Init()
	sim.Step()
	sim.ClearComponents()
	assert.Equal(t, 0, sim.NumComponents())
	assert.Equal(t, 0, sim.NumPins())
	assert.Equal(t, 0, sim.NumNodes())
	assert.Equal(t, lsim.Timestamp(0), sim.CurrentTime())
}
