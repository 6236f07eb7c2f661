package hwtest_test

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/hwtest"
	"github.com/db47h/lsim/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orGate(t *testing.T, lib *model.Library) *model.Circuit {
	c, err := lib.CreateCircuit("or")
	require.NoError(t, err)
	a := c.AddConnectorIn("a", 1, false)
	b := c.AddConnectorIn("b", 1, false)
	out := c.AddConnectorOut("out", 1, false)
	or := c.AddOrGate(2)
	c.Connect(a.OutputPinID(0), or.InputPinID(0))
	c.Connect(b.OutputPinID(0), or.InputPinID(1))
	c.Connect(or.OutputPinID(0), out.InputPinID(0))
	return c
}

func customOr(t *testing.T, lib *model.Library, name string, last func(c *model.Circuit) *model.Component) *model.Circuit {
	c, err := lib.CreateCircuit(name)
	require.NoError(t, err)
	a := c.AddConnectorIn("a", 1, false)
	b := c.AddConnectorIn("b", 1, false)
	out := c.AddConnectorOut("out", 1, false)
	notA := c.AddNandGate(2)
	notB := c.AddNandGate(2)
	g := last(c)
	c.ConnectAll(a.OutputPinID(0), notA.InputPinID(0), notA.InputPinID(1))
	c.ConnectAll(b.OutputPinID(0), notB.InputPinID(0), notB.InputPinID(1))
	c.Connect(notA.OutputPinID(0), g.InputPinID(0))
	c.Connect(notB.OutputPinID(0), g.InputPinID(1))
	c.Connect(g.OutputPinID(0), out.InputPinID(0))
	return c
}

func TestComparePart(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	or := customOr(t, lib, "custom_or", func(c *model.Circuit) *model.Component { return c.AddNandGate(2) })
	hwtest.ComparePart(t, orGate(t, lib), or)
}

func TestComparePart_adders(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	a4, err := hwlib.Adder(lib, 4)
	require.NoError(t, err)
	a2, err := hwlib.Adder(lib, 2)
	require.NoError(t, err)
	a2x2, err := hwlib.CascadeAdder(lib, a2, 2)
	require.NoError(t, err)
	hwtest.ComparePart(t, a4, a2x2)
}

// fatalTB records the first fatal error of a test helper.
type fatalTB struct {
	testing.TB
	msg string
}

func (f *fatalTB) Helper()                   {}
func (f *fatalTB) Logf(string, ...any)       {}
func (f *fatalTB) Fatal(args ...any)         { f.msg = fmt.Sprint(args...); runtime.Goexit() }
func (f *fatalTB) Fatalf(s string, a ...any) { f.msg = fmt.Sprintf(s, a...); runtime.Goexit() }

// expectFatal runs fn with a fatalTB and returns the fatal message.
func expectFatal(t *testing.T, fn func(tb testing.TB)) string {
	f := &fatalTB{TB: t}
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(f)
	}()
	<-done
	return f.msg
}

func TestComparePart_mismatch(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	or := orGate(t, lib)
	and := customOr(t, lib, "not_an_or", func(c *model.Circuit) *model.Component { return c.AddAndGate(2) })
	msg := expectFatal(t, func(tb testing.TB) { hwtest.ComparePart(tb, or, and) })
	assert.Contains(t, msg, "out=")

	other, err := lib.CreateCircuit("other")
	require.NoError(t, err)
	other.AddConnectorIn("x", 1, false)
	other.AddConnectorIn("b", 1, false)
	msg = expectFatal(t, func(tb testing.TB) { hwtest.ComparePart(tb, or, other) })
	assert.True(t, strings.HasPrefix(msg, "inputs[0]"), msg)
}

func TestCheckDeterministic(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	a4, err := hwlib.Adder(lib, 4)
	require.NoError(t, err)
	hwtest.CheckDeterministic(t, a4, 20, 5)
	m, err := hwlib.Mux(lib, 2)
	require.NoError(t, err)
	hwtest.CheckDeterministic(t, m, 20, 3)
}

func TestEval(t *testing.T) {
	lib := model.NewContext(nil).UserLibrary()
	or := orGate(t, lib)
	out, err := hwtest.Eval(or, []lsim.Value{lsim.False, lsim.True})
	require.NoError(t, err)
	assert.Equal(t, []lsim.Value{lsim.True}, out)
	out, err = hwtest.Eval(or, []lsim.Value{lsim.False, lsim.False})
	require.NoError(t, err)
	assert.Equal(t, []lsim.Value{lsim.False}, out)
	_, err = hwtest.Eval(or, []lsim.Value{lsim.False})
	assert.Error(t, err)
}
