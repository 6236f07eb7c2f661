// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/model"
	"github.com/db47h/lsim/trace"
	"github.com/pkg/errors"
)

// MaxTicks is the number of steps after which a circuit that did not settle is
// considered to oscillate.
//
const MaxTicks = 1000

// bench is a top-level instance of a circuit in its own simulator.
type bench struct {
	sim       *lsim.Simulator
	inst      *lsim.Instance
	in, out   []lsim.PinID
	inN, outN []string
}

func newBench(c *model.Circuit) (*bench, error) {
	sim := lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(sim, true)
	if err != nil {
		return nil, err
	}
	b := &bench{sim: sim, inst: inst, inN: c.InputPorts(), outN: c.OutputPorts()}
	if b.in, err = inst.PortPinIDs(b.inN...); err != nil {
		return nil, err
	}
	if b.out, err = inst.PortPinIDs(b.outN...); err != nil {
		return nil, err
	}
	sim.Init()
	return b, nil
}

func (b *bench) apply(in []lsim.Value) error {
	b.inst.WriteValues(b.in, in)
	if !b.sim.RunUntilStableMax(2, MaxTicks) {
		return errors.Errorf("circuit %q did not settle after %d ticks", b.inst.Name(), MaxTicks)
	}
	return nil
}

func (b *bench) outputs(dst []lsim.Value) []lsim.Value {
	dst = dst[:0]
	for _, id := range b.out {
		dst = append(dst, b.inst.ReadPin(id))
	}
	return dst
}

func sameNames(what string, a, b []string) error {
	if len(a) != len(b) {
		return errors.Errorf("%s: %d != %d", what, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return errors.Errorf("%s[%d]: %q != %q", what, i, a[i], b[i])
		}
	}
	return nil
}

func randValues(r *rand.Rand, vs []lsim.Value) {
	for i := range vs {
		vs[i] = lsim.ValueOf(r.Int63()&(1<<62) != 0)
	}
}

func fill(vs []lsim.Value, v lsim.Value) {
	for i := range vs {
		vs[i] = v
	}
}

func inputString(names []string, in []lsim.Value) string {
	var b strings.Builder
	for i, n := range names {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteString(in[i].String())
	}
	return b.String()
}

// ComparePart takes two circuits and compares their outputs given the same
// inputs. Both circuits must have the same input and output ports.
//
// The circuits are first tested with all inputs False, then all True, then
// with up to 4096 random input vectors.
//
func ComparePart(t testing.TB, c1, c2 *model.Circuit) {
	t.Helper()

	if err := sameNames("inputs", c1.InputPorts(), c2.InputPorts()); err != nil {
		t.Fatal(err)
	}
	if err := sameNames("outputs", c1.OutputPorts(), c2.OutputPorts()); err != nil {
		t.Fatal(err)
	}
	b1, err := newBench(c1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := newBench(c2)
	if err != nil {
		t.Fatal(err)
	}

	seed := time.Now().UnixNano()
	r := rand.New(rand.NewSource(seed))
	inputs := make([]lsim.Value, len(b1.in))
	var o1, o2 []lsim.Value

	check := func() {
		t.Helper()
		if err := b1.apply(inputs); err != nil {
			t.Fatal(err)
		}
		if err := b2.apply(inputs); err != nil {
			t.Fatal(err)
		}
		o1, o2 = b1.outputs(o1), b2.outputs(o2)
		for i := range o1 {
			if o1[i] != o2[i] {
				t.Fatalf("\nExpected %s => %s=%v\nGot %v (seed %d)",
					inputString(b1.inN, inputs), b1.outN[i], o1[i], o2[i], seed)
			}
		}
	}

	iter := len(inputs)
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)

	start := time.Now()

	// try all 0
	fill(inputs, lsim.False)
	check()
	// try all 1
	fill(inputs, lsim.True)
	check()

	for i := 0; i < iter; i++ {
		randValues(r, inputs)
		check()
	}

	elapsed := time.Since(start)
	ticks := b1.sim.CurrentTime() + b2.sim.CurrentTime()
	t.Logf("%d+%d components. %d steps in %v => %.2f Hz", b1.sim.NumComponents(), b2.sim.NumComponents(),
		ticks, elapsed, float64(ticks)/elapsed.Seconds())
}

// CheckDeterministic runs two independent instances of c with the same
// sequence of random inputs and checks that every output port takes the same
// values at every tick.
//
func CheckDeterministic(t testing.TB, c *model.Circuit, vectors, ticksPerVector int) {
	t.Helper()
	var traces [2]*trace.Trace
	seed := time.Now().UnixNano()
	for k := range traces {
		b, err := newBench(c)
		if err != nil {
			t.Fatal(err)
		}
		rec, err := trace.NewRecorder(b.inst, b.outN...)
		if err != nil {
			t.Fatal(err)
		}
		r := rand.New(rand.NewSource(seed))
		inputs := make([]lsim.Value, len(b.in))
		for i := 0; i < vectors; i++ {
			randValues(r, inputs)
			b.inst.WriteValues(b.in, inputs)
			rec.Step(ticksPerVector)
		}
		traces[k] = rec.Trace()
	}
	for i := range traces[0].Signals {
		s0, s1 := &traces[0].Signals[i], &traces[1].Signals[i]
		if s0.String() != s1.String() {
			t.Fatalf("%s: %s != %s (seed %d)", s0.Name, s0, s1, seed)
		}
	}
}

// Eval sets the inputs of a fresh top-level instance of c, runs it until it
// settles and returns the values of its output ports, in port order.
//
func Eval(c *model.Circuit, inputs []lsim.Value) ([]lsim.Value, error) {
	b, err := newBench(c)
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(b.in) {
		return nil, errors.Errorf("circuit %q has %d inputs, got %d values", c.Name(), len(b.in), len(inputs))
	}
	if err = b.apply(inputs); err != nil {
		return nil, err
	}
	return b.outputs(nil), nil
}
