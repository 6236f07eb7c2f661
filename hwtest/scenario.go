package hwtest

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/lsimxml"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.cue
var scenarioSchemaSrc string

// Scenario is a test scenario for a circuit, read from a YAML file:
//
//	name: 4 bit adder
//	library: adder.lsim
//	circuit: adder_4
//	steps:
//	  - set:
//	      "A[0..3]": 5
//	      "B[0..3]": 6
//	      Ci: 0
//	    expect:
//	      "Y[0..3]": 11
//	      Co: "0"
//
// Port values are either integers, written to a range of pins least
// significant bit first, booleans or strings of 0, 1, U and E characters,
// most significant bit first. A single character string applies to every pin
// of the range.
//
// Each step sets its inputs then runs until the circuit settles, or for a
// fixed number of ticks, and checks its expected outputs.
//
type Scenario struct {
	Name     string `yaml:"name"`
	Library  string `yaml:"library"`
	Circuit  string `yaml:"circuit"`
	Quiet    int    `yaml:"quiet"`
	MaxTicks int    `yaml:"max_ticks"`
	Steps    []Step `yaml:"steps"`

	dir string
}

// Step is a scenario step.
//
type Step struct {
	Set    map[string]any `yaml:"set"`
	Ticks  int            `yaml:"ticks"`
	Expect map[string]any `yaml:"expect"`
}

var schema struct {
	sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// validate checks the decoded YAML document doc against the scenario schema.
func validate(doc any) error {
	schema.Lock()
	defer schema.Unlock()
	if schema.ctx == nil {
		ctx := cuecontext.New()
		v := ctx.CompileString(scenarioSchemaSrc, cue.Filename("scenario.cue"))
		if err := v.Err(); err != nil {
			return errors.Wrap(err, "compile scenario schema")
		}
		schema.ctx = ctx
		schema.def = v.LookupPath(cue.ParsePath("#Scenario"))
	}
	v := schema.def.Unify(schema.ctx.Encode(doc))
	return v.Validate(cue.Concrete(true))
}

// ParseScenario decodes and validates a YAML scenario.
//
func ParseScenario(data []byte) (*Scenario, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := validate(doc); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	return &sc, nil
}

// LoadScenario reads a scenario file. The library path of the scenario is
// relative to the directory of file. The scenario name defaults to the base
// name of file.
//
func LoadScenario(file string) (*Scenario, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "load scenario")
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %q", file)
	}
	sc.dir = filepath.Dir(file)
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return sc, nil
}

// Result is the outcome of a scenario run.
//
type Result struct {
	Scenario string
	Circuit  string
	Steps    int
	Ticks    lsim.Timestamp
	Failures []string
}

// Passed returns true if no expectation failed.
//
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

func (r *Result) failf(step int, format string, args ...any) {
	r.Failures = append(r.Failures, "step "+strconv.Itoa(step+1)+": "+fmt.Sprintf(format, args...))
}

// Run loads the scenario's library as the user library of ctx, which may be
// nil, and runs the scenario against its circuit, the main circuit of the
// library by default.
//
func (sc *Scenario) Run(ctx *model.Context) (*Result, error) {
	if ctx == nil {
		ctx = model.NewContext(nil)
	}
	file := sc.Library
	if !filepath.IsAbs(file) && ctx.FullPath(file) == file && sc.dir != "" {
		file = filepath.Join(sc.dir, file)
	}
	lib, err := lsimxml.LoadUserLibrary(ctx, file)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %q", sc.Name)
	}
	name := sc.Circuit
	if name == "" {
		name = lib.MainCircuit()
	}
	c := ctx.FindCircuit(name, lib)
	if c == nil {
		return nil, errors.Wrapf(lsim.ErrNotFound, "scenario %q: circuit %q", sc.Name, name)
	}
	return sc.RunCircuit(c)
}

// RunCircuit runs the scenario against c. Errors are reported for malformed
// steps or unknown ports; expectations that do not hold are reported in the
// result.
//
func (sc *Scenario) RunCircuit(c *model.Circuit) (*Result, error) {
	quiet, maxTicks := sc.Quiet, sc.MaxTicks
	if quiet <= 0 {
		quiet = 2
	}
	if maxTicks <= 0 {
		maxTicks = MaxTicks
	}
	sim := lsim.New(hwlib.NewRegistry())
	inst, err := c.Instantiate(sim, true)
	if err != nil {
		return nil, err
	}
	sim.Init()

	r := &Result{Scenario: sc.Name, Circuit: c.Name(), Steps: len(sc.Steps)}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		for _, port := range sortedKeys(st.Set) {
			if err = SetPort(inst, port, st.Set[port]); err != nil {
				return nil, errors.Wrapf(err, "scenario %q, step %d", sc.Name, i+1)
			}
		}
		if st.Ticks > 0 {
			for k := 0; k < st.Ticks; k++ {
				sim.Step()
			}
		} else if !sim.RunUntilStableMax(quiet, maxTicks) {
			r.failf(i, "circuit did not settle after %d ticks", maxTicks)
			continue
		}
		for _, port := range sortedKeys(st.Expect) {
			ids, want, err := portValues(inst, port, st.Expect[port])
			if err != nil {
				return nil, errors.Wrapf(err, "scenario %q, step %d", sc.Name, i+1)
			}
			got := make([]lsim.Value, len(ids))
			for k, id := range ids {
				got[k] = inst.ReadPin(id)
			}
			if !equalValues(got, want) {
				r.failf(i, "%s = %s, want %s", port, valueString(got), valueString(want))
			}
		}
	}
	r.Ticks = sim.CurrentTime()
	return r, nil
}

// SetPort writes v to the named port or port range of a top-level instance.
// v is an int, a bool or a string of values, with the same meaning as in
// scenario files.
//
func SetPort(inst *lsim.Instance, port string, v any) error {
	ids, vs, err := portValues(inst, port, v)
	if err != nil {
		return err
	}
	for k, id := range ids {
		if err = writable(inst, id, port); err != nil {
			return err
		}
		inst.WritePin(id, vs[k])
	}
	return nil
}

// PortString returns the values of the named port or port range, most
// significant bit first.
//
func PortString(inst *lsim.Instance, port string) (string, error) {
	names, err := model.ExpandRange(port)
	if err != nil {
		return "", err
	}
	ids, err := inst.PortPinIDs(names...)
	if err != nil {
		return "", err
	}
	vs := make([]lsim.Value, len(ids))
	for i, id := range ids {
		vs[i] = inst.ReadPin(id)
	}
	return valueString(vs), nil
}

func writable(inst *lsim.Instance, id lsim.PinID, port string) error {
	if !inst.Component(id.Component()).UserValuesEnabled() {
		return errors.Errorf("port %q is not an input", port)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// portValues resolves a port name or range and converts raw to one value per
// pin.
func portValues(inst *lsim.Instance, port string, raw any) ([]lsim.PinID, []lsim.Value, error) {
	names, err := model.ExpandRange(port)
	if err != nil {
		return nil, nil, err
	}
	ids, err := inst.PortPinIDs(names...)
	if err != nil {
		return nil, nil, err
	}
	n := len(ids)
	vs := make([]lsim.Value, n)
	switch x := raw.(type) {
	case bool:
		fill(vs, lsim.ValueOf(x))
	case int:
		if x < 0 || n < 63 && x>>uint(n) != 0 {
			return nil, nil, errors.Errorf("value %d does not fit in %d bits of %q", x, n, port)
		}
		for i := range vs {
			vs[i] = lsim.ValueOf(x>>uint(i)&1 != 0)
		}
	case string:
		if len(x) == 1 {
			v, err := lsim.ParseValue(x)
			if err != nil {
				return nil, nil, err
			}
			fill(vs, v)
			break
		}
		if len(x) != n {
			return nil, nil, errors.Errorf("%d values for %d bits of %q", len(x), n, port)
		}
		for i := range vs {
			v, err := lsim.ParseValue(x[n-1-i : n-i])
			if err != nil {
				return nil, nil, err
			}
			vs[i] = v
		}
	default:
		return nil, nil, errors.Errorf("invalid value %v for %q", raw, port)
	}
	return ids, vs, nil
}

func equalValues(a, b []lsim.Value) bool {
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

// valueString formats vs most significant bit first.
func valueString(vs []lsim.Value) string {
	var b strings.Builder
	for i := len(vs) - 1; i >= 0; i-- {
		b.WriteString(vs[i].String())
	}
	return b.String()
}
