package cli

import (
	"github.com/db47h/lsim"
	"github.com/db47h/lsim/hwlib"
	"github.com/db47h/lsim/hwtest"
	"github.com/db47h/lsim/internal/pinspec"
	"github.com/db47h/lsim/lsimxml"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
)

// loadCircuit loads file as the user library and returns the named circuit,
// or the main circuit of the library if name is empty.
func loadCircuit(opts *RootOptions, file, name string) (*model.Circuit, error) {
	ctx := opts.Settings().NewContext()
	lib, err := lsimxml.LoadUserLibrary(ctx, file)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load library", err)
	}
	if name == "" {
		name = lib.MainCircuit()
	}
	c := ctx.FindCircuit(name, lib)
	if c == nil {
		return nil, WrapExitError(ExitCommandError, "unknown circuit",
			errors.Wrapf(lsim.ErrNotFound, "circuit %q in %q", name, file))
	}
	opts.Logger().Debug("circuit loaded",
		"file", file,
		"circuit", c.QualifiedName(),
		"components", c.NumComponents(),
		"references", len(ctx.ReferenceLibraries()))
	return c, nil
}

// instantiate creates a top-level instance of c in a new simulator and
// initializes it.
func instantiate(opts *RootOptions, c *model.Circuit) (*lsim.Simulator, *lsim.Instance, error) {
	sim := lsim.New(hwlib.NewRegistry(), lsim.WithLogger(opts.Logger()))
	inst, err := c.Instantiate(sim, true)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to instantiate circuit", err)
	}
	sim.Init()
	return sim, inst, nil
}

// parseAssignments parses --set values: comma separated assignments like
// "A[0..3]=5, Ci=1, En=U".
func parseAssignments(specs []string) ([]pinspec.Assignment, error) {
	var r []pinspec.Assignment
	for _, spec := range specs {
		as, err := pinspec.ParseAssignments(spec)
		if err != nil {
			return nil, err
		}
		r = append(r, as...)
	}
	return r, nil
}

func applyAssignments(inst *lsim.Instance, as []pinspec.Assignment) error {
	for i := range as {
		if err := pinspec.Apply(inst, as[i:i+1]); err != nil {
			return WrapExitError(ExitCommandError, "cannot set "+as[i].Port.String(), err)
		}
	}
	return nil
}

// PortValue is the value of a watched port.
type PortValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func readPorts(inst *lsim.Instance, names []string) ([]PortValue, error) {
	r := make([]PortValue, 0, len(names))
	for _, n := range names {
		v, err := hwtest.PortString(inst, n)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "cannot read "+n, err)
		}
		r = append(r, PortValue{n, v})
	}
	return r, nil
}

// watchList parses --watch values. It defaults to the output ports of c.
func watchList(c *model.Circuit, specs []string) ([]string, error) {
	var r []string
	for _, s := range specs {
		ports, err := pinspec.ParsePorts(s)
		if err != nil {
			return nil, err
		}
		for _, p := range ports {
			r = append(r, p.String())
		}
	}
	if len(r) == 0 {
		r = append(r, c.OutputPorts()...)
	}
	return r, nil
}
