package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"
	"github.com/db47h/lsim/model"
	"github.com/spf13/cobra"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Circuit string
	Output  string
}

// circuitView is the structure graphed by dump. Wires point to the
// components they connect so that the graph shows the netlist.
type circuitView struct {
	Name       string           `json:"name"`
	Inputs     []string         `json:"inputs"`
	Outputs    []string         `json:"outputs"`
	Components []*componentView `json:"components"`
	Wires      []*wireView      `json:"wires"`
}

type componentView struct {
	ID      uint32       `json:"id"`
	Type    string       `json:"type"`
	Pins    int          `json:"pins"`
	Circuit string       `json:"circuit,omitempty"`
	Nested  *circuitView `json:"-"`
}

type wireView struct {
	ID         uint32           `json:"id"`
	Pins       []string         `json:"pins"`
	Components []*componentView `json:"-"`
}

// newCircuitView builds the view of c and, recursively, of its sub-circuits.
// Views are shared between components using the same circuit.
func newCircuitView(c *model.Circuit, seen map[*model.Circuit]*circuitView) *circuitView {
	if v, ok := seen[c]; ok {
		return v
	}
	v := &circuitView{Name: c.QualifiedName(), Inputs: c.InputPorts(), Outputs: c.OutputPorts()}
	seen[c] = v
	comps := make(map[uint32]*componentView)
	for _, id := range c.ComponentIDs() {
		comp := c.ComponentByID(id)
		cv := &componentView{ID: id, Type: comp.Type().String(), Pins: comp.NumPins()}
		if n := comp.Nested(); n != nil {
			cv.Circuit = n.QualifiedName()
			cv.Nested = newCircuitView(n, seen)
		}
		comps[id] = cv
		v.Components = append(v.Components, cv)
	}
	for _, id := range c.WireIDs() {
		w := c.WireByID(id)
		wv := &wireView{ID: id}
		linked := make(map[uint32]bool)
		for _, p := range w.Pins() {
			wv.Pins = append(wv.Pins, p.String())
			if cv := comps[p.Component()]; cv != nil && !linked[p.Component()] {
				linked[p.Component()] = true
				wv.Components = append(wv.Components, cv)
			}
		}
		v.Wires = append(v.Wires, wv)
	}
	return v
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Graph the structure of a circuit",
		Long: `Write the components and wires of a circuit, and of its sub-circuits, as a
Graphviz dot graph. With --format json, a flat description is written instead.

Example:
  lsim dump adder.lsim --circuit adder_4 | dot -Tsvg > adder.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Circuit, "circuit", "c", "", "circuit to dump (default: main circuit of the library)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: standard output)")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command, file string) error {
	c, err := loadCircuit(opts.RootOptions, file, opts.Circuit)
	if err != nil {
		return err
	}
	view := newCircuitView(c, make(map[*model.Circuit]*circuitView))

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output", err)
		}
		defer f.Close()
		w = f
	}
	if opts.Format == "json" {
		return writeJSON(w, "ok", view)
	}
	memviz.Map(w, view)
	if opts.Output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", opts.Output)
	}
	return nil
}
