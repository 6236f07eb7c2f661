package hwtest

import (
	"io"
	"strings"
	"text/tabwriter"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
)

// MaxTruthTableInputs is the maximum number of input pins TruthTable accepts.
const MaxTruthTableInputs = 16

// Table is the truth table of a combinational circuit.
//
type Table struct {
	Inputs  []string
	Outputs []string
	// Rows[i] holds the input values followed by the output values. Inputs
	// count up in binary, the first input being the most significant bit.
	Rows [][]lsim.Value
}

// TruthTable computes the truth table of c by settling a single instance for
// every combination of its inputs.
//
func TruthTable(c *model.Circuit) (*Table, error) {
	b, err := newBench(c)
	if err != nil {
		return nil, err
	}
	n := len(b.in)
	if n > MaxTruthTableInputs {
		return nil, errors.Errorf("circuit %q has too many inputs for a truth table: %d", c.Name(), n)
	}
	tt := &Table{Inputs: b.inN, Outputs: b.outN}
	in := make([]lsim.Value, n)
	for i := 0; i < 1<<uint(n); i++ {
		for k := range in {
			in[k] = lsim.ValueOf(i>>uint(n-1-k)&1 != 0)
		}
		if err = b.apply(in); err != nil {
			return nil, err
		}
		row := make([]lsim.Value, 0, n+len(b.out))
		row = append(row, in...)
		tt.Rows = append(tt.Rows, b.outputs(row))
	}
	return tt, nil
}

// Lookup returns the outputs for the given inputs, or nil.
//
func (tt *Table) Lookup(in ...lsim.Value) []lsim.Value {
	n := len(tt.Inputs)
	if len(in) != n {
		return nil
	}
outer:
	for _, r := range tt.Rows {
		for i, v := range in {
			if r[i] != v {
				continue outer
			}
		}
		return r[n:]
	}
	return nil
}

// WriteText writes tt as an aligned table with a "|" column between inputs
// and outputs.
//
func (tt *Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	line := func(cells []string) error {
		n := len(tt.Inputs)
		all := make([]string, 0, len(cells)+1)
		all = append(all, cells[:n]...)
		all = append(all, "|")
		all = append(all, cells[n:]...)
		_, err := io.WriteString(tw, strings.Join(all, "\t")+"\n")
		return err
	}
	hdr := append(append([]string(nil), tt.Inputs...), tt.Outputs...)
	if err := line(hdr); err != nil {
		return err
	}
	cells := make([]string, len(hdr))
	for _, r := range tt.Rows {
		for i, v := range r {
			cells[i] = v.String()
		}
		if err := line(cells); err != nil {
			return err
		}
	}
	return tw.Flush()
}
