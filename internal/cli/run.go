package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/db47h/lsim/internal/statsview"
	"github.com/db47h/lsim/internal/tracestore"
	"github.com/db47h/lsim/trace"
	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Circuit   string
	Set       []string
	Watch     []string
	Ticks     int
	Stable    int
	Record    string
	Trace     bool
	Statsview bool
}

// RunResult is the outcome of a run.
type RunResult struct {
	Circuit string           `json:"circuit"`
	Ticks   uint64           `json:"ticks"`
	Stable  bool             `json:"stable"`
	Ports   []PortValue      `json:"ports"`
	RunID   string           `json:"run_id,omitempty"`
	Trace   *trace.Trace     `json:"-"`
	Signals []traceSignalOut `json:"signals,omitempty"`
}

type traceSignalOut struct {
	Name   string `json:"name"`
	Values string `json:"values"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a circuit until it settles",
		Long: `Load a circuit library, set the inputs of a circuit and run it until no
node changes for --stable consecutive steps.

Port values are integers, decimal or with a 0x or 0b prefix, written to port
ranges least significant bit first, or one of 0, 1, U, E, true, false,
undefined and error, written to every pin of the range.

Examples:
  lsim run adder.lsim --circuit adder_4 --set "A[0..3]=5, B[0..3]=6, Ci=1"
  lsim run adder.lsim --set "A[0..3]=0b0101, B[0..3]=U" --watch "Y[0..3],Co" --format json
  lsim run clock.lsim --ticks 100 --record traces.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Circuit, "circuit", "c", "", "circuit to run (default: main circuit of the library)")
	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "input port values: PORT=VALUE[, ...]")
	cmd.Flags().StringArrayVarP(&opts.Watch, "watch", "w", nil, "ports to report (default: all outputs)")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 0, "maximum number of steps (default from configuration)")
	cmd.Flags().IntVar(&opts.Stable, "stable", 0, "number of quiet steps to consider the circuit settled (default from configuration)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record the watched ports in the given trace database")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the watched ports at every step")
	cmd.Flags().BoolVar(&opts.Statsview, "statsview", false, "serve runtime statistics while running")

	return cmd
}

func runRun(opts *RunOptions, cmd *cobra.Command, file string) error {
	cfg := opts.Settings()
	ticks, quiet := opts.Ticks, opts.Stable
	if ticks <= 0 {
		ticks = cfg.MaxTicks
	}
	if quiet <= 0 {
		quiet = cfg.Quiet
	}
	if opts.Statsview {
		statsview.Launch(cmd.ErrOrStderr(), "")
	}
	sets, err := parseAssignments(opts.Set)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --set", err)
	}

	c, err := loadCircuit(opts.RootOptions, file, opts.Circuit)
	if err != nil {
		return err
	}
	sim, inst, err := instantiate(opts.RootOptions, c)
	if err != nil {
		return err
	}
	if err = applyAssignments(inst, sets); err != nil {
		return err
	}
	watch, err := watchList(c, opts.Watch)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --watch", err)
	}
	rec, err := trace.NewRecorder(inst, watch...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --watch", err)
	}

	stable := rec.RunUntilStable(quiet, ticks)
	opts.Logger().Debug("run complete", "circuit", c.Name(), "time", uint64(sim.CurrentTime()), "stable", stable)

	res := RunResult{Circuit: c.Name(), Ticks: uint64(sim.CurrentTime()), Stable: stable, Trace: rec.Trace()}
	if res.Ports, err = readPorts(inst, watch); err != nil {
		return err
	}
	if opts.Trace {
		for i := range res.Trace.Signals {
			s := &res.Trace.Signals[i]
			res.Signals = append(res.Signals, traceSignalOut{s.Name, s.String()})
		}
	}
	if opts.Record != "" {
		st, err := tracestore.Open(opts.Record)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer st.Close()
		if res.RunID, err = st.SaveRun(context.Background(), res.Trace); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	if err = outputRun(opts, cmd.OutOrStdout(), &res); err != nil {
		return err
	}
	if !stable {
		return NewExitError(ExitFailure, fmt.Sprintf("circuit %q did not settle after %d ticks", c.Name(), ticks))
	}
	return nil
}

func outputRun(opts *RunOptions, w io.Writer, res *RunResult) error {
	if opts.Format == "json" {
		status := "ok"
		if !res.Stable {
			status = "fail"
		}
		return writeJSON(w, status, res)
	}
	if res.Stable {
		fmt.Fprintf(w, "%s: settled at tick %d\n", res.Circuit, res.Ticks)
	} else {
		fmt.Fprintf(w, "%s: not settled at tick %d\n", res.Circuit, res.Ticks)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range res.Ports {
		fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if opts.Trace {
		if err := res.Trace.WriteText(w); err != nil {
			return err
		}
	}
	if res.RunID != "" {
		fmt.Fprintf(w, "recorded run %s\n", res.RunID)
	}
	return nil
}
