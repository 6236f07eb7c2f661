package cli

import (
	"fmt"
	"time"

	"github.com/db47h/lsim/internal/statsview"
	"github.com/spf13/cobra"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	Circuit   string
	Set       []string
	Ticks     int
	Statsview bool
}

// BenchResult reports simulation speed.
type BenchResult struct {
	Circuit    string  `json:"circuit"`
	Components int     `json:"components"`
	Nodes      int     `json:"nodes"`
	Ticks      int     `json:"ticks"`
	Changes    int     `json:"changes"`
	Seconds    float64 `json:"seconds"`
	Hz         float64 `json:"hz"`
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench FILE",
		Short: "Measure simulation speed",
		Long: `Run a circuit for a fixed number of steps and report the number of steps
per second.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Circuit, "circuit", "c", "", "circuit to run (default: main circuit of the library)")
	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "input port values: PORT=VALUE[, ...]")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 100000, "number of steps")
	cmd.Flags().BoolVar(&opts.Statsview, "statsview", false, "serve runtime statistics while running")

	return cmd
}

func runBench(opts *BenchOptions, cmd *cobra.Command, file string) error {
	if opts.Ticks <= 0 {
		return NewExitError(ExitCommandError, "--ticks must be positive")
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

	res := BenchResult{
		Circuit:    c.Name(),
		Components: sim.NumComponents(),
		Nodes:      sim.NumNodes(),
		Ticks:      opts.Ticks,
	}
	start := time.Now()
	for i := 0; i < opts.Ticks; i++ {
		sim.Step()
		res.Changes += sim.Changes()
	}
	d := time.Since(start)
	res.Seconds = d.Seconds()
	if d > 0 {
		res.Hz = float64(opts.Ticks) / d.Seconds()
	}
	opts.Logger().Debug("bench complete", "circuit", res.Circuit, "ticks", res.Ticks, "duration", d)

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(w, "ok", &res)
	}
	fmt.Fprintf(w, "%s: %d components, %d nodes\n", res.Circuit, res.Components, res.Nodes)
	fmt.Fprintf(w, "%d steps in %v (%.0f Hz), %d node changes\n", res.Ticks, d.Round(time.Microsecond), res.Hz, res.Changes)
	return nil
}
