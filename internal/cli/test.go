package cli

import (
	"fmt"
	"io"

	"github.com/db47h/lsim/hwtest"
	"github.com/spf13/cobra"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	FailFast bool
}

// TestResult is the outcome of one scenario file.
type TestResult struct {
	File     string   `json:"file"`
	Scenario string   `json:"scenario,omitempty"`
	Circuit  string   `json:"circuit,omitempty"`
	Status   string   `json:"status"` // "pass", "fail" or "error"
	Ticks    uint64   `json:"ticks"`
	Failures []string `json:"failures,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// TestSummary is the outcome of the test command.
type TestSummary struct {
	Results []TestResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Errors  int          `json:"errors"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test SCENARIO...",
		Short: "Run test scenarios",
		Long: `Run YAML test scenarios against circuits.

A scenario names a library, relative to the scenario file, and a list of steps
setting input ports and checking output ports:

  name: adder
  library: adder.lsim
  circuit: adder_4
  steps:
    - set: {"A[0..3]": 5, "B[0..3]": 6, Ci: 0}
      expect: {"Y[0..3]": 11, Co: 0}

The command exits with status 1 if any expectation fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop at the first failing scenario")

	return cmd
}

func runTest(opts *TestOptions, cmd *cobra.Command, files []string) error {
	cfg := opts.Settings()
	var sum TestSummary
	for _, file := range files {
		r := runScenario(opts, cfg, file)
		switch r.Status {
		case "pass":
			sum.Passed++
		case "fail":
			sum.Failed++
		default:
			sum.Errors++
		}
		sum.Results = append(sum.Results, r)
		if opts.FailFast && r.Status != "pass" {
			break
		}
	}

	if err := outputTest(opts, cmd.OutOrStdout(), &sum); err != nil {
		return err
	}
	switch {
	case sum.Errors > 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("%d scenario(s) could not run", sum.Errors))
	case sum.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", sum.Failed))
	}
	return nil
}

func runScenario(opts *TestOptions, cfg *Config, file string) TestResult {
	log := opts.Logger().With("file", file)
	tr := TestResult{File: file, Status: "error"}
	sc, err := hwtest.LoadScenario(file)
	if err != nil {
		tr.Error = err.Error()
		log.Debug("scenario load failed", "error", err)
		return tr
	}
	tr.Scenario = sc.Name
	if sc.MaxTicks <= 0 {
		sc.MaxTicks = cfg.MaxTicks
	}
	if sc.Quiet <= 0 {
		sc.Quiet = cfg.Quiet
	}
	res, err := sc.Run(cfg.NewContext())
	if err != nil {
		tr.Error = err.Error()
		log.Debug("scenario failed to run", "error", err)
		return tr
	}
	tr.Circuit = res.Circuit
	tr.Ticks = uint64(res.Ticks)
	tr.Failures = res.Failures
	if res.Passed() {
		tr.Status = "pass"
	} else {
		tr.Status = "fail"
	}
	log.Debug("scenario complete", "status", tr.Status, "steps", res.Steps, "ticks", tr.Ticks)
	return tr
}

func outputTest(opts *TestOptions, w io.Writer, sum *TestSummary) error {
	if opts.Format == "json" {
		status := "ok"
		if sum.Failed+sum.Errors > 0 {
			status = "fail"
		}
		return writeJSON(w, status, sum)
	}
	for _, r := range sum.Results {
		switch r.Status {
		case "pass":
			fmt.Fprintf(w, "PASS  %s (%s, %d ticks)\n", r.Scenario, r.Circuit, r.Ticks)
		case "fail":
			fmt.Fprintf(w, "FAIL  %s (%s)\n", r.Scenario, r.Circuit)
			for _, f := range r.Failures {
				fmt.Fprintf(w, "      %s\n", f)
			}
		default:
			fmt.Fprintf(w, "ERROR %s: %s\n", r.File, r.Error)
		}
	}
	fmt.Fprintf(w, "%d passed, %d failed, %d errors\n", sum.Passed, sum.Failed, sum.Errors)
	return nil
}
