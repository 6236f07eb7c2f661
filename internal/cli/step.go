package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/internal/term"
	"github.com/spf13/cobra"
)

// StepOptions holds flags for the step command.
type StepOptions struct {
	*RootOptions
	Circuit string
	Set     []string
	Watch   []string
	TTY     string
}

const stepHelp = `keys: space or n step, s run until stable, i init, q quit, ? help`

// NewStepCommand creates the step command.
func NewStepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "step FILE",
		Short: "Step through a circuit interactively",
		Long: `Step through a circuit one tick at a time and print the watched ports after
each step.

` + stepHelp + `

When the standard input is a terminal, keys take effect as soon as they are
pressed. Otherwise keys are read from the standard input and line feeds are
ignored:

  echo "nnnsq" | lsim step clock.lsim --watch q`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Circuit, "circuit", "c", "", "circuit to run (default: main circuit of the library)")
	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "input port values: PORT=VALUE[, ...]")
	cmd.Flags().StringArrayVarP(&opts.Watch, "watch", "w", nil, "ports to print (default: all outputs)")
	cmd.Flags().StringVar(&opts.TTY, "tty", "/dev/tty", "terminal device used when the standard input is a terminal")

	return cmd
}

// keyReader returns a terminal in cbreak mode if in is a terminal.
func (o *StepOptions) keyReader(in io.Reader) (term.KeyReader, error) {
	if f, ok := in.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			t, err := term.Open(o.TTY)
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "cannot read keys", err)
			}
			return t, nil
		}
	}
	return term.NewReader(in), nil
}

func runStep(opts *StepOptions, cmd *cobra.Command, file string) (err error) {
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
	if _, err = readPorts(inst, watch); err != nil {
		return err
	}

	keys, err := opts.keyReader(cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := keys.Close(); err == nil && cerr != nil {
			err = WrapExitError(ExitCommandError, "cannot restore terminal", cerr)
		}
	}()

	w := cmd.OutOrStdout()
	cfg := opts.Settings()
	fmt.Fprintln(w, stepHelp)
	printPorts(w, sim, inst, watch)
	for {
		k, err := keys.ReadKey()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot read keys", err)
		}
		switch k {
		case ' ', 'n':
			sim.Step()
		case 's':
			if !sim.RunUntilStableMax(cfg.Quiet, cfg.MaxTicks) {
				fmt.Fprintf(w, "not settled after %d ticks\n", cfg.MaxTicks)
			}
		case 'i':
			sim.Init()
			if err = applyAssignments(inst, sets); err != nil {
				return err
			}
		case 'q', 4: // ^D
			return nil
		case '?', 'h':
			fmt.Fprintln(w, stepHelp)
			continue
		default:
			continue
		}
		printPorts(w, sim, inst, watch)
	}
}

func printPorts(w io.Writer, sim *lsim.Simulator, inst *lsim.Instance, watch []string) {
	ps, _ := readPorts(inst, watch)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%6d:", uint64(sim.CurrentTime()))
	for _, p := range ps {
		sb.WriteString(" " + p.Name + "=" + p.Value)
	}
	fmt.Fprintln(w, sb.String())
}
