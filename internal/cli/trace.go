package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/db47h/lsim/internal/tracestore"
	"github.com/db47h/lsim/waveform"
	"github.com/spf13/cobra"
)

// TraceOptions holds flags shared by the trace subcommands.
type TraceOptions struct {
	*RootOptions
	DB string
}

// RunInfo is a stored run as listed by trace list.
type RunInfo struct {
	ID      string    `json:"id"`
	Circuit string    `json:"circuit"`
	Start   uint64    `json:"start"`
	Ticks   int       `json:"ticks"`
	Created time.Time `json:"created"`
}

// NewTraceCommand creates the trace command and its subcommands.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Manage recorded traces",
		Long: `List, show, export and remove traces recorded with "lsim run --record".

Runs are identified by their id or any unambiguous prefix of it.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "trace database (default from configuration)")

	cmd.AddCommand(newTraceListCommand(opts))
	cmd.AddCommand(newTraceShowCommand(opts))
	cmd.AddCommand(newTraceExportCommand(opts))
	cmd.AddCommand(newTraceRmCommand(opts))

	return cmd
}

func (o *TraceOptions) open() (*tracestore.Store, error) {
	db := o.DB
	if db == "" {
		db = o.Settings().DB
	}
	if db == "" {
		return nil, NewExitError(ExitCommandError, "no trace database: use --db or set db in the configuration")
	}
	st, err := tracestore.Open(db)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	return st, nil
}

func newTraceListCommand(opts *TraceOptions) *cobra.Command {
	var circuit string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.open()
			if err != nil {
				return err
			}
			defer st.Close()
			runs, err := st.ListRuns(context.Background(), circuit)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list runs", err)
			}
			info := make([]RunInfo, len(runs))
			for i, r := range runs {
				info[i] = RunInfo{r.ID, r.Circuit, uint64(r.Start), r.Ticks, r.Created}
			}
			return outputRunList(opts, cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().StringVarP(&circuit, "circuit", "c", "", "only list runs of this circuit")
	return cmd
}

func outputRunList(opts *TraceOptions, w io.Writer, runs []RunInfo) error {
	if opts.Format == "json" {
		return writeJSON(w, "ok", runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCIRCUIT\tSTART\tTICKS\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.Circuit, r.Start, r.Ticks, r.Created.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func newTraceShowCommand(opts *TraceOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.open()
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := context.Background()
			id, err := st.ResolveID(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "unknown run", err)
			}
			tr, err := st.LoadRun(ctx, id)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load run", err)
			}
			w := cmd.OutOrStdout()
			if opts.Format == "json" {
				sigs := make([]traceSignalOut, len(tr.Signals))
				for i := range tr.Signals {
					sigs[i] = traceSignalOut{tr.Signals[i].Name, tr.Signals[i].String()}
				}
				return writeJSON(w, "ok", map[string]any{
					"id":      id,
					"circuit": tr.Circuit,
					"start":   uint64(tr.Start),
					"signals": sigs,
				})
			}
			fmt.Fprintf(w, "run %s: %s, %d ticks from %d\n", id, tr.Circuit, tr.Len(), uint64(tr.Start))
			return tr.WriteText(w)
		},
	}
}

// ExportOptions holds flags for trace export.
type ExportOptions struct {
	*TraceOptions
	Output         string
	Type           string
	Title          string
	Signal         string
	SampleRate     int
	SamplesPerTick int
}

func newTraceExportCommand(traceOpts *TraceOptions) *cobra.Command {
	opts := &ExportOptions{TraceOptions: traceOpts}
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Render a recorded run as a timing diagram",
		Long: `Render a recorded run as an HTML chart, a PNG image or a WAV file.

The output type defaults to the extension of the output file.

Examples:
  lsim trace export 0192 -o clock.html
  lsim trace export 0192 -o clock.png --title "2 bit counter"
  lsim trace export 0192 -o clock.wav --signal clk --spt 64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (required)")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "output type: html, png or wav")
	cmd.Flags().StringVar(&opts.Title, "title", "", "chart title (default: circuit name)")
	cmd.Flags().StringVar(&opts.Signal, "signal", "", "signal rendered in WAV output (default: first signal)")
	cmd.Flags().IntVar(&opts.SampleRate, "rate", waveform.DefaultSampleRate, "WAV sample rate")
	cmd.Flags().IntVar(&opts.SamplesPerTick, "spt", waveform.DefaultSamplesPerTick, "WAV samples per tick")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command, prefix string) error {
	typ := opts.Type
	if typ == "" {
		typ = strings.TrimPrefix(filepath.Ext(opts.Output), ".")
	}
	f, err := waveform.ParseFormat(typ)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid output type", err)
	}
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()
	id, err := st.ResolveID(ctx, prefix)
	if err != nil {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	tr, err := st.LoadRun(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}
	if opts.Signal != "" && tr.Signal(opts.Signal) == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("run %s has no signal %q", id, opts.Signal))
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	err = waveform.Write(out, f, tr, &waveform.Options{
		Title:          opts.Title,
		Signal:         opts.Signal,
		SampleRate:     opts.SampleRate,
		SamplesPerTick: opts.SamplesPerTick,
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(opts.Output)
		return WrapExitError(ExitCommandError, "failed to export run", err)
	}
	opts.Logger().Debug("run exported", "id", id, "format", f, "file", opts.Output)
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), "ok", map[string]string{"id": id, "file": opts.Output, "type": f.String()})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported run %s to %s\n", id, opts.Output)
	return nil
}

func newTraceRmCommand(opts *TraceOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID...",
		Short: "Remove recorded runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.open()
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := context.Background()
			var removed []string
			for _, p := range args {
				id, err := st.ResolveID(ctx, p)
				if err != nil {
					return WrapExitError(ExitCommandError, "unknown run", err)
				}
				if err = st.DeleteRun(ctx, id); err != nil {
					return WrapExitError(ExitCommandError, "failed to remove run", err)
				}
				removed = append(removed, id)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), "ok", removed)
			}
			for _, id := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
			}
			return nil
		},
	}
}
