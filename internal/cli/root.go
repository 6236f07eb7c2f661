// Package cli implements the lsim command line interface.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string

	cfg *Config
	log *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the logger configured by the global flags.
func (o *RootOptions) Logger() *slog.Logger {
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.log
}

// Settings returns the loaded configuration, or the default one.
func (o *RootOptions) Settings() *Config {
	if o.cfg == nil {
		o.cfg = DefaultConfig()
	}
	return o.cfg
}

// setup validates the global flags, loads the configuration file and creates
// the logger.
func (o *RootOptions) setup(stderr io.Writer) error {
	if !isValidFormat(o.Format) {
		return errors.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if o.Config == "" {
		o.cfg = DefaultConfig()
		return nil
	}
	cfg, err := LoadConfig(o.Config)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log.Debug("configuration loaded", "file", o.Config, "folders", len(cfg.Folders))
	return nil
}

// NewRootCommand creates the root command for the lsim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lsim",
		Short: "lsim - digital logic simulator",
		Long: `Simulate digital logic circuits stored in lsim XML libraries.

Circuits are simulated with four-valued logic (0, 1, U for undefined and E for
electrical conflicts) in discrete steps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", os.Getenv("LSIM_CONFIG"), "YAML configuration file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewBenchCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewStepCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
