package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"

	"github.com/roach88/simon/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is read from the environment before any subcommand runs.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the simon CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "simon",
		Short: "Simon memory game",
		Long: `A Simon memory game engine.

Play rounds in the terminal, run scripted scenarios against the engine,
validate board files, and inspect recorded sessions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.Config = cfg

			level := cfg.Level()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			InitLogger(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// InitLogger installs a console handler on w as the default slog logger.
func InitLogger(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level: level,
	})))
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
