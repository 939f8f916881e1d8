package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/simon/internal/board"
)

// ValidationError is one problem found in a board file.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Board  *board.Board      `json:"board,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <board.cue>",
		Short: "Validate a board file",
		Long: `Validate a CUE board definition without playing it.

Checks syntax, the board schema (lowercase signal names, one-rune keys,
at least one signal) and that names and keys are unique.

Exit codes:
  0 - Board is valid
  1 - Board is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if !fileExists(path) {
		_ = formatter.Error(board.ErrCodeRead, fmt.Sprintf("board file not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("board file not found: %s", path))
	}

	b, err := board.Load(path)
	if err != nil {
		var le *board.LoadError
		if !errors.As(err, &le) {
			return WrapExitError(ExitCommandError, "failed to load board", err)
		}
		if le.Code == board.ErrCodeRead {
			_ = formatter.Error(le.Code, le.Message, nil)
			return WrapExitError(ExitCommandError, "failed to read board", err)
		}
		return outputValidationErrors(formatter, []ValidationError{toValidationError(le)})
	}

	formatter.VerboseLog("Board %s has %d signal(s)", b.Name, b.Len())
	return outputValidateSuccess(formatter, b)
}

func toValidationError(le *board.LoadError) ValidationError {
	ve := ValidationError{Code: le.Code, Message: le.Message}
	if le.Pos.IsValid() {
		ve.File = le.Pos.Filename()
		ve.Line = le.Pos.Line()
		ve.Column = le.Pos.Column()
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, b *board.Board) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Board: b})
	}

	fmt.Fprintf(formatter.Writer, "✓ Board %s is valid (%d signals)\n", b.Name, b.Len())
	for _, s := range b.Signals {
		key := s.Key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(formatter.Writer, "  %d  %-12s %-3s %s\n", s.Index, s.Name, key, s.Label)
	}
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", err.File, err.Line, err.Column)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
