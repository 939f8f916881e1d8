package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/simon/internal/journal"
	"github.com/roach88/simon/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Kinds    []string // optional - filter to these entry kinds
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session store.Session   `json:"session"`
	Journal []string        `json:"journal"`
	Summary journal.Summary `json:"summary"`
	Digest  string          `json:"digest"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <session-id>",
		Short: "Show the journal of a recorded session",
		Long: `Show the journal of a session recorded with "simon play --db".

Each line is "<ms> #<seq> <kind> <arg>": milliseconds since the engine
started, the entry's sequence number, and what the engine emitted.

Examples:
  simon trace --db ./simon.db 01928f3e-...
  simon trace --db ./simon.db 01928f3e-... --kind mark_fail --kind status
  simon trace --db ./simon.db 01928f3e-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: $SIMON_DB)")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "only show entries of these kinds")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, sessionID string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore(opts.Database, opts.Config.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	sess, err := st.ReadSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", sessionID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", sessionID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	entries, err := st.ReadEntries(ctx, sessionID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	shown := entries
	if len(opts.Kinds) > 0 {
		kinds := make([]journal.Kind, len(opts.Kinds))
		for i, k := range opts.Kinds {
			kinds[i] = journal.Kind(k)
		}
		shown = journal.Filter(entries, kinds...)
	}

	lines := make([]string, len(shown))
	for i, e := range shown {
		lines[i] = e.String()
	}
	result := TraceResult{
		Session: sess,
		Journal: lines,
		// The summary always covers the whole session
		Summary: journal.Summarize(entries),
		Digest:  journal.Digest(entries),
	}

	if formatter.JSON() {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd, result)
}

func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Session: %s\n", result.Session.ID)
	fmt.Fprintf(w, "Board: %s (%s)\n", result.Session.Board, strings.Join(result.Session.Labels, ", "))
	if result.Session.Seed != nil {
		fmt.Fprintf(w, "Seed: %d\n", *result.Session.Seed)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Journal ===")
	if len(result.Journal) == 0 {
		fmt.Fprintln(w, "  (no entries)")
	}
	for _, line := range result.Journal {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)

	s := result.Summary
	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "  Entries: %d\n", s.Entries)
	fmt.Fprintf(w, "  Games: %d\n", s.Games)
	fmt.Fprintf(w, "  Rounds: %d\n", s.Rounds)
	fmt.Fprintf(w, "  Mismatches: %d\n", s.Mismatches)
	fmt.Fprintf(w, "  Best score: %d\n", s.BestScore)
	fmt.Fprintf(w, "  Final: score %d, %s\n", s.FinalScore, s.FinalStatus)
	fmt.Fprintf(w, "  Digest: %s\n", result.Digest)

	return nil
}

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Long: `List the sessions recorded with "simon play --db", oldest first.

Examples:
  simon sessions --db ./simon.db
  simon sessions --db ./simon.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: $SIMON_DB)")

	return cmd
}

func runSessions(ctx context.Context, opts *SessionsOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore(opts.Database, opts.Config.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(sessions)
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBOARD\tSIGNALS\tENTRIES\tCREATED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			s.ID, s.Board, s.Signals, s.Entries, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

// openStore opens the database named by the flag, falling back to
// SIMON_DB. The file must already exist.
func openStore(flag, fallback string) (*store.Store, error) {
	path := flag
	if path == "" {
		path = fallback
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set SIMON_DB")
	}
	if !fileExists(path) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
