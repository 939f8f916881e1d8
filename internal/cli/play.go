package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/roach88/simon/internal/board"
	"github.com/roach88/simon/internal/engine"
	"github.com/roach88/simon/internal/journal"
	"github.com/roach88/simon/internal/store"
	"github.com/roach88/simon/internal/supervise"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Board    string
	Database string
	Seed     uint64
	seedSet  bool
}

// PlaySummary is printed when a play session ends.
type PlaySummary struct {
	Session string          `json:"session"`
	Board   string          `json:"board"`
	Summary journal.Summary `json:"summary"`
}

func (s PlaySummary) String() string {
	return fmt.Sprintf("session %s: %d game(s), best score %d",
		s.Session, s.Summary.Games, s.Summary.BestScore)
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Play Simon in the terminal.

Type one token per signal, separated by spaces or newlines. A token is a
signal number, name, key or label. "start" (or "s") begins a new game and
"quit" (or "q") ends the session.

With --db the session journal is recorded for "simon trace".

Examples:
  simon play
  simon play --board boards/pentatonic.cue
  simon play --seed 7 --db ./simon.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runPlay(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Board, "board", "", "CUE board file (default: $SIMON_BOARD or the classic board)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session journal to this SQLite database")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for a reproducible sequence")

	return cmd
}

func runPlay(ctx context.Context, opts *PlayOptions, in io.Reader, out io.Writer) error {
	w := &lockedWriter{w: out}

	b, err := resolveBoard(opts)
	if err != nil {
		return err
	}

	var seed *uint64
	switch {
	case opts.seedSet:
		seed = &opts.Seed
	case opts.Config.Seed != nil:
		seed = opts.Config.Seed
	}
	random := engine.DefaultRandom()
	if seed != nil {
		random = engine.NewSeededRandom(*seed)
	}

	var eng *engine.Engine
	rec := journal.NewRecorder(&terminalSink{w: w, board: b}, func() time.Duration { return eng.Now() })

	eng, err = engine.New(rec, b.Len(), engine.WithEngineRandom(random))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}
	rec.Attach(eng.Score(), eng.Status())
	watchGame(w, eng, b)

	sup := supervise.New("play")
	supervise.Add(sup, supervise.Func("engine", func(ctx context.Context) error {
		if err := eng.Run(ctx); err != nil {
			return err
		}
		return supervise.Done(nil)
	}))
	supervise.Add(sup, supervise.Func("input", inputService(w, eng, b, readLines(in))))

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DB
	}
	var st *store.Store
	if dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		labels := make([]string, b.Len())
		for i := range labels {
			labels[i] = b.Label(i)
		}
		err = st.CreateSession(ctx, store.Session{
			ID:      eng.SessionID(),
			Board:   b.Name,
			Labels:  labels,
			Signals: b.Len(),
			Seed:    seed,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create session", err)
		}

		entries := make(chan journal.Entry, 256)
		rec.OnEntry(func(e journal.Entry) {
			select {
			case entries <- e:
			default:
				slog.Warn("journal writer behind, entry deferred", "seq", e.Seq)
			}
		})
		supervise.Add(sup, supervise.Func("journal", journalService(st, eng.SessionID(), entries)))
	}

	fmt.Fprintf(w, "board %s: %s\n", b.Name, describeBoard(b))
	fmt.Fprintln(w, `type "start" to begin, "quit" to leave`)

	err = sup.Serve(ctx)
	eng.Stop()
	if err != nil && !errors.Is(err, suture.ErrTerminateSupervisorTree) && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "play session failed", err)
	}

	all := rec.Entries()
	if st != nil {
		// Entries are keyed by seq, so rewriting ones the writer already
		// stored is a no-op.
		if err := st.WriteEntries(context.Background(), eng.SessionID(), all); err != nil {
			return WrapExitError(ExitCommandError, "failed to write journal", err)
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: w}
	return formatter.Success(PlaySummary{
		Session: eng.SessionID(),
		Board:   b.Name,
		Summary: journal.Summarize(all),
	})
}

// resolveBoard prefers --board, then SIMON_BOARD, then the classic board.
func resolveBoard(opts *PlayOptions) (*board.Board, error) {
	path := opts.Board
	if path == "" {
		path = opts.Config.Board
	}
	if path == "" {
		return board.Default(), nil
	}

	b, err := board.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load board", err)
	}
	return b, nil
}

func describeBoard(b *board.Board) string {
	parts := make([]string, 0, b.Len())
	for _, s := range b.Signals {
		if s.Key != "" {
			parts = append(parts, fmt.Sprintf("%d=%s [%s]", s.Index, s.Label, s.Key))
		} else {
			parts = append(parts, fmt.Sprintf("%d=%s", s.Index, s.Label))
		}
	}
	return strings.Join(parts, " ")
}

// watchGame prints score and status changes. Subscribers run on the engine
// loop.
func watchGame(w io.Writer, eng *engine.Engine, b *board.Board) {
	eng.Score().SubscribeWhen(func(n int) bool { return n > 0 }, func(n int) {
		fmt.Fprintf(w, "score: %d\n", n)
	})
	eng.Status().Subscribe(func(s engine.Status) {
		switch s {
		case engine.StatusPlaying:
			fmt.Fprintln(w, "watch...")
		case engine.StatusAwaitingInput:
			fmt.Fprintln(w, "your turn")
		case engine.StatusIdle:
			fmt.Fprintf(w, "game over at score %d\n", eng.Score().Get())
		}
	})
}

// readLines feeds lines from r into a channel that is closed at EOF.
// The reader goroutine lives for the rest of the process: a blocked read
// on stdin cannot be interrupted.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("input read failed", "error", err)
		}
	}()
	return lines
}

// inputService turns player tokens into engine commands. On quit or EOF it
// stops the engine and waits; the engine service ends the tree once its
// queue is drained.
func inputService(w io.Writer, eng *engine.Engine, b *board.Board, lines <-chan string) func(context.Context) error {
	return func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-lines:
				if !ok {
					eng.Stop()
					<-ctx.Done()
					return ctx.Err()
				}
				if !handleLine(w, eng, b, line) {
					eng.Stop()
					<-ctx.Done()
					return ctx.Err()
				}
			}
		}
	}
}

// handleLine applies every token on a line. Returns false on quit.
//
// The command words are board.ReservedTokens; boards cannot use them, so
// they never shadow a signal.
func handleLine(w io.Writer, eng *engine.Engine, b *board.Board, line string) bool {
	for _, tok := range strings.Fields(line) {
		switch strings.ToLower(tok) {
		case "quit", "q", "exit":
			return false
		case "start", "s":
			if err := eng.StartGame(); err != nil {
				fmt.Fprintf(w, "%v\n", err)
			}
			continue
		case "help", "?":
			fmt.Fprintf(w, "signals: %s\n", describeBoard(b))
			continue
		}

		i, ok := b.Lookup(tok)
		if !ok {
			fmt.Fprintf(w, "unknown signal %q\n", tok)
			continue
		}
		if err := eng.SubmitInput(i); err != nil {
			fmt.Fprintf(w, "%v\n", err)
		}
	}
	return true
}

// journalService writes entries as they are recorded.
func journalService(st *store.Store, sessionID string, entries <-chan journal.Entry) func(context.Context) error {
	return func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case e := <-entries:
				if err := st.WriteEntry(ctx, sessionID, e); err != nil {
					slog.Warn("journal write failed", "session", sessionID, "seq", e.Seq, "error", err)
				}
			}
		}
	}
}

// terminalSink renders signal output as text lines. A line-based terminal
// has nothing to switch off, so Deactivate and ClearMark print nothing.
type terminalSink struct {
	w     io.Writer
	board *board.Board
}

func (s *terminalSink) Activate(id engine.SignalID) {
	fmt.Fprintf(s.w, "  ● %s\n", s.board.Label(int(id)))
}

func (s *terminalSink) Deactivate(engine.SignalID) {}

func (s *terminalSink) MarkOK(engine.SignalID) {
	fmt.Fprintln(s.w, "  ✓")
}

func (s *terminalSink) MarkFail(id engine.SignalID) {
	fmt.Fprintf(s.w, "  ✗ %s\n", s.board.Label(int(id)))
}

func (s *terminalSink) ClearMark(engine.SignalID) {}
