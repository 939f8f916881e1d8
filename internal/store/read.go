package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/simon/internal/journal"
)

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner, withCount bool) (Session, error) {
	var (
		sess      Session
		labels    string
		seed      sql.NullInt64
		createdAt string
	)

	dest := []any{&sess.ID, &sess.Board, &labels, &sess.Signals, &seed, &createdAt}
	if withCount {
		dest = append(dest, &sess.Entries)
	}
	if err := row.Scan(dest...); err != nil {
		return Session{}, err
	}

	var err error
	if sess.Labels, err = unmarshalLabels(labels); err != nil {
		return Session{}, err
	}
	if seed.Valid {
		v := uint64(seed.Int64)
		sess.Seed = &v
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	return sess, nil
}

// ReadSession returns one session.
// Returns ErrNotFound (wrapped) if it does not exist.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, board, labels, signals, seed, created_at
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns every session with its entry count, oldest first.
// Session ids are UUIDv7, so ordering by id is ordering by creation.
//
// Returns an empty slice (not nil) if there are no sessions.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.board, s.labels, s.signals, s.seed, s.created_at,
		       (SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id)
		FROM sessions s
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadEntries returns a session's journal ordered by seq.
//
// Returns an empty slice (not nil) if the session has no entries.
func (s *Store) ReadEntries(ctx context.Context, sessionID string) ([]journal.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, at_ms, kind, signal, value
		FROM entries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []journal.Entry{}
	for rows.Next() {
		var (
			e    journal.Entry
			atMS int64
			kind string
		)
		if err := rows.Scan(&e.Seq, &atMS, &kind, &e.Signal, &e.Value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.At = time.Duration(atMS) * time.Millisecond
		e.Kind = journal.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// CountEntries returns how many entries of kind a session has.
func (s *Store) CountEntries(ctx context.Context, sessionID string, kind journal.Kind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entries WHERE session_id = ? AND kind = ?
	`, sessionID, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
