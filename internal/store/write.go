package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/simon/internal/journal"
)

// CreateSession inserts a session row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	if sess.Signals < 1 {
		return fmt.Errorf("create session %s: signals must be positive", sess.ID)
	}

	labels, err := marshalLabels(sess.Labels)
	if err != nil {
		return fmt.Errorf("create session %s: %w", sess.ID, err)
	}

	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var seed sql.NullInt64
	if sess.Seed != nil {
		seed = sql.NullInt64{Int64: int64(*sess.Seed), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, board, labels, signals, seed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Board,
		labels,
		sess.Signals,
		seed,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", sess.ID, err)
	}
	return nil
}

// WriteEntry appends one journal entry to a session.
// Duplicate (session, seq) pairs are silently ignored.
//
// Note: The session must exist (foreign key constraint).
func (s *Store) WriteEntry(ctx context.Context, sessionID string, e journal.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (session_id, seq, at_ms, kind, signal, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		sessionID,
		e.Seq,
		e.At.Milliseconds(),
		string(e.Kind),
		e.Signal,
		e.Value,
	)
	if err != nil {
		return fmt.Errorf("write entry %s#%d: %w", sessionID, e.Seq, err)
	}
	return nil
}

// WriteEntries appends entries in a single transaction.
func (s *Store) WriteEntries(ctx context.Context, sessionID string, entries []journal.Entry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entries (session_id, seq, at_ms, kind, signal, value)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id, seq) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("prepare entries: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, sessionID, e.Seq, e.At.Milliseconds(), string(e.Kind), e.Signal, e.Value); err != nil {
				return fmt.Errorf("write entry %s#%d: %w", sessionID, e.Seq, err)
			}
		}
		return nil
	})
}

// DeleteSession removes a session and, by cascade, its entries.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrNotFound)
	}
	return nil
}
