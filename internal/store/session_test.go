package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simon/internal/journal"
)

func TestCreateSession_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seed := uint64(42)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := Session{
		ID:        "019500aa-0000-7000-8000-000000000001",
		Board:     "classic",
		Labels:    []string{"Red", "Blue", "Yellow", "Green"},
		Signals:   4,
		Seed:      &seed,
		CreatedAt: created,
	}
	require.NoError(t, s.CreateSession(ctx, want))

	got, err := s.ReadSession(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCreateSession_NoSeedNoLabels(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, Session{ID: "s-1", Board: "custom", Signals: 2}))

	got, err := s.ReadSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, got.Seed)
	assert.Equal(t, []string{}, got.Labels)
	assert.False(t, got.CreatedAt.IsZero(), "created_at defaults to now")
}

func TestCreateSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := Session{ID: "s-1", Board: "classic", Signals: 4}
	require.NoError(t, s.CreateSession(ctx, sess))
	require.NoError(t, s.CreateSession(ctx, sess))

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateSession_RejectsZeroSignals(t *testing.T) {
	s := createTestStore(t)
	err := s.CreateSession(context.Background(), Session{ID: "s-1", Board: "x"})
	assert.Error(t, err)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWriteEntry_ReadBackInSeqOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, Session{ID: "s-1", Board: "classic", Signals: 4}))

	entries := []journal.Entry{
		{Seq: 3, At: 800 * time.Millisecond, Kind: journal.KindActivate, Signal: 2},
		{Seq: 1, At: 0, Kind: journal.KindScore, Signal: -1, Value: "0"},
		{Seq: 2, At: 0, Kind: journal.KindStatus, Signal: -1, Value: "playing"},
	}
	for _, e := range entries {
		require.NoError(t, s.WriteEntry(ctx, "s-1", e))
	}

	got, err := s.ReadEntries(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "0 #1 score 0\n0 #2 status playing\n800 #3 activate 2\n", journal.Format(got))
}

func TestWriteEntry_DuplicateSeqIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, Session{ID: "s-1", Board: "classic", Signals: 4}))

	e := journal.Entry{Seq: 1, Kind: journal.KindScore, Signal: -1, Value: "0"}
	require.NoError(t, s.WriteEntry(ctx, "s-1", e))

	e.Value = "7"
	require.NoError(t, s.WriteEntry(ctx, "s-1", e))

	got, err := s.ReadEntries(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0", got[0].Value, "first write wins")
}

func TestWriteEntry_UnknownSessionFails(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteEntry(context.Background(), "ghost", journal.Entry{Seq: 1, Kind: journal.KindActivate})
	assert.Error(t, err, "foreign key must reject entries without a session")
}

func TestWriteEntries_Batch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, Session{ID: "s-1", Board: "classic", Signals: 4}))

	var batch []journal.Entry
	for i := 1; i <= 50; i++ {
		batch = append(batch, journal.Entry{Seq: int64(i), At: time.Duration(i) * time.Millisecond, Kind: journal.KindActivate, Signal: i % 4})
	}
	require.NoError(t, s.WriteEntries(ctx, "s-1", batch))

	got, err := s.ReadEntries(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, batch, got)
}

func TestWriteEntries_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.WriteEntries(ctx, "ghost", []journal.Entry{{Seq: 1, Kind: journal.KindActivate}})
	require.Error(t, err)

	got, err := s.ReadEntries(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadEntries_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadEntries(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListSessions_OrderAndCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, s.CreateSession(ctx, Session{ID: "b", Board: "classic", Signals: 4}))
	require.NoError(t, s.CreateSession(ctx, Session{ID: "a", Board: "classic", Signals: 4}))
	require.NoError(t, s.WriteEntry(ctx, "b", journal.Entry{Seq: 1, Kind: journal.KindScore, Value: "0"}))
	require.NoError(t, s.WriteEntry(ctx, "b", journal.Entry{Seq: 2, Kind: journal.KindStatus, Value: "playing"}))

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, 0, list[0].Entries)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, 2, list[1].Entries)
}

func TestDeleteSession_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, Session{ID: "s-1", Board: "classic", Signals: 4}))
	require.NoError(t, s.WriteEntry(ctx, "s-1", journal.Entry{Seq: 1, Kind: journal.KindScore, Value: "0"}))

	require.NoError(t, s.DeleteSession(ctx, "s-1"))

	got, err := s.ReadEntries(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	err = s.DeleteSession(ctx, "s-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCountEntries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, Session{ID: "s-1", Board: "classic", Signals: 4}))

	for i, k := range []journal.Kind{journal.KindMarkFail, journal.KindMarkOK, journal.KindMarkFail} {
		require.NoError(t, s.WriteEntry(ctx, "s-1", journal.Entry{Seq: int64(i + 1), Kind: k, Signal: 0}))
	}

	n, err := s.CountEntries(ctx, "s-1", journal.KindMarkFail)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
