package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rebel-command/internal/game"
)

func newRecord(t *testing.T, id string, at time.Time) Record {
	t.Helper()
	s, err := game.NewState("Biggs")
	require.NoError(t, err)
	return Record{ID: id, State: s, CreatedAt: at, UpdatedAt: at}
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	rec, err := store.Put(ctx, newRecord(t, "a", now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, rec.State, got.State)
	assert.Equal(t, int64(1), got.Version)
	assert.True(t, got.CreatedAt.Equal(now))

	next := got
	next.State.Phase = game.Preparations{Made: 1}
	next.Log = []Entry{{At: now, Phase: 1, Choice: "2", Message: "ok"}}
	next.UpdatedAt = now.Add(time.Minute)
	saved, err := store.CompareAndSwap(ctx, "a", 1, next)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	_, err = store.CompareAndSwap(ctx, "a", 1, next)
	require.ErrorIs(t, err, ErrVersionConflict)
	_, err = store.CompareAndSwap(ctx, "nobody", 1, next)
	require.ErrorIs(t, err, ErrNotFound)

	got, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, game.Preparations{Made: 1}, got.State.Phase)
	require.Len(t, got.Log, 1)
	assert.Equal(t, "ok", got.Log[0].Message)

	_, err = store.Put(ctx, newRecord(t, "b", now.Add(-48*time.Hour)))
	require.NoError(t, err)
	n, err := store.Sweep(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = store.Get(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "a"))
	require.ErrorIs(t, store.Delete(ctx, "a"), ErrNotFound)
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreCopiesLogs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := newRecord(t, "a", time.Now())
	rec.Log = []Entry{{Message: "first"}}
	_, err := store.Put(ctx, rec)
	require.NoError(t, err)

	rec.Log[0].Message = "mutated"
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Log[0].Message)

	got.Log[0].Message = "mutated again"
	again, _ := store.Get(ctx, "a")
	assert.Equal(t, "first", again.Log[0].Message)
}

func TestAppendLogCaps(t *testing.T) {
	var log []Entry
	for i := 0; i < maxLog+7; i++ {
		log = appendLog(log, Entry{Phase: i})
	}
	require.Len(t, log, maxLog)
	assert.Equal(t, 7, log[0].Phase)
	assert.Equal(t, maxLog+6, log[len(log)-1].Phase)
}
