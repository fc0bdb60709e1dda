package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"rebel-command/internal/game"
)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(single bool) (*Manager, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	m := NewManager(NewMemoryStore(), game.NewEngine(), WithSingleSession(single), WithClock(clock.now))
	return m, clock
}

func TestManagerSingleSessionUsesFixedKey(t *testing.T) {
	m, _ := newTestManager(true)
	ctx := context.Background()

	first, err := m.Create(ctx, "Wedge")
	require.NoError(t, err)
	assert.Equal(t, SingleID, first.ID)

	second, err := m.Create(ctx, "Porkins")
	require.NoError(t, err)
	assert.Equal(t, SingleID, second.ID)

	got, err := m.Get(ctx, SingleID)
	require.NoError(t, err)
	assert.Equal(t, "Porkins", got.State.Commander.Name)
}

func TestManagerMultiSessionIDs(t *testing.T) {
	m, _ := newTestManager(false)
	a, err := m.Create(context.Background(), "Wedge")
	require.NoError(t, err)
	b, err := m.Create(context.Background(), "Biggs")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
}

func TestManagerCreateRejectsBlankName(t *testing.T) {
	m, _ := newTestManager(true)
	_, err := m.Create(context.Background(), "   ")
	require.ErrorIs(t, err, game.ErrEmptyName)
}

func TestManagerChooseLogsAndVersions(t *testing.T) {
	m, clock := newTestManager(true)
	ctx := context.Background()
	_, err := m.Create(ctx, "Wedge")
	require.NoError(t, err)

	clock.advance(time.Minute)
	rec, msg, err := m.Choose(ctx, SingleID, "2")
	require.NoError(t, err)
	assert.Contains(t, msg, "mercenaries")
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, 2, rec.State.CurrentPhase())
	require.Len(t, rec.Log, 1)
	assert.Equal(t, 1, rec.Log[0].Phase)
	assert.Equal(t, "2", rec.Log[0].Choice)
	assert.True(t, rec.UpdatedAt.After(rec.CreatedAt))
}

func TestManagerChooseRejectionWritesNothing(t *testing.T) {
	m, _ := newTestManager(true)
	ctx := context.Background()
	created, err := m.Create(ctx, "Wedge")
	require.NoError(t, err)

	rec, msg, err := m.Choose(ctx, SingleID, "nine")
	require.ErrorIs(t, err, game.ErrInvalidChoice)
	assert.Contains(t, msg, "Invalid choice")
	assert.Equal(t, created.Version, rec.Version)

	_, _, err = m.Choose(ctx, SingleID, "3")
	require.ErrorIs(t, err, game.ErrRequirementNotMet)

	got, _ := m.Get(ctx, SingleID)
	assert.Equal(t, created.State, got.State)
	assert.Empty(t, got.Log)

	_, _, err = m.Choose(ctx, "nobody", "1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManagerConcurrentChoicesSerializePerSession(t *testing.T) {
	m, _ := newTestManager(false)
	ctx := context.Background()
	rec, err := m.Create(ctx, "Wedge")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Choose(ctx, rec.ID, "4")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	got, _ := m.Get(ctx, rec.ID)
	assert.Equal(t, int64(21), got.Version)
	assert.Len(t, got.Log, 20)
	assert.Empty(t, m.locks)
}

func TestManagerAbandon(t *testing.T) {
	m, _ := newTestManager(true)
	ctx := context.Background()
	_, err := m.Create(ctx, "Wedge")
	require.NoError(t, err)

	rec, err := m.Abandon(ctx, SingleID)
	require.NoError(t, err)
	assert.Equal(t, game.EndingAbandoned, rec.State.Ending())

	_, err = m.Get(ctx, SingleID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Abandon(ctx, SingleID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManagerSweep(t *testing.T) {
	m, clock := newTestManager(false)
	ctx := context.Background()
	old, err := m.Create(ctx, "Old")
	require.NoError(t, err)
	clock.advance(2 * time.Hour)
	fresh, err := m.Create(ctx, "Fresh")
	require.NoError(t, err)

	n, err := m.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = m.Get(ctx, old.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, fresh.ID)
	require.NoError(t, err)
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m, _ := newTestManager(false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.RunSweeper(ctx, 5*time.Millisecond, time.Hour) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
