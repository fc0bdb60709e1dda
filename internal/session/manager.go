package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rebel-command/internal/game"
)

// Manager runs game operations against a Store. Updates to one session are
// serialized by that session's lock; different sessions never wait on each
// other.
type Manager struct {
	store  Store
	engine *game.Engine
	log    *zap.Logger
	single bool
	now    func() time.Time
	newID  func() string

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type ManagerOption func(*Manager)

// WithSingleSession keys every new session as SingleID.
func WithSingleSession(single bool) ManagerOption {
	return func(m *Manager) { m.single = single }
}

func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(store Store, engine *game.Engine, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		engine: engine,
		log:    zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		locks:  map[string]*sessionLock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Engine() *game.Engine { return m.engine }

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// Create starts a new session. In single-session mode it replaces the
// previous demo session.
func (m *Manager) Create(ctx context.Context, commanderName string) (Record, error) {
	state, err := game.NewState(commanderName)
	if err != nil {
		return Record{}, err
	}
	id := SingleID
	if !m.single {
		id = m.newID()
	}
	unlock := m.lock(id)
	defer unlock()

	now := m.now()
	rec, err := m.store.Put(ctx, Record{
		ID:        id,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		m.log.Error("create session failed", zap.String("session", id), zap.Error(err))
		return Record{}, err
	}
	m.log.Info("session created", zap.String("session", id), zap.String("commander", state.Commander.Name))
	return rec, nil
}

func (m *Manager) Get(ctx context.Context, id string) (Record, error) {
	return m.store.Get(ctx, id)
}

// Choose applies one typed choice. Game-level errors (invalid choice, unmet
// requirement, finished game) come back with the unchanged record and the
// outcome message; nothing is written for them.
func (m *Manager) Choose(ctx context.Context, id, raw string) (Record, string, error) {
	unlock := m.lock(id)
	defer unlock()

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return Record{}, "", err
	}
	next, msg, err := m.engine.Apply(rec.State, raw)
	if err != nil {
		m.log.Debug("choice rejected", zap.String("session", id), zap.String("choice", raw), zap.Error(err))
		return rec, msg, err
	}

	now := m.now()
	updated := rec
	updated.State = next
	updated.UpdatedAt = now
	updated.Log = appendLog(rec.Log, Entry{
		At:      now,
		Phase:   rec.State.CurrentPhase(),
		Choice:  raw,
		Message: msg,
	})
	saved, err := m.store.CompareAndSwap(ctx, id, rec.Version, updated)
	if err != nil {
		m.log.Warn("commit choice failed", zap.String("session", id), zap.Error(err))
		return rec, "", err
	}
	if next.GameOver() {
		m.log.Info("session ended",
			zap.String("session", id),
			zap.String("ending", string(next.Ending())),
			zap.Int("phase", next.CurrentPhase()))
	}
	return saved, msg, nil
}

// Abandon ends the session and removes it. The returned record is the final
// abandoned state.
func (m *Manager) Abandon(ctx context.Context, id string) (Record, error) {
	unlock := m.lock(id)
	defer unlock()

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	rec.State = game.Abandon(rec.State)
	if err := m.store.Delete(ctx, id); err != nil {
		return Record{}, err
	}
	m.log.Info("session abandoned", zap.String("session", id))
	return rec, nil
}

// Sweep deletes sessions idle for longer than ttl.
func (m *Manager) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	n, err := m.store.Sweep(ctx, m.now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Info("idle sessions swept", zap.Int("count", n))
	}
	return n, nil
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, every, ttl time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Sweep(ctx, ttl); err != nil && ctx.Err() == nil {
				m.log.Warn("sweep failed", zap.Error(err))
			}
		}
	}
}
