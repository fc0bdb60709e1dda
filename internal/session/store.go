package session

import (
	"context"
	"errors"
	"time"

	"rebel-command/internal/game"
)

// SingleID is the key used when the server keeps one demo session.
const SingleID = "current"

const maxLog = 50

var (
	ErrNotFound        = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
)

// Entry is one applied choice in a session's log.
type Entry struct {
	At      time.Time `json:"at"`
	Phase   int       `json:"phase"`
	Choice  string    `json:"choice"`
	Message string    `json:"message"`
}

type Record struct {
	ID        string
	State     game.State
	Log       []Entry
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists session records. CompareAndSwap only writes when the stored
// version still equals version, and bumps it.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, rec Record) (Record, error)
	CompareAndSwap(ctx context.Context, id string, version int64, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context, before time.Time) (int, error)
	Close() error
}

func appendLog(log []Entry, e Entry) []Entry {
	out := make([]Entry, 0, minInt(len(log)+1, maxLog))
	if len(log)+1 > maxLog {
		log = log[len(log)+1-maxLog:]
	}
	out = append(out, log...)
	return append(out, e)
}

func cloneRecord(r Record) Record {
	r.Log = append([]Entry(nil), r.Log...)
	return r
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
