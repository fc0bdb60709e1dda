package session

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"rebel-command/internal/game"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type Dialect string

const (
	DialectMemory   Dialect = "memory"
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Options selects and addresses the backing store.
type Options struct {
	Dialect     Dialect
	SQLitePath  string
	PostgresDSN string
}

// SQLStore keeps sessions in sqlite or postgres. The game state travels as a
// JSON payload; version guards concurrent writers.
type SQLStore struct {
	dialect Dialect
	db      *sql.DB
	log     *zap.Logger
}

type payload struct {
	State     game.State `json:"state"`
	Log       []Entry    `json:"log"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Open returns the store named by opts.Dialect.
func Open(ctx context.Context, opts Options, log *zap.Logger) (Store, error) {
	if opts.Dialect == "" || opts.Dialect == DialectMemory {
		return NewMemoryStore(), nil
	}
	return OpenSQL(ctx, opts, log)
}

func OpenSQL(ctx context.Context, opts Options, log *zap.Logger) (*SQLStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driverName, dsn, err := opts.driver()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Dialect, err)
	}
	if opts.Dialect == DialectSQLite {
		// sqlite takes one writer at a time.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{dialect: opts.Dialect, db: db, log: log}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("session store opened", zap.String("dialect", string(opts.Dialect)))
	return s, nil
}

// driver resolves the database/sql driver name and DSN for opts.
func (o Options) driver() (string, string, error) {
	switch o.Dialect {
	case DialectSQLite:
		file := strings.TrimSpace(o.SQLitePath)
		if file == "" {
			file = filepath.Join("tmp", "rebel_command.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return "", "", fmt.Errorf("create sqlite directory: %w", err)
		}
		return "sqlite", file, nil
	case DialectPostgres:
		dsn := strings.TrimSpace(o.PostgresDSN)
		if dsn == "" {
			return "", "", errors.New("postgres store requires a DSN")
		}
		return "pgx", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported dialect %q", o.Dialect)
	}
}

func (s *SQLStore) init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s database: %w", s.dialect, err)
	}
	return s.migrate(ctx)
}

func (s *SQLStore) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *SQLStore) binds(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = s.bind(i + 1)
	}
	return out
}

type migration struct {
	name       string
	statements []string
}

// migrate applies the embedded migrations for the store's dialect that
// schema_migrations has not recorded yet, one transaction per file.
func (s *SQLStore) migrate(ctx context.Context) error {
	const ledger = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_unix BIGINT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ledger); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	done, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(s.dialect, done)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := s.runMigration(ctx, m); err != nil {
			return err
		}
		s.log.Debug("migration applied", zap.String("file", m.name))
	}
	return nil
}

func (s *SQLStore) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		done[name] = true
	}
	return done, rows.Err()
}

// pendingMigrations lists migration files in name order, skipping done ones.
func pendingMigrations(dialect Dialect, done map[string]bool) ([]migration, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dialect, err)
	}
	var out []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" || done[name] {
			continue
		}
		body, err := migrationFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		m := migration{name: name}
		for _, stmt := range strings.Split(string(body), ";") {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				m.statements = append(m.statements, stmt)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *SQLStore) runMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: %w", m.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	record := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_unix) VALUES (%s, %s)", s.bind(1), s.bind(2))
	if _, err := tx.ExecContext(ctx, record, m.name, time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("record migration %s: %w", m.name, err)
	}
	return tx.Commit()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	q := fmt.Sprintf("SELECT version, payload FROM sessions WHERE id = %s", s.bind(1))
	var (
		version int64
		raw     string
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select session %s: %w", id, err)
	}
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Record{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return Record{
		ID:        id,
		State:     p.State,
		Log:       p.Log,
		Version:   version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (s *SQLStore) Put(ctx context.Context, rec Record) (Record, error) {
	raw, err := encodePayload(rec)
	if err != nil {
		return Record{}, err
	}
	rec.Version = 1
	q := fmt.Sprintf(`
		INSERT INTO sessions (id, version, phase, payload, created_unix, updated_unix)
		VALUES (%s, %s, %s, %s, %s, %s)
		ON CONFLICT (id) DO UPDATE SET
			version = excluded.version,
			phase = excluded.phase,
			payload = excluded.payload,
			created_unix = excluded.created_unix,
			updated_unix = excluded.updated_unix
	`, s.binds(6)...)
	_, err = s.db.ExecContext(ctx, q,
		rec.ID, rec.Version, rec.State.CurrentPhase(), raw,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("upsert session %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *SQLStore) CompareAndSwap(ctx context.Context, id string, version int64, rec Record) (Record, error) {
	rec.ID = id
	raw, err := encodePayload(rec)
	if err != nil {
		return Record{}, err
	}
	q := fmt.Sprintf(`
		UPDATE sessions SET version = version + 1, phase = %s, payload = %s, updated_unix = %s
		WHERE id = %s AND version = %s
	`, s.binds(5)...)
	res, err := s.db.ExecContext(ctx, q, rec.State.CurrentPhase(), raw, rec.UpdatedAt.UnixNano(), id, version)
	if err != nil {
		return Record{}, fmt.Errorf("update session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, fmt.Errorf("update session %s: %w", id, err)
	}
	if n == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return Record{}, err
		}
		return Record{}, ErrVersionConflict
	}
	rec.Version = version + 1
	return rec, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM sessions WHERE id = %s", s.bind(1)), id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Sweep(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM sessions WHERE updated_unix < %s", s.bind(1)), before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return int(n), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func encodePayload(rec Record) (string, error) {
	b, err := json.Marshal(payload{
		State:     rec.State,
		Log:       rec.Log,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("encode session %s: %w", rec.ID, err)
	}
	return string(b), nil
}

var _ Store = (*SQLStore)(nil)
