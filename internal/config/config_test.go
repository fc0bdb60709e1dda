package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rebel-command/internal/session"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REBEL_ADDR", "DB_DIALECT", "DB_SQLITE_PATH", "DB_POSTGRES_DSN", "DATABASE_URL",
		"REBEL_SINGLE_SESSION", "REBEL_SESSION_TTL", "REBEL_SWEEP_EVERY", "REBEL_GAMBIT",
		"REBEL_LOG_LEVEL", "REBEL_NARRATIVE_FILE", "REBEL_WS_ORIGINS",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "memory", cfg.Dialect)
	assert.True(t, cfg.SingleSession)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "parity", cfg.Gambit)
	assert.Empty(t, cfg.WSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DIALECT", " SQLite ")
	t.Setenv("DB_SQLITE_PATH", "/tmp/x.sqlite")
	t.Setenv("REBEL_SINGLE_SESSION", "false")
	t.Setenv("REBEL_GAMBIT", "random")
	t.Setenv("REBEL_SESSION_TTL", "30m")
	t.Setenv("REBEL_WS_ORIGINS", "rebels.example,*.yavin.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, session.Options{Dialect: session.DialectSQLite, SQLitePath: "/tmp/x.sqlite"}, cfg.StoreOptions())
	assert.False(t, cfg.SingleSession)
	assert.Equal(t, "random", cfg.Gambit)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"rebels.example", "*.yavin.example"}, cfg.WSOrigins)
}

func TestLoadPostgresFallsBackToDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DIALECT", "postgres")
	_, err := Load()
	require.ErrorContains(t, err, "requires DB_POSTGRES_DSN or DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://rebel@localhost/rebel")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://rebel@localhost/rebel", cfg.StoreOptions().PostgresDSN)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DIALECT", "bogus")
	_, err := Load()
	require.ErrorContains(t, err, "unsupported DB_DIALECT")

	clearEnv(t)
	t.Setenv("REBEL_GAMBIT", "loaded")
	_, err = Load()
	require.ErrorContains(t, err, "unsupported REBEL_GAMBIT")

	clearEnv(t)
	t.Setenv("REBEL_SESSION_TTL", "soon")
	_, err = Load()
	require.Error(t, err)
}
