package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"rebel-command/internal/session"
)

// Config is read from the environment; CLI flags may override it afterwards.
type Config struct {
	Addr          string        `env:"REBEL_ADDR"            envDefault:":8080"`
	Dialect       string        `env:"DB_DIALECT"            envDefault:"memory"`
	SQLitePath    string        `env:"DB_SQLITE_PATH"        envDefault:"tmp/rebel_command.sqlite"`
	PostgresDSN   string        `env:"DB_POSTGRES_DSN"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	SingleSession bool          `env:"REBEL_SINGLE_SESSION"  envDefault:"true"`
	SessionTTL    time.Duration `env:"REBEL_SESSION_TTL"     envDefault:"24h"`
	SweepEvery    time.Duration `env:"REBEL_SWEEP_EVERY"     envDefault:"1h"`
	Gambit        string        `env:"REBEL_GAMBIT"          envDefault:"parity"`
	LogLevel      string        `env:"REBEL_LOG_LEVEL"       envDefault:"info"`
	NarrativeFile string        `env:"REBEL_NARRATIVE_FILE"`
	WSOrigins     []string      `env:"REBEL_WS_ORIGINS"      envSeparator:","`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
	cfg.Gambit = strings.ToLower(strings.TrimSpace(cfg.Gambit))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch session.Dialect(c.Dialect) {
	case session.DialectMemory, session.DialectSQLite:
	case session.DialectPostgres:
		if c.postgresDSN() == "" {
			return errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported DB_DIALECT %q", c.Dialect)
	}
	switch c.Gambit {
	case "parity", "random":
	default:
		return fmt.Errorf("unsupported REBEL_GAMBIT %q", c.Gambit)
	}
	if c.SessionTTL <= 0 || c.SweepEvery <= 0 {
		return errors.New("REBEL_SESSION_TTL and REBEL_SWEEP_EVERY must be positive")
	}
	return nil
}

func (c Config) postgresDSN() string {
	if dsn := strings.TrimSpace(c.PostgresDSN); dsn != "" {
		return dsn
	}
	return strings.TrimSpace(c.DatabaseURL)
}

// StoreOptions maps the config onto session store options.
func (c Config) StoreOptions() session.Options {
	return session.Options{
		Dialect:     session.Dialect(c.Dialect),
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.postgresDSN(),
	}
}
