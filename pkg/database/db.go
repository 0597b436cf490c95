// Package database opens the SQLite store that holds accounts.
package database

import (
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultBusyTimeout  = 5 * time.Second
	defaultMaxOpenConns = 4
)

type Config struct {
	Path string
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig reads TORRENTFRONT_DB_PATH and TORRENTFRONT_DB_BUSY_TIMEOUT,
// falling back to ~/.torrentfront/data.db.
func DefaultConfig() Config {
	cfg := Config{Path: os.Getenv("TORRENTFRONT_DB_PATH")}
	if cfg.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		cfg.Path = filepath.Join(home, ".torrentfront", "data.db")
	}
	if v := os.Getenv("TORRENTFRONT_DB_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BusyTimeout = d
		} else {
			log.WithField("value", v).Warn("ignoring invalid TORRENTFRONT_DB_BUSY_TIMEOUT")
		}
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	return c
}

// DSN is the go-sqlite3 connection string. Pragmas ride on the DSN so every
// pooled connection gets them, not only the first.
func (c Config) DSN() string {
	c = c.withDefaults()
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", strconv.FormatInt(c.BusyTimeout.Milliseconds(), 10))
	return "file:" + c.Path + "?" + q.Encode()
}

func Open(cfg Config) (*sql.DB, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, errors.Wrap(err, "ensure data dir")
	}

	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping sqlite %s", cfg.Path)
	}

	log.WithFields(log.Fields{
		"path":         cfg.Path,
		"busy_timeout": cfg.BusyTimeout,
	}).Debug("sqlite opened")
	return db, nil
}

func MustOpen(cfg Config) *sql.DB {
	db, err := Open(cfg)
	if err != nil {
		log.WithError(err).WithField("path", cfg.Path).Fatal("failed to open db")
	}
	return db
}
