package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultReadConns   = 8
	defaultBusyTimeout = 5 * time.Second
	connMaxLifetime    = 15 * time.Minute
)

// DB holds one serialized writer and a pool of query-only readers over the
// same sqlite file.
type DB struct {
	WriteSQL *sql.DB
	ReadSQL  *sql.DB
	W        *bun.DB
	R        *bun.DB
}

// Options tunes the connection pools. Zero values fall back to defaults.
type Options struct {
	ReadConns   int
	BusyTimeout time.Duration
}

// OpenDB opens path with default options.
func OpenDB(path string) (*DB, error) {
	return Open(path, Options{})
}

// Open builds the writer (immediate transactions, single connection) and the
// reader pool. A missing file cannot be opened read-only, so the reader falls
// back to a query_only read-write handle until the writer has created it.
func Open(path string, opts Options) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if opts.ReadConns <= 0 {
		opts.ReadConns = defaultReadConns
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	busy := fmt.Sprint(opts.BusyTimeout.Milliseconds())

	wsql, err := sql.Open("sqlite3", dsn(path, "_foreign_keys", "on", "_busy_timeout", busy, "_txlock", "immediate"))
	if err != nil {
		return nil, fmt.Errorf("open write db: %w", err)
	}
	wsql.SetMaxOpenConns(1)
	wsql.SetConnMaxLifetime(connMaxLifetime)

	rsql, err := openReader(path, busy, opts.ReadConns)
	if err != nil {
		_ = wsql.Close()
		return nil, err
	}

	return &DB{
		WriteSQL: wsql,
		ReadSQL:  rsql,
		W:        bun.NewDB(wsql, sqlitedialect.New()),
		R:        bun.NewDB(rsql, sqlitedialect.New()),
	}, nil
}

func openReader(path, busy string, conns int) (*sql.DB, error) {
	rsql, err := sql.Open("sqlite3", dsn(path, "_foreign_keys", "on", "_busy_timeout", busy, "mode", "ro", "_query_only", "1"))
	if err != nil {
		return nil, fmt.Errorf("open read db: %w", err)
	}
	if pingErr := rsql.Ping(); pingErr != nil && strings.Contains(pingErr.Error(), "unable to open database file") {
		_ = rsql.Close()
		rsql, err = sql.Open("sqlite3", dsn(path, "_foreign_keys", "on", "_busy_timeout", busy, "_query_only", "1"))
		if err != nil {
			return nil, fmt.Errorf("open fallback read db: %w", err)
		}
	}
	rsql.SetMaxOpenConns(conns)
	rsql.SetConnMaxIdleTime(5 * time.Minute)
	rsql.SetConnMaxLifetime(connMaxLifetime)

	if _, err := rsql.Exec("PRAGMA query_only = ON"); err != nil {
		_ = rsql.Close()
		return nil, fmt.Errorf("enable read query_only: %w", err)
	}
	return rsql, nil
}

// dsn renders a file: URI with params given as key/value pairs in order.
func dsn(path string, kv ...string) string {
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	for i := 0; i+1 < len(kv); i += 2 {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[i+1]))
	}
	return b.String()
}

// Close closes both handles and reports every failure.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	var errs []error
	if db.W != nil {
		if err := db.W.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer: %w", err))
		}
	}
	if db.R != nil {
		if err := db.R.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader: %w", err))
		}
	}
	return errors.Join(errs...)
}
