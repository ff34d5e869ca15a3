// Package database opens the relational engine that generated statements run
// against. The URL scheme selects the driver and the SQL dialect the prompt
// asks for.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/askdata/askdata/internal/nl2sql"
)

const pingTimeout = 5 * time.Second

type Driver string

const (
	DriverPostgres Driver = "pgx"
	DriverDuckDB   Driver = "duckdb"
	DriverSQLite   Driver = "sqlite"
)

type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	// ParquetViews is "table=path,table=path"; DuckDB only.
	ParquetViews string
}

type Target struct {
	Driver Driver
	DSN    string
}

// Dialect names the SQL flavour the driver speaks.
func (t Target) Dialect() nl2sql.Dialect {
	switch t.Driver {
	case DriverDuckDB:
		return nl2sql.DialectDuckDB
	case DriverSQLite:
		return nl2sql.DialectSQLite
	default:
		return nl2sql.DialectPostgres
	}
}

// ParseURL maps a database URL onto a driver name and the DSN that driver
// expects. postgres URLs are passed through untouched; duckdb:// and
// sqlite:// carry a file path, and an empty path means in-memory.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("database url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse database url: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		return Target{Driver: DriverPostgres, DSN: raw}, nil
	case "duckdb":
		return Target{Driver: DriverDuckDB, DSN: filePath(raw, scheme)}, nil
	case "sqlite", "sqlite3":
		path := filePath(raw, scheme)
		if path == "" {
			path = ":memory:"
		}
		return Target{Driver: DriverSQLite, DSN: path}, nil
	default:
		return Target{}, fmt.Errorf("unsupported database url scheme %q", parsed.Scheme)
	}
}

func filePath(raw, scheme string) string {
	path := raw[len(scheme):]
	path = strings.TrimPrefix(path, ":")
	path = strings.TrimPrefix(path, "//")
	return path
}

// Open connects, applies pool settings and verifies the connection with a
// bounded ping. DuckDB views over parquet files are created before returning.
func Open(ctx context.Context, cfg Config) (*sql.DB, Target, error) {
	target, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, Target{}, err
	}
	views, err := ParseParquetViews(cfg.ParquetViews)
	if err != nil {
		return nil, Target{}, err
	}
	if len(views) > 0 && target.Driver != DriverDuckDB {
		return nil, Target{}, fmt.Errorf("parquet views require a duckdb database url")
	}

	db, err := sql.Open(string(target.Driver), target.DSN)
	if err != nil {
		return nil, Target{}, fmt.Errorf("open %s db: %w", target.Driver, err)
	}
	applyPool(db, target, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Target{}, fmt.Errorf("ping %s db: %w", target.Driver, err)
	}

	if err := createParquetViews(ctx, db, views); err != nil {
		_ = db.Close()
		return nil, Target{}, err
	}
	return db, target, nil
}

func applyPool(db *sql.DB, target Target, cfg Config) {
	// Every in-memory connection would otherwise see its own empty database.
	if target.DSN == ":memory:" || (target.Driver == DriverDuckDB && target.DSN == "") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
