// Package db is the database collaborator handed to the repositories: a
// connection pool with its SQL dialect, transactions, an availability flag
// and helpers to scan, create and verify the registered tables.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/bakeryops/bakery-maint/internal/config"
)

// Executor runs statements. Both *Database and *sql.Tx satisfy it, so
// repository code reads the same inside and outside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database wraps a connection pool with its dialect and availability.
type Database struct {
	db      *sql.DB
	dialect Dialect

	// writeMu serializes write transactions on sqlite, which has a single
	// writer. SQL Server relies on its own locking.
	writeMu sync.Mutex

	available atomic.Bool
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: failed to open database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1) // Single writer
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxPoolSize)
		sqlDB.SetMaxIdleConns(cfg.MaxPoolSize)
		sqlDB.SetConnMaxIdleTime(30 * time.Second)
	}

	d := &Database{db: sqlDB, dialect: dialect}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("db: failed to connect: %w", err)
	}
	d.available.Store(true)

	return d, nil
}

// DSN builds the driver connection string for cfg.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("db: sqlite path is required")
		}
		q := url.Values{}
		q.Set("_journal_mode", "WAL")
		q.Set("_busy_timeout", "5000")
		q.Set("_foreign_keys", "on")
		return "file:" + cfg.Path + "?" + q.Encode(), nil

	case DriverSQLServer:
		q := url.Values{}
		q.Set("database", cfg.Name)
		q.Set("encrypt", strconv.FormatBool(cfg.Encrypt))
		q.Set("TrustServerCertificate", strconv.FormatBool(cfg.TrustServerCertificate))
		if cfg.ConnectTimeout > 0 {
			q.Set("connection timeout", strconv.Itoa(int(cfg.ConnectTimeout/time.Second)))
		}
		host := cfg.Server
		if cfg.Port > 0 {
			host = fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
		}
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     host,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	default:
		return "", fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// Dialect returns the SQL dialect of the connection.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// Available reports whether the last health check succeeded.
func (d *Database) Available() bool {
	return d.available.Load()
}

// SetAvailable records the outcome of a health check.
func (d *Database) SetAvailable(ok bool) {
	d.available.Store(ok)
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// ExecContext executes a statement outside a transaction.
func (d *Database) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query outside a transaction.
func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query outside a transaction.
func (d *Database) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// InTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. fn must use only the executor it is given.
func (d *Database) InTx(ctx context.Context, fn func(tx Executor) error) error {
	if d.dialect.Name() == DriverSQLite {
		d.writeMu.Lock()
		defer d.writeMu.Unlock()
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db: failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	d.available.Store(false)
	return d.db.Close()
}

func namedTable(table string) sql.NamedArg {
	return sql.Named("table", table)
}
