// Package sqlite is the embedded backend for worm. It owns the driver
// import and produces sessions over database/sql; the worm package
// itself never sees a driver.
//
// The zero-value DSN is a shared in-memory database, which makes tests
// need no setup at all:
//
//	db, err := sqlite.Open("")
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/wormdb/worm"
	_ "modernc.org/sqlite" // driver: sqlite
)

// DefaultDSN names a shared in-memory database.
const DefaultDSN = "file::memory:?cache=shared"

const openTimeout = 5 * time.Second

// Open establishes the session and returns a DB using the SQLite
// dialect. An empty dsn opens DefaultDSN. The connection pool is
// clamped to a single connection; worm serializes access on top of it.
func Open(dsn string, opts ...worm.Option) (*worm.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	if _, err := pool.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = pool.Close()
		return nil, err
	}

	e := &Executor{pool: pool}
	if strings.Contains(dsn, "memory") {
		// a second handle pins shared in-memory databases; otherwise the
		// data vanishes whenever the pool recycles its one connection
		ka, err := sql.Open("sqlite", dsn)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		if err := ka.PingContext(ctx); err != nil {
			_ = pool.Close()
			_ = ka.Close()
			return nil, err
		}
		e.keepAlive = ka
	}

	return worm.New(e, worm.SQLite{}, opts...), nil
}

// FromEnv opens the database described by WORM_DSN, WORM_DEBUG and
// WORM_AUTO_MIGRATE, falling back to the in-memory default.
func FromEnv(opts ...worm.Option) (*worm.DB, error) {
	if envBool("WORM_DEBUG") {
		opts = append(opts, worm.WithDebug())
	}
	if envBool("WORM_AUTO_MIGRATE") {
		opts = append(opts, worm.WithMigrations())
	}
	return Open(os.Getenv("WORM_DSN"), opts...)
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Executor adapts a database/sql pool to the worm executor contract.
type Executor struct {
	pool      *sql.DB
	keepAlive *sql.DB
}

var (
	_ worm.Executor   = (*Executor)(nil)
	_ worm.TxExecutor = (*Executor)(nil)
)

// Exec runs a statement and reports the assigned rowid and rows touched.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (worm.Result, error) {
	return execResult(e.pool.ExecContext(ctx, query, args...))
}

// QueryRow runs a query expected to return at most one row.
func (e *Executor) QueryRow(ctx context.Context, query string, args ...any) worm.Scanner {
	return e.pool.QueryRowContext(ctx, query, args...)
}

// Query runs a query returning an iterator over its rows.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (worm.Rows, error) {
	rows, err := e.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BeginTx starts a transaction bound to the session connection.
func (e *Executor) BeginTx(ctx context.Context) (worm.TxBoundExecutor, error) {
	tx, err := e.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txExecutor{tx: tx}, nil
}

// Close releases the pool and any in-memory keep-alive handle.
func (e *Executor) Close() error {
	if e.keepAlive != nil {
		return errors.Join(e.pool.Close(), e.keepAlive.Close())
	}
	return e.pool.Close()
}

// txExecutor is the executor bound to one open transaction.
type txExecutor struct {
	tx *sql.Tx
}

var _ worm.TxBoundExecutor = (*txExecutor)(nil)

func (e *txExecutor) Exec(ctx context.Context, query string, args ...any) (worm.Result, error) {
	return execResult(e.tx.ExecContext(ctx, query, args...))
}

func (e *txExecutor) QueryRow(ctx context.Context, query string, args ...any) worm.Scanner {
	return e.tx.QueryRowContext(ctx, query, args...)
}

func (e *txExecutor) Query(ctx context.Context, query string, args ...any) (worm.Rows, error) {
	rows, err := e.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (e *txExecutor) Commit() error   { return e.tx.Commit() }
func (e *txExecutor) Rollback() error { return e.tx.Rollback() }

// Close is a no-op; the transaction owns no resources beyond Commit and
// Rollback.
func (e *txExecutor) Close() error { return nil }

func execResult(res sql.Result, err error) (worm.Result, error) {
	if err != nil {
		return worm.Result{}, err
	}
	out := worm.Result{}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}
