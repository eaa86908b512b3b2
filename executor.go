package worm

import "context"

// Result reports what a statement did: the rowid assigned by an insert
// and the number of rows touched.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Executor represents the database connection abstraction.
// It must remain compatible with sql.DB, sql.Tx and mocks.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Scanner
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Close() error
}

// Scanner represents a single row scanner.
type Scanner interface {
	Scan(dest ...any) error
}

// Rows represents an iterator over query results.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}
