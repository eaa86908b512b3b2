package worm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DB owns the session to the embedded backend: an Executor, the dialect
// Compiler, and the registry of table descriptors. It is the single
// consolidated entry point; consumers instantiate it via New() or
// sqlite.Open().
//
// Concurrency contract: writes are serialized under a session lock.
// Reads go straight to the executor, which must itself be safe for
// concurrent use, as database/sql is. Nothing beyond that is promised.
type DB struct {
	mu       *sync.Mutex
	exec     Executor
	compiler Compiler
	tables   map[string]*Table
	order    []string
	log      *slog.Logger
	debug    bool
	migrate  bool
}

// Option configures a DB at construction time.
type Option func(*DB)

// WithLogger sets the structured logger used for tracing and errors.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.log = l }
}

// WithDebug traces every compiled statement and its arguments at debug
// level.
func WithDebug() Option {
	return func(db *DB) { db.debug = true }
}

// WithMigrations allows EnsureSchema to rebuild diverged tables instead
// of failing with ErrMigrationNeeded.
func WithMigrations() Option {
	return func(db *DB) { db.migrate = true }
}

// New creates a new DB instance over an executor and a dialect compiler.
func New(exec Executor, compiler Compiler, opts ...Option) *DB {
	db := &DB{
		mu:       &sync.Mutex{},
		exec:     exec,
		compiler: compiler,
		tables:   make(map[string]*Table),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Register records table descriptors for EnsureSchema and reference
// resolution. Duplicate names and abstract tables are rejected; virtual
// tables are recorded but never created.
func (db *DB) Register(tables ...*Table) error {
	for _, t := range tables {
		if t.Name == "" {
			return ErrEmptyTable
		}
		if t.Abstract {
			return fmt.Errorf("%w: %s", ErrAbstractTable, t)
		}
		if _, dup := db.tables[t.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTable, t)
		}
		for _, f := range t.Fields() {
			if !literalOK(f.Default) {
				return fmt.Errorf("%w: %s.%s default %T has no literal form", ErrValidation, t, f.Name, f.Default)
			}
		}
		db.tables[t.Name] = t
		db.order = append(db.order, t.Name)
	}
	return nil
}

// TableByName returns a registered table descriptor.
func (db *DB) TableByName(name string) (*Table, bool) {
	t, ok := db.tables[name]
	return t, ok
}

// Save writes the model as one table row, inserting or replacing keyed
// on the primary key. An unsaved model receives the assigned rowid.
// Save never deletes; it is independent of Delete.
func (db *DB) Save(ctx context.Context, m Model) error {
	if err := validate(ActionUpsert, m); err != nil {
		return err
	}
	t := m.Table()
	plan, err := db.compiler.Compile(Statement{
		Action:  ActionUpsert,
		Table:   t,
		Columns: t.Columns(),
		Values:  m.Values(),
	})
	if err != nil {
		return err
	}
	res, err := db.run(ctx, plan)
	if err != nil {
		return err
	}
	if _, saved := modelKey(m); !saved && res.LastInsertID != 0 {
		writeKey(m, res.LastInsertID)
	}
	return nil
}

// Delete removes the model's row, keyed on the primary key, and clears
// the model's key. Deleting a never-saved model is ErrUnsaved.
// Delete never writes field values; it is independent of Save.
func (db *DB) Delete(ctx context.Context, m Model) error {
	if err := validate(ActionDeleteByKey, m); err != nil {
		return err
	}
	key, saved := modelKey(m)
	if !saved {
		return fmt.Errorf("%w: %s", ErrUnsaved, m.Table())
	}
	plan, err := db.compiler.Compile(Statement{
		Action: ActionDeleteByKey,
		Table:  m.Table(),
		Values: []any{key},
	})
	if err != nil {
		return err
	}
	if _, err := db.run(ctx, plan); err != nil {
		return err
	}
	clearKey(m)
	return nil
}

// Find starts a query against a table. The table does not need to be
// registered; virtual tables are queryable here.
func (db *DB) Find(t *Table) *Query {
	return &Query{db: db, table: t}
}

// Exec runs raw SQL through the guarded session.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return db.run(ctx, Plan{SQL: query, Args: args})
}

// Close closes the underlying executor.
func (db *DB) Close() error {
	return db.exec.Close()
}

// RawExecutor returns the underlying executor instance.
func (db *DB) RawExecutor() Executor {
	return db.exec
}

// run executes a write plan under the session lock. Failed statements
// are logged with their SQL text before the error returns.
func (db *DB) run(ctx context.Context, plan Plan) (Result, error) {
	db.trace(plan)
	db.mu.Lock()
	defer db.mu.Unlock()
	res, err := db.exec.Exec(ctx, plan.SQL, plan.Args...)
	if err != nil {
		db.log.Error("failed to execute query", "sql", plan.SQL, "args", plan.Args, "err", err)
		return Result{}, err
	}
	return res, nil
}

func (db *DB) queryRow(ctx context.Context, plan Plan) Scanner {
	db.trace(plan)
	return db.exec.QueryRow(ctx, plan.SQL, plan.Args...)
}

func (db *DB) query(ctx context.Context, plan Plan) (Rows, error) {
	db.trace(plan)
	rows, err := db.exec.Query(ctx, plan.SQL, plan.Args...)
	if err != nil {
		db.log.Error("failed to execute query", "sql", plan.SQL, "args", plan.Args, "err", err)
	}
	return rows, err
}

func (db *DB) trace(plan Plan) {
	if db.debug {
		db.log.Debug("exec", "sql", plan.SQL, "args", plan.Args)
	}
}

// writeKey stores an assigned rowid back into the model's key slot.
func writeKey(m Model, id int64) {
	_, i, ok := m.Table().PrimaryKey()
	if !ok {
		return
	}
	switch p := m.Pointers()[i].(type) {
	case *any:
		*p = id
	case *int64:
		*p = id
	case *int:
		*p = int(id)
	}
}

// clearKey marks the model unsaved after a delete.
func clearKey(m Model) {
	_, i, ok := m.Table().PrimaryKey()
	if !ok {
		return
	}
	switch p := m.Pointers()[i].(type) {
	case *any:
		*p = nil
	case *int64:
		*p = 0
	case *int:
		*p = 0
	}
}
