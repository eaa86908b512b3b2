package worm

import "context"

// TxBoundExecutor represents an executor bound to a transaction.
type TxBoundExecutor interface {
	Executor
	Commit() error
	Rollback() error
}

// TxExecutor represents an executor that supports transactions.
type TxExecutor interface {
	Executor
	BeginTx(ctx context.Context) (TxBoundExecutor, error)
}

// Tx executes a function within a transaction. The callback receives a
// DB bound to the transaction, sharing the registry, compiler and
// session lock of the parent.
func (db *DB) Tx(ctx context.Context, fn func(tx *DB) error) error {
	txExec, ok := db.exec.(TxExecutor)
	if !ok {
		return ErrNoTxSupport
	}

	bound, err := txExec.BeginTx(ctx)
	if err != nil {
		return err
	}

	txDB := &DB{
		mu:       db.mu,
		exec:     bound,
		compiler: db.compiler,
		tables:   db.tables,
		order:    db.order,
		log:      db.log,
		debug:    db.debug,
		migrate:  db.migrate,
	}

	if err := fn(txDB); err != nil {
		bound.Rollback()
		return err
	}

	return bound.Commit()
}
