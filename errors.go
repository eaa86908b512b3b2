package worm

import "errors"

// ErrNotFound is returned when a query expecting a row finds none.
var ErrNotFound = errors.New("record not found")

// ErrMultiple is returned by Query.One() when more than one row matches.
var ErrMultiple = errors.New("multiple records returned")

// ErrValidation is returned when validate() finds a mismatch.
var ErrValidation = errors.New("validation error")

// ErrEmptyTable is returned when a model's table has an empty name.
var ErrEmptyTable = errors.New("empty table name")

// ErrUnknownField is returned on access to a field a table does not declare.
var ErrUnknownField = errors.New("unknown field")

// ErrUnsaved is returned when an operation needs a row's id and the row
// has never been saved.
var ErrUnsaved = errors.New("row is not saved")

// ErrDuplicateTable is returned by Register() for a name registered twice.
var ErrDuplicateTable = errors.New("duplicate table")

// ErrAbstractTable is returned when an abstract table is used as a
// physical one. Abstract tables only contribute fields to derived tables.
var ErrAbstractTable = errors.New("abstract table")

// ErrVirtualTable is returned when a write targets a backend pseudo-table.
var ErrVirtualTable = errors.New("cannot write to virtual table")

// ErrMigrationNeeded is returned by EnsureSchema when a registered table
// diverges from the stored schema and migrations are not enabled.
var ErrMigrationNeeded = errors.New("migrations needed, but not allowed")

// ErrManifest is returned for invalid schema manifest documents.
var ErrManifest = errors.New("invalid manifest")

// ErrNoTxSupport is returned by DB.Tx() when the executor does not
// implement TxExecutor.
var ErrNoTxSupport = errors.New("transaction not supported")
