// Package worm is a minimal object-relational mapping layer over a single
// embedded SQLite backend.
//
// A Table is a declarative description of one table's schema: an ordered set
// of Field descriptors. Its CreateSQL form is the CREATE TABLE statement; its
// String form is the bare table name. The two renderings are deliberately
// distinct and must never be conflated.
//
// A Row holds field values for one table row. Values are readable and
// writable both by field name and by declaration-order index. Rows are
// persisted with DB.Save (insert-or-replace) and removed with DB.Delete;
// the two operations are independent and neither implies the other.
//
// Queries are chainable objects bound to a Table. A query object renders to
// exactly one SQL statement, so its schema form and reference form are the
// same text.
//
// This package imports only [database/sql]. The driver lives in the sqlite
// subpackage, which opens an in-memory database by default.
package worm
