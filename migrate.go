package worm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MasterTable describes the backend's schema catalog, sqlite_master.
// It is virtual: queryable through Find, never created or written.
var MasterTable = NewVirtualTable("sqlite_master",
	Field{Name: "type", Type: TypeText},
	Field{Name: "name", Type: TypeText},
	Field{Name: "tbl_name", Type: TypeText},
	Field{Name: "rootpage", Type: TypeInt},
	Field{Name: "sql", Type: TypeText},
)

// TableDiff records how a registered table diverges from the stored
// schema.
type TableDiff struct {
	Table   string
	Added   []string // declared here, missing in storage
	Removed []string // stored, no longer declared
	Shared  []string // carried across a rebuild
}

func (d TableDiff) String() string {
	return fmt.Sprintf("%s: +(%s) -(%s)", d.Table, strings.Join(d.Added, ", "), strings.Join(d.Removed, ", "))
}

// MigrationError aggregates every pending diff when migrations are
// needed but not allowed.
type MigrationError struct {
	Diffs []TableDiff
}

func (e *MigrationError) Error() string {
	lines := make([]string, len(e.Diffs))
	for i, d := range e.Diffs {
		lines[i] = "\t" + d.String()
	}
	return ErrMigrationNeeded.Error() + ":\n" + strings.Join(lines, "\n")
}

func (e *MigrationError) Unwrap() error { return ErrMigrationNeeded }

// EnsureSchema reconciles every registered table with the backend.
// Missing tables are created outright; that is not a migration. A table
// whose stored CREATE TABLE text differs from its descriptor is
// rebuilt when WithMigrations was given, and reported in a
// MigrationError otherwise. Virtual tables are skipped.
func (db *DB) EnsureSchema(ctx context.Context) error {
	existing, err := db.storedTables(ctx)
	if err != nil {
		return err
	}

	var pending, performed []TableDiff
	for _, name := range db.order {
		t := db.tables[name]
		if t.Virtual {
			continue
		}
		create := t.CreateSQL()
		stored, ok := existing[name]
		if !ok {
			if _, err := db.run(ctx, Plan{Action: ActionCreateTable, SQL: create}); err != nil {
				return err
			}
			continue
		}
		if stored == create {
			db.log.Debug("table ok", "table", name)
			continue
		}
		diff, err := db.tableDiff(ctx, t)
		if err != nil {
			return err
		}
		if !db.migrate {
			pending = append(pending, diff)
			continue
		}
		if err := db.rebuild(ctx, t, diff); err != nil {
			return fmt.Errorf("migrating %s: %w", t, err)
		}
		performed = append(performed, diff)
	}

	if len(pending) > 0 {
		return &MigrationError{Diffs: pending}
	}
	for _, d := range performed {
		db.log.Info("migration performed", "table", d.Table, "added", d.Added, "removed", d.Removed)
	}
	return nil
}

// storedTables reads name -> CREATE TABLE text from the schema catalog.
func (db *DB) storedTables(ctx context.Context) (map[string]string, error) {
	rows, err := db.Find(MasterTable).
		Select("name", "sql").
		Where(Eq("type", "table")).
		Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]string)
	for rows.Next() {
		var name string
		var create sql.NullString
		if err := rows.Scan(&name, &create); err != nil {
			return nil, err
		}
		existing[name] = create.String
	}
	return existing, rows.Err()
}

// tableDiff compares declared columns against pragma_table_info.
func (db *DB) tableDiff(ctx context.Context, t *Table) (TableDiff, error) {
	rows, err := db.query(ctx, Plan{
		SQL:  "SELECT name FROM pragma_table_info(?)",
		Args: []any{t.Name},
	})
	if err != nil {
		return TableDiff{}, err
	}
	defer rows.Close()

	old := make(map[string]bool)
	var oldOrder []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return TableDiff{}, err
		}
		old[name] = true
		oldOrder = append(oldOrder, name)
	}
	if err := rows.Err(); err != nil {
		return TableDiff{}, err
	}

	diff := TableDiff{Table: t.Name}
	declared := make(map[string]bool)
	for _, col := range t.Columns() {
		declared[col] = true
		if old[col] {
			diff.Shared = append(diff.Shared, col)
		} else {
			diff.Added = append(diff.Added, col)
		}
	}
	for _, col := range oldOrder {
		if !declared[col] {
			diff.Removed = append(diff.Removed, col)
		}
	}
	return diff, nil
}

// rebuild performs the copy migration: rename aside, create fresh,
// copy the shared columns, drop the old copy. Foreign key enforcement
// is suspended around the transaction; it cannot change inside one.
func (db *DB) rebuild(ctx context.Context, t *Table, diff TableDiff) error {
	if _, err := db.Exec(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return err
	}
	backup := "_" + t.Name
	txErr := db.Tx(ctx, func(tx *DB) error {
		stmts := []string{
			"DROP TABLE IF EXISTS " + backup,
			fmt.Sprintf("ALTER TABLE %s RENAME TO %s", t, backup),
			t.CreateSQL(),
		}
		if len(diff.Shared) > 0 {
			cols := strings.Join(diff.Shared, ", ")
			stmts = append(stmts, fmt.Sprintf("INSERT INTO %s(%s) SELECT %s FROM %s", t, cols, cols, backup))
		}
		stmts = append(stmts, "DROP TABLE "+backup)
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if _, err := db.Exec(ctx, "PRAGMA foreign_keys = ON"); err != nil && txErr == nil {
		return err
	}
	return txErr
}
