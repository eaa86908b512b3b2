package worm

import (
	"fmt"
	"strings"
)

// IDField is the implicit integer primary key appended to every concrete
// table that does not declare its own "id" field. It renders last, after
// the declared fields.
var IDField = Field{Name: "id", Type: TypeInt, PrimaryKey: true, NotNull: true}

// Table is a declarative description of one table's schema: a named,
// ordered set of Fields. One Table maps to one physical table unless it
// is Abstract (contributes fields to derived tables only) or Virtual
// (a backend pseudo-table that is queried but never created).
type Table struct {
	Name     string
	Abstract bool
	Virtual  bool

	declared []Field // fields as declared, before the implicit id
	fields   []Field
	index    map[string]int
}

// NewTable builds a concrete table. The implicit id primary key is
// appended after the declared fields unless one of them is named "id"
// or already carries PrimaryKey; a table gets exactly one key column.
func NewTable(name string, fields ...Field) *Table {
	t := &Table{Name: name, declared: fields}
	all := fields
	if !hasKeyField(fields) {
		all = append(append([]Field(nil), fields...), IDField)
	}
	t.setFields(all)
	return t
}

// NewAbstractTable builds a table that contributes no physical table.
// It carries no implicit id; derived concrete tables add their own.
func NewAbstractTable(name string, fields ...Field) *Table {
	t := &Table{Name: name, Abstract: true, declared: fields}
	t.setFields(fields)
	return t
}

// NewVirtualTable describes a backend reserved or pseudo-table, such as
// sqlite_master. Virtual tables are queryable but never created, migrated
// or written to.
func NewVirtualTable(name string, fields ...Field) *Table {
	t := &Table{Name: name, Virtual: true, declared: fields}
	t.setFields(fields)
	return t
}

// Derive builds a concrete table that inherits the receiver's declared
// fields. This replaces naming-convention abstract bases with an explicit
// construct: declare the base with NewAbstractTable, then derive from it.
func (t *Table) Derive(name string, fields ...Field) *Table {
	merged := append(append([]Field(nil), t.declared...), fields...)
	return NewTable(name, merged...)
}

func (t *Table) setFields(fields []Field) {
	t.fields = fields
	t.index = make(map[string]int, len(fields))
	for i, f := range fields {
		t.index[f.Name] = i
	}
}

func hasKeyField(fields []Field) bool {
	for _, f := range fields {
		if f.PrimaryKey || f.Name == IDField.Name {
			return true
		}
	}
	return false
}

// String returns the bare table name: the reference form used wherever
// the table is named inside a query. It is stable across calls and is
// never the schema form.
func (t *Table) String() string { return t.Name }

// CreateSQL returns the schema form: the CREATE TABLE statement with one
// column definition per field, in declaration order.
func (t *Table) CreateSQL() string {
	defs := make([]string, len(t.fields))
	for i, f := range t.fields {
		defs[i] = f.ColumnDef()
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", "))
}

// Len returns the number of fields, including the implicit id.
func (t *Table) Len() int { return len(t.fields) }

// Fields returns a copy of the field list in declaration order.
func (t *Table) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

// Field returns the named field.
func (t *Table) Field(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// FieldAt returns the field at the given declaration index.
func (t *Table) FieldAt(i int) Field { return t.fields[i] }

// Index returns the declaration index of the named field, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Columns returns the field names in declaration order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.fields))
	for i, f := range t.fields {
		cols[i] = f.Name
	}
	return cols
}

// PrimaryKey returns the key field and its index, if the table has one.
func (t *Table) PrimaryKey() (Field, int, bool) {
	for i, f := range t.fields {
		if f.PrimaryKey {
			return f, i, true
		}
	}
	return Field{}, 0, false
}

// Row builds a new row with values assigned positionally to the declared
// fields. Omitted fields take their declared default, or nil. Passing
// more values than the table declares panics; that is a programming
// error, not a runtime condition.
func (t *Table) Row(values ...any) *Row {
	if len(values) > len(t.fields) {
		panic(fmt.Sprintf("worm: %d values for table %s with %d fields", len(values), t.Name, len(t.fields)))
	}
	r := &Row{table: t, values: make([]any, len(t.fields))}
	for i, f := range t.fields {
		if i < len(values) {
			r.values[i] = values[i]
		} else if !f.PrimaryKey {
			r.values[i] = f.Default
		}
	}
	return r
}

// RowMap builds a new row from a field-name keyed map. Unknown names are
// rejected; omitted fields take their declared default.
func (t *Table) RowMap(values map[string]any) (*Row, error) {
	r := t.Row()
	for name, v := range values {
		if err := r.Set(name, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}
