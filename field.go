package worm

import "strings"

// FieldType represents the abstract storage type of a table field.
type FieldType int

const (
	TypeText FieldType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeBlob
	TypeDate
	TypeTimestamp
)

// Affinity returns the column type keyword used in CREATE TABLE text.
// Unknown types fall back to BLOB affinity.
func (t FieldType) Affinity() string {
	switch t {
	case TypeText:
		return "TEXT"
	case TypeInt, TypeBool:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "BLOB"
	}
}

// RefAction is a foreign key reference action.
type RefAction string

const (
	Restrict   RefAction = "restrict"
	SetNull    RefAction = "set null"
	SetDefault RefAction = "set default"
	Cascade    RefAction = "cascade"
)

// Field describes a single column: name, type, default and constraints.
// A Field is owned by exactly one Table and is immutable after the table
// is constructed. Its position in the table is its declaration index.
//
// A Field with Ref set is a foreign key and is stored as the integer id of
// the referenced table's row, regardless of Type.
type Field struct {
	Name       string
	Type       FieldType
	Default    any
	PrimaryKey bool
	NotNull    bool
	Unique     bool
	Ref        string    // FK: target table name. Empty = no FK.
	OnDelete   RefAction // FK: action on referenced row deletion.
	OnUpdate   RefAction // FK: action on referenced key update.
	Generate   string    // generated column expression
	Stored     bool      // generated column is STORED rather than virtual
}

// String returns the bare field name, the reference form used inside
// queries. It is distinct from ColumnDef, the schema form.
func (f Field) String() string { return f.Name }

// ColumnDef renders the column-definition fragment embedded in a CREATE
// TABLE statement. Clause order: name, type, reference actions, default,
// primary key, not null, unique, generated expression.
func (f Field) ColumnDef() string {
	parts := []string{f.Name}
	if f.Ref != "" {
		parts = append(parts, "INTEGER REFERENCES "+f.Ref)
	} else {
		parts = append(parts, f.Type.Affinity())
	}
	if f.OnDelete != "" {
		parts = append(parts, "ON DELETE "+string(f.OnDelete))
	}
	if f.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+string(f.OnUpdate))
	}
	if f.Default != nil {
		parts = append(parts, "DEFAULT ("+Literal(f.Default)+")")
	}
	if f.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if f.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if f.Unique {
		parts = append(parts, "UNIQUE")
	}
	if f.Generate != "" {
		parts = append(parts, "AS ("+f.Generate+")")
		if f.Stored {
			parts = append(parts, "STORED")
		}
	}
	return strings.Join(parts, " ")
}
