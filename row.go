package worm

import (
	"context"
	"fmt"
	"time"
)

// Row is an ordered field-to-value mapping for one table, representing
// one potential or actual table row. Values are accessible both by field
// name and by declaration-order index; both paths address the same slot.
//
// A Row is mutated field by field after construction and persisted or
// removed only through explicit DB.Save / DB.Delete calls, never
// implicitly.
type Row struct {
	table  *Table
	values []any
}

// Table returns the owning table descriptor.
func (r *Row) Table() *Table { return r.table }

// Values returns the backing value slice in declaration order.
// It is the live slice, not a copy; Scan targets alias it.
func (r *Row) Values() []any { return r.values }

// Pointers returns scan destinations for every field, in declaration
// order.
func (r *Row) Pointers() []any {
	ptrs := make([]any, len(r.values))
	for i := range r.values {
		ptrs[i] = &r.values[i]
	}
	return ptrs
}

// At returns the value at the given declaration index.
func (r *Row) At(i int) any { return r.values[i] }

// SetAt replaces the value at the given declaration index.
func (r *Row) SetAt(i int, v any) { r.values[i] = v }

// Get returns the value of the named field.
func (r *Row) Get(name string) (any, error) {
	i := r.table.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, r.table, name)
	}
	return r.values[i], nil
}

// Set replaces the value of the named field.
func (r *Row) Set(name string, v any) error {
	i := r.table.Index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.table, name)
	}
	r.values[i] = v
	return nil
}

// ID returns the row's primary key value. ok is false when the row has
// never been saved (or the table has no key).
func (r *Row) ID() (int64, bool) {
	return modelKey(r)
}

// SetID writes the row's primary key value. A zero id marks the row
// unsaved; assigned rowids start at 1.
func (r *Row) SetID(id int64) {
	r.setKey(id)
}

// setKey writes the primary key slot, nil clearing it.
func (r *Row) setKey(v any) {
	if _, i, ok := r.table.PrimaryKey(); ok {
		r.values[i] = v
	}
}

// Ref loads the row referenced by the named foreign key field.
// The original design resolved references lazily on attribute access;
// here the load is an explicit call carrying the session and context.
func (r *Row) Ref(ctx context.Context, db *DB, name string) (*Row, error) {
	f, ok := r.table.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, r.table, name)
	}
	if f.Ref == "" {
		return nil, fmt.Errorf("%w: %s.%s is not a foreign key", ErrValidation, r.table, name)
	}
	target, ok := db.TableByName(f.Ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, f.Ref)
	}
	v := r.values[r.table.Index(name)]
	if ref, ok := v.(*Row); ok {
		return ref, nil
	}
	return db.Find(target).Where(Eq(IDField.Name, v)).First(ctx)
}

// GetString converts the named field's stored value to a string.
func (r *Row) GetString(name string) (string, error) {
	v, err := r.Get(name)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case nil:
		return "", nil
	}
	return fmt.Sprint(v), nil
}

// GetInt converts the named field's stored value to an int64.
func (r *Row) GetInt(name string) (int64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	if n, ok := toInt64(v); ok {
		return n, nil
	}
	return 0, fmt.Errorf("worm: %s.%s is not an integer (%T)", r.table, name, v)
}

// GetBool converts the named field's stored value to a bool.
func (r *Row) GetBool(name string) (bool, error) {
	n, err := r.GetInt(name)
	return n != 0, err
}

// GetFloat converts the named field's stored value to a float64.
func (r *Row) GetFloat(name string) (float64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	}
	return 0, fmt.Errorf("worm: %s.%s is not a float (%T)", r.table, name, v)
}

// GetTime converts the named field's stored value to a time.Time,
// parsing the date and timestamp text formats this package writes.
func (r *Row) GetTime(name string) (time.Time, error) {
	v, err := r.Get(name)
	if err != nil {
		return time.Time{}, err
	}
	return toTime(v)
}
