package worm

// Model represents anything persistable as one table row.
// *Row implements it; wormgen generates implementations for tagged structs.
// Values() and Pointers() MUST follow the table's field declaration order.
type Model interface {
	Table() *Table
	Values() []any
	Pointers() []any
}

// modelKey reads a model's primary key value. ok is false when the table
// has no primary key or the model has never been saved.
func modelKey(m Model) (int64, bool) {
	t := m.Table()
	_, i, ok := t.PrimaryKey()
	if !ok {
		return 0, false
	}
	v := m.Values()[i]
	if v == nil {
		return 0, false
	}
	n, ok := toInt64(v)
	if !ok || n == 0 {
		// rowids start at 1; a zero key means a never-saved struct model
		return 0, false
	}
	return n, true
}
