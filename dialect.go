package worm

import (
	"fmt"
	"strconv"
	"strings"
)

// SQLite compiles statements into SQLite SQL text. It is the only
// dialect: the mapper targets a single embedded backend.
type SQLite struct{}

// Compile builds the parameterized SQL plan for a statement.
func (d SQLite) Compile(s Statement) (Plan, error) {
	switch s.Action {
	case ActionCreateTable:
		return Plan{Action: s.Action, SQL: s.Table.CreateSQL()}, nil
	case ActionUpsert:
		return d.upsert(s)
	case ActionDeleteByKey:
		return d.deleteByKey(s)
	case ActionSelect:
		return d.sel(s)
	case ActionCount:
		return d.count(s)
	case ActionUpdate:
		return d.update(s)
	case ActionDelete:
		return d.del(s)
	}
	return Plan{}, fmt.Errorf("%w: unknown action %d", ErrValidation, s.Action)
}

// upsert renders INSERT ... ON CONFLICT(pk) DO UPDATE SET, the
// insert-or-replace form keyed on the primary key.
func (d SQLite) upsert(s Statement) (Plan, error) {
	pk, _, ok := s.Table.PrimaryKey()
	if !ok {
		return Plan{}, fmt.Errorf("%w: table %s has no primary key", ErrValidation, s.Table)
	}
	args := make([]any, len(s.Values))
	marks := make([]string, len(s.Values))
	var sets []string
	for i, col := range s.Columns {
		f, _ := s.Table.Field(col)
		v, err := adapt(f, s.Values[i])
		if err != nil {
			return Plan{}, err
		}
		args[i] = v
		marks[i] = "?"
		if col != pk.Name {
			sets = append(sets, col+" = excluded."+col)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s VALUES (%s)", s.Table, strings.Join(marks, ", "))
	if len(sets) == 0 {
		fmt.Fprintf(&b, " ON CONFLICT(%s) DO NOTHING", pk)
	} else {
		fmt.Fprintf(&b, " ON CONFLICT(%s) DO UPDATE SET %s", pk, strings.Join(sets, ", "))
	}
	return Plan{Action: s.Action, SQL: b.String(), Args: args}, nil
}

func (d SQLite) deleteByKey(s Statement) (Plan, error) {
	pk, _, ok := s.Table.PrimaryKey()
	if !ok {
		return Plan{}, fmt.Errorf("%w: table %s has no primary key", ErrValidation, s.Table)
	}
	return Plan{
		Action: s.Action,
		SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.Table, pk),
		Args:   s.Values,
	}, nil
}

func (d SQLite) sel(s Statement) (Plan, error) {
	cols := "*"
	if len(s.Columns) > 0 {
		cols = strings.Join(s.Columns, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, s.Table)
	args, err := d.where(&b, s.Table, s.Conditions)
	if err != nil {
		return Plan{}, err
	}
	if len(s.OrderBy) > 0 {
		terms := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			terms[i] = strings.TrimSpace(o.Column() + " " + o.Dir())
		}
		b.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}
	switch {
	case s.Limit > 0:
		b.WriteString(" LIMIT " + strconv.Itoa(s.Limit))
	case s.Offset > 0:
		b.WriteString(" LIMIT -1") // OFFSET requires a LIMIT clause
	}
	if s.Offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(s.Offset))
	}
	return Plan{Action: s.Action, SQL: b.String(), Args: args}, nil
}

func (d SQLite) count(s Statement) (Plan, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT COUNT(*) FROM %s", s.Table)
	args, err := d.where(&b, s.Table, s.Conditions)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Action: s.Action, SQL: b.String(), Args: args}, nil
}

func (d SQLite) update(s Statement) (Plan, error) {
	if len(s.Sets) == 0 {
		return Plan{}, fmt.Errorf("%w: update without assignments", ErrValidation)
	}
	var args []any
	sets := make([]string, len(s.Sets))
	for i, a := range s.Sets {
		f, ok := s.Table.Field(a.Column)
		if !ok {
			return Plan{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Table, a.Column)
		}
		v, err := adapt(f, a.Value)
		if err != nil {
			return Plan{}, err
		}
		sets[i] = a.Column + " = ?"
		args = append(args, v)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET %s", s.Table, strings.Join(sets, ", "))
	whereArgs, err := d.where(&b, s.Table, s.Conditions)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Action: s.Action, SQL: b.String(), Args: append(args, whereArgs...)}, nil
}

func (d SQLite) del(s Statement) (Plan, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s", s.Table)
	args, err := d.where(&b, s.Table, s.Conditions)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Action: s.Action, SQL: b.String(), Args: args}, nil
}

// where appends a WHERE clause built from conditions. Conditions join
// with each condition's own logic connective; the first connective is
// dropped. No conditions, no clause.
func (d SQLite) where(b *strings.Builder, t *Table, conds []Condition) ([]any, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	clause, args, err := d.conditions(t, conds)
	if err != nil {
		return nil, err
	}
	b.WriteString(" WHERE " + clause)
	return args, nil
}

func (d SQLite) conditions(t *Table, conds []Condition) (string, []any, error) {
	var b strings.Builder
	var args []any
	for i, c := range conds {
		if i > 0 {
			b.WriteString(" " + c.logic + " ")
		}
		term, termArgs, err := d.condition(t, c)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(term)
		args = append(args, termArgs...)
	}
	return b.String(), args, nil
}

func (d SQLite) condition(t *Table, c Condition) (string, []any, error) {
	f, _ := t.Field(c.field)
	switch {
	case c.sub != nil:
		inner, args, err := d.conditions(c.sub.table, c.sub.conds)
		if err != nil {
			return "", nil, err
		}
		where := ""
		if inner != "" {
			where = " WHERE " + inner
		}
		return fmt.Sprintf("%s IN (SELECT %s FROM %s%s)", c.field, IDField.Name, c.sub.table, where), args, nil
	case c.operator == "IN":
		values, ok := c.value.([]any)
		if !ok || len(values) == 0 {
			return "", nil, fmt.Errorf("%w: IN condition on %s needs values", ErrValidation, c.field)
		}
		marks := make([]string, len(values))
		args := make([]any, len(values))
		for i, v := range values {
			av, err := adapt(f, v)
			if err != nil {
				return "", nil, err
			}
			marks[i] = "?"
			args[i] = av
		}
		return fmt.Sprintf("%s IN (%s)", c.field, strings.Join(marks, ", ")), args, nil
	default:
		v, err := adapt(f, c.value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", c.field, c.operator), []any{v}, nil
	}
}
