package worm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Query is a chainable query object bound to one table.
// Consumers hold a *Query reference in variables for incremental
// building; terminal methods execute against the session.
//
// A query object renders to exactly one SELECT statement, so its schema
// form and its reference form are the same text: String().
type Query struct {
	db      *DB
	table   *Table
	cols    []string
	conds   []Condition
	orderBy []Order
	limit   int
	offset  int
}

// Select restricts the result columns. Default is every field.
func (q *Query) Select(cols ...string) *Query {
	q.cols = append(q.cols, cols...)
	return q
}

// Where adds conditions to the query.
func (q *Query) Where(conds ...Condition) *Query {
	q.conds = append(q.conds, conds...)
	return q
}

// OrderBy adds an order clause to the query.
func (q *Query) OrderBy(column, dir string) *Query {
	q.orderBy = append(q.orderBy, Order{column: column, dir: dir})
	return q
}

// Limit sets the limit for the query.
func (q *Query) Limit(limit int) *Query {
	q.limit = limit
	return q
}

// Offset sets the offset for the query.
func (q *Query) Offset(offset int) *Query {
	q.offset = offset
	return q
}

func (q *Query) statement(action Action) Statement {
	return Statement{
		Action:     action,
		Table:      q.table,
		Columns:    q.cols,
		Conditions: q.conds,
		OrderBy:    q.orderBy,
		Limit:      q.limit,
		Offset:     q.offset,
	}
}

// SQL returns the parameterized statement text and its arguments.
func (q *Query) SQL() (string, []any, error) {
	plan, err := q.db.compiler.Compile(q.statement(ActionSelect))
	if err != nil {
		return "", nil, err
	}
	return plan.SQL, plan.Args, nil
}

// String returns the statement with arguments interpolated as literals.
// This is the debug rendering; executed statements stay parameterized.
func (q *Query) String() string {
	s, args, err := q.SQL()
	if err != nil {
		return "<invalid query: " + err.Error() + ">"
	}
	return interpolate(s, args)
}

func interpolate(s string, args []any) string {
	var b strings.Builder
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '?' && n < len(args) {
			b.WriteString(Literal(args[n]))
			n++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// scanTargets picks the scan destinations matching the selected columns.
func (q *Query) scanTargets(m Model) ([]any, error) {
	ptrs := m.Pointers()
	if len(q.cols) == 0 {
		return ptrs, nil
	}
	t := m.Table()
	targets := make([]any, len(q.cols))
	for i, col := range q.cols {
		j := t.Index(col)
		if j < 0 {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, t, col)
		}
		targets[i] = ptrs[j]
	}
	return targets, nil
}

// Each executes the query and streams every result through each.
func (q *Query) Each(ctx context.Context, factory func() Model, each func(Model)) error {
	plan, err := q.db.compiler.Compile(q.statement(ActionSelect))
	if err != nil {
		return err
	}
	rows, err := q.db.query(ctx, plan)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		m := factory()
		targets, err := q.scanTargets(m)
		if err != nil {
			return err
		}
		if err := rows.Scan(targets...); err != nil {
			return err
		}
		each(m)
	}
	return rows.Err()
}

// All executes the query and returns every matching row.
func (q *Query) All(ctx context.Context) ([]*Row, error) {
	var results []*Row
	err := q.Each(ctx,
		func() Model { return q.table.Row() },
		func(m Model) { results = append(results, m.(*Row)) },
	)
	return results, err
}

// First returns the first matching row, or ErrNotFound.
func (q *Query) First(ctx context.Context) (*Row, error) {
	row := q.table.Row()
	if err := q.Scan(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// Scan executes the query with limit 1 and scans the result into m.
func (q *Query) Scan(ctx context.Context, m Model) error {
	s := q.statement(ActionSelect)
	s.Limit = 1 // Force limit 1
	plan, err := q.db.compiler.Compile(s)
	if err != nil {
		return err
	}
	targets, err := q.scanTargets(m)
	if err != nil {
		return err
	}
	if err := q.db.queryRow(ctx, plan).Scan(targets...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, q.table)
		}
		return err
	}
	return nil
}

// One returns exactly one matching row: ErrNotFound for zero matches,
// ErrMultiple for more than one.
func (q *Query) One(ctx context.Context) (*Row, error) {
	probe := *q
	probe.limit = 2
	rows, err := probe.All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, q.table)
	case 1:
		return rows[0], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMultiple, q.table)
}

// Count returns the number of matching rows.
func (q *Query) Count(ctx context.Context) (int64, error) {
	plan, err := q.db.compiler.Compile(q.statement(ActionCount))
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.db.queryRow(ctx, plan).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether any row matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	n, err := q.Count(ctx)
	return n > 0, err
}

// Update sets the given fields on every matching row and returns the
// number of rows touched. Assignments apply in field declaration order.
func (q *Query) Update(ctx context.Context, sets map[string]any) (int64, error) {
	if err := validate(ActionUpdate, virtualModel{q.table}); err != nil {
		return 0, err
	}
	assigns := make([]Assign, 0, len(sets))
	for _, f := range q.table.Fields() {
		if v, ok := sets[f.Name]; ok {
			assigns = append(assigns, Assign{Column: f.Name, Value: v})
		}
	}
	if len(assigns) != len(sets) {
		for name := range sets {
			if q.table.Index(name) < 0 {
				return 0, fmt.Errorf("%w: %s.%s", ErrUnknownField, q.table, name)
			}
		}
	}
	s := q.statement(ActionUpdate)
	s.Sets = assigns
	plan, err := q.db.compiler.Compile(s)
	if err != nil {
		return 0, err
	}
	res, err := q.db.run(ctx, plan)
	return res.RowsAffected, err
}

// Delete removes every matching row and returns the number removed.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	if err := validate(ActionDelete, virtualModel{q.table}); err != nil {
		return 0, err
	}
	plan, err := q.db.compiler.Compile(q.statement(ActionDelete))
	if err != nil {
		return 0, err
	}
	res, err := q.db.run(ctx, plan)
	return res.RowsAffected, err
}

// Create builds a row from the query's equality conditions merged with
// vals, saves it, and returns it.
func (q *Query) Create(ctx context.Context, vals map[string]any) (*Row, error) {
	merged := make(map[string]any)
	for _, c := range q.conds {
		if c.operator == "=" && c.sub == nil {
			merged[c.field] = c.value
		}
	}
	for name, v := range vals {
		merged[name] = v
	}
	row, err := q.table.RowMap(merged)
	if err != nil {
		return nil, err
	}
	if err := q.db.Save(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// GetOrCreate returns the single matching row, creating it when absent.
func (q *Query) GetOrCreate(ctx context.Context, vals map[string]any) (*Row, error) {
	row, err := q.One(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return q.Create(ctx, vals)
}

// Rows executes the query and hands back the raw row iterator, for
// callers scanning shapes a Model cannot express.
func (q *Query) Rows(ctx context.Context) (Rows, error) {
	plan, err := q.db.compiler.Compile(q.statement(ActionSelect))
	if err != nil {
		return nil, err
	}
	return q.db.query(ctx, plan)
}

// virtualModel lets validate() inspect table-level operations that have
// no model instance.
type virtualModel struct{ table *Table }

func (v virtualModel) Table() *Table   { return v.table }
func (v virtualModel) Values() []any   { return nil }
func (v virtualModel) Pointers() []any { return nil }
