package worm

// Action represents the type of database operation.
type Action int

const (
	ActionCreateTable Action = iota
	ActionUpsert
	ActionDeleteByKey
	ActionSelect
	ActionCount
	ActionUpdate
	ActionDelete
)

// Order represents a sort order for a query.
// It is a sealed value type constructed via Query.OrderBy().
type Order struct {
	column string
	dir    string
}

func (o Order) Column() string { return o.column }
func (o Order) Dir() string    { return o.dir }

// Assign represents one SET pair of an UPDATE statement.
type Assign struct {
	Column string
	Value  any
}

// Statement represents one database operation to be compiled.
// Compilers read these fields to build Plans.
type Statement struct {
	Action     Action
	Table      *Table
	Columns    []string
	Values     []any
	Sets       []Assign
	Conditions []Condition
	OrderBy    []Order
	Limit      int
	Offset     int
}

// Plan is the compiled form of a Statement: parameterized SQL text plus
// its arguments, ready for an Executor.
type Plan struct {
	Action Action
	SQL    string
	Args   []any
}

// Compiler converts statements into backend SQL plans.
type Compiler interface {
	Compile(s Statement) (Plan, error)
}
