package worm_test

import (
	"context"

	"github.com/wormdb/worm"
)

// MockCompiler captures the statement and returns a predefined plan.
type MockCompiler struct {
	LastStatement worm.Statement
	ReturnPlan    worm.Plan
	ReturnErr     error
}

func (m *MockCompiler) Compile(s worm.Statement) (worm.Plan, error) {
	m.LastStatement = s
	plan := m.ReturnPlan
	if plan.SQL == "" {
		plan.SQL = "MOCK_QUERY"
	}
	return plan, m.ReturnErr
}

// MockExecutor captures execution calls.
type MockExecutor struct {
	ExecutedQueries []string
	ExecutedArgs    [][]any
	ReturnResult    worm.Result
	ReturnExecErr   error
	ReturnQueryRow  worm.Scanner
	ReturnQueryRows worm.Rows
	ReturnQueryErr  error
	ReturnCloseErr  error
}

func (m *MockExecutor) Exec(ctx context.Context, query string, args ...any) (worm.Result, error) {
	m.ExecutedQueries = append(m.ExecutedQueries, query)
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	return m.ReturnResult, m.ReturnExecErr
}

func (m *MockExecutor) QueryRow(ctx context.Context, query string, args ...any) worm.Scanner {
	m.ExecutedQueries = append(m.ExecutedQueries, query)
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	if m.ReturnQueryRow == nil {
		return &MockScanner{}
	}
	return m.ReturnQueryRow
}

func (m *MockExecutor) Query(ctx context.Context, query string, args ...any) (worm.Rows, error) {
	m.ExecutedQueries = append(m.ExecutedQueries, query)
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	if m.ReturnQueryRows == nil {
		return &MockRows{}, m.ReturnQueryErr
	}
	return m.ReturnQueryRows, m.ReturnQueryErr
}

func (m *MockExecutor) Close() error {
	return m.ReturnCloseErr
}

// MockScanner feeds Values into scan destinations.
type MockScanner struct {
	Values  []any
	ScanErr error
}

func (m *MockScanner) Scan(dest ...any) error {
	if m.ScanErr != nil {
		return m.ScanErr
	}
	assign(dest, m.Values)
	return nil
}

// MockRows iterates over Records, one record per row.
type MockRows struct {
	Records  [][]any
	Current  int
	ScanErr  error
	CloseErr error
	ErrVal   error
}

func (m *MockRows) Next() bool {
	if m.Current < len(m.Records) {
		m.Current++
		return true
	}
	return false
}

func (m *MockRows) Scan(dest ...any) error {
	if m.ScanErr != nil {
		return m.ScanErr
	}
	assign(dest, m.Records[m.Current-1])
	return nil
}

func (m *MockRows) Close() error {
	return m.CloseErr
}

func (m *MockRows) Err() error {
	return m.ErrVal
}

func assign(dest, values []any) {
	for i, d := range dest {
		if i >= len(values) {
			return
		}
		switch p := d.(type) {
		case *any:
			*p = values[i]
		case *int64:
			*p = values[i].(int64)
		case *string:
			*p = values[i].(string)
		}
	}
}

// MockTxExecutor adds transaction support to MockExecutor.
type MockTxExecutor struct {
	MockExecutor
	Bound      *MockTxBoundExecutor
	BeginTxErr error
}

func (m *MockTxExecutor) BeginTx(ctx context.Context) (worm.TxBoundExecutor, error) {
	if m.BeginTxErr != nil {
		return nil, m.BeginTxErr
	}
	if m.Bound == nil {
		m.Bound = &MockTxBoundExecutor{}
	}
	return m.Bound, nil
}

type MockTxBoundExecutor struct {
	MockExecutor
	CommitCalled   bool
	RollbackCalled bool
	CommitErr      error
	RollbackErr    error
}

func (m *MockTxBoundExecutor) Commit() error {
	m.CommitCalled = true
	return m.CommitErr
}

func (m *MockTxBoundExecutor) Rollback() error {
	m.RollbackCalled = true
	return m.RollbackErr
}
