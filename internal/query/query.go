package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Column struct {
	Name string
	// DatabaseType is the driver's type name (DATE, NUMERIC, TIMESTAMPTZ, ...),
	// empty when the driver does not report one.
	DatabaseType string
}

type Result struct {
	Columns  []Column
	Rows     [][]any
	Duration time.Duration
}

func (r Result) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, column := range r.Columns {
		names[i] = column.Name
	}
	return names
}

type Engine interface {
	Execute(ctx context.Context, sqlText string) (Result, error)
}

// ExecutionError carries the driver failure together with the exact statement
// that was sent, for diagnostics.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute query: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

var ErrStatementNotAllowed = errors.New("only read-only SELECT/WITH statements are allowed")

// ReadOnlyGuard rejects statements that do not start with SELECT or WITH
// before they reach the wrapped engine.
type ReadOnlyGuard struct {
	Next Engine
}

func (g ReadOnlyGuard) Execute(ctx context.Context, sqlText string) (Result, error) {
	if !IsReadOnlyStatement(sqlText) {
		return Result{}, &ExecutionError{SQL: sqlText, Err: ErrStatementNotAllowed}
	}
	return g.Next.Execute(ctx, sqlText)
}

// IsReadOnlyStatement is a prefix check, not a parser: a WITH clause wrapping
// a data-modifying CTE still passes.
func IsReadOnlyStatement(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	for strings.HasPrefix(normalized, "(") {
		normalized = strings.TrimSpace(strings.TrimPrefix(normalized, "("))
	}
	if normalized == "" {
		return false
	}
	if strings.Contains(strings.TrimSuffix(strings.TrimSpace(normalized), ";"), ";") {
		return false
	}
	return hasKeywordPrefix(normalized, "select") || hasKeywordPrefix(normalized, "with")
}

func hasKeywordPrefix(value, keyword string) bool {
	if !strings.HasPrefix(value, keyword) {
		return false
	}
	if len(value) == len(keyword) {
		return true
	}
	next := value[len(keyword)]
	return !(next >= 'a' && next <= 'z' || next >= '0' && next <= '9' || next == '_')
}
