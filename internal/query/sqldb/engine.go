// Package sqldb runs generated statements through database/sql. Any driver
// registered with database/sql works; the pool is shared read-only and every
// call borrows one connection for its lifetime.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/askdata/askdata/internal/query"
)

type Engine struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewEngine(db *sql.DB, queryTimeout time.Duration) *Engine {
	return &Engine{db: db, queryTimeout: queryTimeout}
}

func (e *Engine) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	if e.db == nil {
		return query.Result{}, &query.ExecutionError{SQL: sqlText, Err: errors.New("database is not configured")}
	}
	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return query.Result{}, &query.ExecutionError{SQL: sqlText, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer func() { _ = conn.Close() }()

	columns, rows, err := run(ctx, conn, sqlText)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return query.Result{}, &query.ExecutionError{SQL: sqlText, Err: err}
	}
	return query.Result{
		Columns:  columns,
		Rows:     rows,
		Duration: time.Since(start),
	}, nil
}

func run(ctx context.Context, conn *sql.Conn, sqlText string) ([]query.Column, [][]any, error) {
	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := describeColumns(rows)
	if err != nil {
		return nil, nil, err
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, resultRows, nil
}

func describeColumns(rows *sql.Rows) ([]query.Column, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	columns := make([]query.Column, len(names))
	for i, name := range names {
		columns[i] = query.Column{Name: name}
	}

	// Type names are best effort; drivers that cannot describe them still
	// produce usable rows.
	types, err := rows.ColumnTypes()
	if err != nil || len(types) != len(columns) {
		return columns, nil
	}
	for i, columnType := range types {
		columns[i].DatabaseType = columnType.DatabaseTypeName()
	}
	return columns, nil
}
