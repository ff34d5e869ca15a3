package nl2sql

import "context"

// Dialect names the SQL flavour the model is asked to write.
type Dialect string

const (
	DialectPostgres Dialect = "PostgreSQL"
	DialectDuckDB   Dialect = "DuckDB"
	DialectSQLite   Dialect = "SQLite"
)

type Request struct {
	Schema   string
	Question string
	Dialect  Dialect
}

type Result struct {
	SQL      string `json:"sql"`
	Prompt   string `json:"-"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
