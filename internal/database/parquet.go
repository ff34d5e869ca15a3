package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type ParquetView struct {
	Table string
	Path  string
}

// ParseParquetViews reads "table=path,table=path". Paths may be globs; DuckDB
// expands them when the view is queried.
func ParseParquetViews(raw string) ([]ParquetView, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	seen := map[string]struct{}{}
	views := make([]ParquetView, 0)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		table, path, ok := strings.Cut(entry, "=")
		table = strings.TrimSpace(table)
		path = strings.TrimSpace(path)
		if !ok || table == "" || path == "" {
			return nil, fmt.Errorf("invalid parquet view %q: want table=path", entry)
		}
		if _, dup := seen[table]; dup {
			return nil, fmt.Errorf("parquet view %q declared twice", table)
		}
		seen[table] = struct{}{}
		views = append(views, ParquetView{Table: table, Path: path})
	}
	return views, nil
}

func createParquetViews(ctx context.Context, db *sql.DB, views []ParquetView) error {
	for _, view := range views {
		viewSQL := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)`, quoteIdent(view.Table), quoteString(view.Path))
		if _, err := db.ExecContext(ctx, viewSQL); err != nil {
			return fmt.Errorf("create view for table %q: %w", view.Table, err)
		}
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
