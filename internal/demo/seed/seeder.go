package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/askdata/askdata/internal/database"
)

var columnNames = []string{"DATA_VENDA", "CLIENTE", "DESCRICAO_ITEM", "CATEGORIA", "QTD_VENDA", "VALOR_UNITARIO", "VALOR_TOTAL"}

// Seeder writes sales rows through database/sql. The driver decides the
// placeholder style and how dates are bound.
type Seeder struct {
	DB     *sql.DB
	Driver database.Driver
}

func (s *Seeder) CreateTable(ctx context.Context, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  "DATA_VENDA" DATE NOT NULL,
  "CLIENTE" TEXT NOT NULL,
  "DESCRICAO_ITEM" TEXT NOT NULL,
  "CATEGORIA" TEXT NOT NULL,
  "QTD_VENDA" INTEGER NOT NULL,
  "VALOR_UNITARIO" NUMERIC(12,2) NOT NULL,
  "VALOR_TOTAL" NUMERIC(12,2) NOT NULL
)`, quoteIdent(table))
	if _, err := s.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %q: %w", table, err)
	}
	return nil
}

// Insert writes all rows in one transaction; a failure leaves the table as it
// was.
func (s *Seeder) Insert(ctx context.Context, table string, sales []Sale) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, InsertStatement(s.Driver, table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, sale := range sales {
		if _, err := stmt.ExecContext(ctx,
			s.dateArg(sale),
			sale.Cliente,
			sale.DescricaoItem,
			sale.Categoria,
			sale.QtdVenda,
			sale.ValorUnitario,
			sale.ValorTotal,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

// SQLite has no date type; ISO text keeps comparisons and strftime working.
func (s *Seeder) dateArg(sale Sale) any {
	if s.Driver == database.DriverSQLite {
		return sale.DataVenda.Format("2006-01-02")
	}
	return sale.DataVenda
}

func InsertStatement(driver database.Driver, table string) string {
	quoted := make([]string, len(columnNames))
	placeholders := make([]string, len(columnNames))
	for i, name := range columnNames {
		quoted[i] = quoteIdent(name)
		if driver == database.DriverPostgres {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
