package seed

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/parquet-go/parquet-go"
	_ "modernc.org/sqlite"

	"github.com/askdata/askdata/internal/database"
	"github.com/askdata/askdata/internal/storage"
)

func TestInsertStatementPlaceholders(t *testing.T) {
	pg := InsertStatement(database.DriverPostgres, "vendas")
	if pg != `INSERT INTO "vendas" ("DATA_VENDA", "CLIENTE", "DESCRICAO_ITEM", "CATEGORIA", "QTD_VENDA", "VALOR_UNITARIO", "VALOR_TOTAL") VALUES ($1, $2, $3, $4, $5, $6, $7)` {
		t.Fatalf("postgres insert = %s", pg)
	}
	lite := InsertStatement(database.DriverSQLite, "vendas")
	if !regexp.MustCompile(`VALUES \(\?, \?, \?, \?, \?, \?, \?\)$`).MatchString(lite) {
		t.Fatalf("sqlite insert = %s", lite)
	}
}

func TestSeederInsertsInOneTransaction(t *testing.T) {
	db, mock := newSQLMock(t)
	sales := NewGenerator(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10).Generate(3)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "vendas_detalhadas"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	prepared := mock.ExpectPrepare(regexp.QuoteMeta(InsertStatement(database.DriverPostgres, "vendas_detalhadas")))
	for _, sale := range sales {
		prepared.ExpectExec().
			WithArgs(sale.DataVenda, sale.Cliente, sale.DescricaoItem, sale.Categoria, sale.QtdVenda, sale.ValorUnitario, sale.ValorTotal).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	seeder := &Seeder{DB: db, Driver: database.DriverPostgres}
	if err := seeder.CreateTable(context.Background(), "vendas_detalhadas"); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := seeder.Insert(context.Background(), "vendas_detalhadas", sales); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestSeederRollsBackOnFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	sales := NewGenerator(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10).Generate(2)

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "vendas_detalhadas"`))
	prepared.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prepared.ExpectExec().WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	seeder := &Seeder{DB: db, Driver: database.DriverPostgres}
	if err := seeder.Insert(context.Background(), "vendas_detalhadas", sales); err == nil {
		t.Fatal("expected insert error")
	}
	assertSQLMock(t, mock)
}

func TestRunnerSeedsSQLiteAndPublishes(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store := &memoryStore{objects: map[string][]byte{}}
	cfg := DefaultConfig()
	cfg.Rows = 40
	cfg.Publish = true
	cfg.ParquetPath = t.TempDir() + "/vendas.parquet"

	runner := &Runner{
		DB:     db,
		Driver: database.DriverSQLite,
		Store:  store,
		now:    func() time.Time { return time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC) },
	}
	summary, err := runner.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Inserted || summary.Rows != 40 {
		t.Fatalf("summary = %#v", summary)
	}

	var count int
	var total float64
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*), SUM("QTD_VENDA") FROM "vendas_detalhadas"`).Scan(&count, &total); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 40 || total <= 0 {
		t.Fatalf("count/total = %d/%v", count, total)
	}

	if summary.ParquetKey != "demo/vendas_detalhadas/date=2026-02-19/part-42.parquet" {
		t.Fatalf("ParquetKey = %q", summary.ParquetKey)
	}
	if summary.SchemaKey != "demo/schema.txt" {
		t.Fatalf("SchemaKey = %q", summary.SchemaKey)
	}
	if string(store.objects["demo/schema.txt"]) != SchemaText("vendas_detalhadas") {
		t.Fatalf("schema object = %q", store.objects["demo/schema.txt"])
	}

	published := store.objects[summary.ParquetKey]
	rows, err := parquet.Read[Sale](bytes.NewReader(published), int64(len(published)))
	if err != nil {
		t.Fatalf("parquet.Read() error = %v", err)
	}
	want := NewGenerator(cfg.RandomSeed, cfg.StartDate, cfg.Days).Generate(cfg.Rows)
	if len(rows) != len(want) {
		t.Fatalf("parquet rows = %d, want %d", len(rows), len(want))
	}
	if rows[0].DescricaoItem != want[0].DescricaoItem || rows[0].ValorTotal != want[0].ValorTotal {
		t.Fatalf("parquet row[0] = %#v, want %#v", rows[0], want[0])
	}
}

func TestRunnerPublishRequiresStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 1
	cfg.Publish = true
	if _, err := (&Runner{}).Run(context.Background(), cfg); err == nil {
		t.Fatal("expected missing store error")
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[key] = data
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
