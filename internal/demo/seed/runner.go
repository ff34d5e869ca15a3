package seed

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/askdata/askdata/internal/database"
	"github.com/askdata/askdata/internal/storage"
)

type Runner struct {
	DB     *sql.DB
	Driver database.Driver
	Store  storage.ObjectStore
	Logger *slog.Logger
	now    func() time.Time
}

type Summary struct {
	Rows        int
	Inserted    bool
	ParquetPath string
	ParquetKey  string
	SchemaKey   string
}

// Run generates the dataset once and sends it to every configured target:
// the database, a local parquet file and the object store.
func (r *Runner) Run(ctx context.Context, cfg Config) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := r.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	sales := NewGenerator(cfg.RandomSeed, cfg.StartDate, cfg.Days).Generate(cfg.Rows)
	summary := Summary{Rows: len(sales)}

	if r.DB != nil {
		seeder := &Seeder{DB: r.DB, Driver: r.Driver}
		if cfg.CreateTable {
			if err := seeder.CreateTable(ctx, cfg.TableName); err != nil {
				return summary, err
			}
		}
		if err := seeder.Insert(ctx, cfg.TableName, sales); err != nil {
			return summary, err
		}
		summary.Inserted = true
		logger.Info("seeded table", slog.String("table", cfg.TableName), slog.Int("rows", len(sales)))
	}

	var parquetBytes []byte
	if cfg.ParquetPath != "" || (cfg.Publish && r.Store != nil) {
		var buf bytes.Buffer
		if err := WriteParquet(&buf, sales); err != nil {
			return summary, fmt.Errorf("encode parquet: %w", err)
		}
		parquetBytes = buf.Bytes()
	}

	if cfg.ParquetPath != "" {
		if err := os.WriteFile(cfg.ParquetPath, parquetBytes, 0o644); err != nil {
			return summary, fmt.Errorf("write parquet file %q: %w", cfg.ParquetPath, err)
		}
		summary.ParquetPath = cfg.ParquetPath
		logger.Info("wrote parquet file", slog.String("path", cfg.ParquetPath), slog.Int("bytes", len(parquetBytes)))
	}

	if cfg.Publish {
		if r.Store == nil {
			return summary, fmt.Errorf("publishing requires an object store")
		}
		if err := r.publish(ctx, cfg, parquetBytes, now(), &summary); err != nil {
			return summary, err
		}
		logger.Info("published dataset",
			slog.String("parquet_key", summary.ParquetKey),
			slog.String("schema_key", summary.SchemaKey),
		)
	}
	return summary, nil
}

func (r *Runner) publish(ctx context.Context, cfg Config, parquetBytes []byte, at time.Time, summary *Summary) error {
	parquetKey, err := storage.BuildDatasetFilePath(cfg.Dataset, cfg.TableName, at, cfg.RandomSeed)
	if err != nil {
		return err
	}
	if _, err := r.Store.Put(ctx, parquetKey, bytes.NewReader(parquetBytes), int64(len(parquetBytes)), storage.PutOptions{ContentType: "application/vnd.apache.parquet"}); err != nil {
		return fmt.Errorf("publish parquet: %w", err)
	}
	summary.ParquetKey = parquetKey

	schemaKey, err := storage.BuildSchemaKey(cfg.Dataset)
	if err != nil {
		return err
	}
	text := SchemaText(cfg.TableName)
	if _, err := r.Store.Put(ctx, schemaKey, strings.NewReader(text), int64(len(text)), storage.PutOptions{ContentType: "text/plain; charset=utf-8"}); err != nil {
		return fmt.Errorf("publish schema: %w", err)
	}
	summary.SchemaKey = schemaKey
	return nil
}
