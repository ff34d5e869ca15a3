package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/askdata/askdata/internal/config"
	"github.com/askdata/askdata/internal/database"
	"github.com/askdata/askdata/internal/demo/seed"
	"github.com/askdata/askdata/internal/observability"
	"github.com/askdata/askdata/internal/storage"
	s3store "github.com/askdata/askdata/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("askdata-demo-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	seedCfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load demo seed config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &seed.Runner{Logger: logger}
	if cfg.Database.URL != "" {
		var (
			db     *sql.DB
			target database.Target
		)
		db, target, err = database.Open(ctx, database.Config{
			URL:          cfg.Database.URL,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			logger.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		runner.DB = db
		runner.Driver = target.Driver
	}

	if seedCfg.Publish {
		var store storage.ObjectStore
		store, err = s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		runner.Store = store
	}

	logger.Info(
		"demo seed started",
		slog.String("table", seedCfg.TableName),
		slog.Int("rows", seedCfg.Rows),
		slog.Int64("random_seed", seedCfg.RandomSeed),
		slog.Bool("create_table", seedCfg.CreateTable),
		slog.Bool("publish", seedCfg.Publish),
	)

	summary, err := runner.Run(ctx, seedCfg)
	if err != nil {
		logger.Error("demo seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info(
		"demo seed finished",
		slog.Int("rows", summary.Rows),
		slog.Bool("inserted", summary.Inserted),
		slog.String("parquet_path", summary.ParquetPath),
		slog.String("parquet_key", summary.ParquetKey),
		slog.String("schema_key", summary.SchemaKey),
	)
}
