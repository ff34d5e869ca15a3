package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdata/askdata/internal/api"
	"github.com/askdata/askdata/internal/ask"
	"github.com/askdata/askdata/internal/config"
	"github.com/askdata/askdata/internal/database"
	"github.com/askdata/askdata/internal/nl2sql"
	"github.com/askdata/askdata/internal/observability"
	"github.com/askdata/askdata/internal/query"
	"github.com/askdata/askdata/internal/query/sqldb"
	"github.com/askdata/askdata/internal/schema"
	"github.com/askdata/askdata/internal/storage"
	s3store "github.com/askdata/askdata/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("askdata-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn("required settings are missing; /ask will answer with a configuration error", slog.Any("missing", missing))
	}

	var objectStore storage.ObjectStore
	if cfg.Schema.ObjectKey != "" {
		store, err := s3store.New(context.Background(), s3store.Config{
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
		objectStore = store
	}

	schemaCtx, schemaErr := schema.Load(context.Background(), schema.Sources{
		Definition: cfg.Schema.Definition,
		ObjectKey:  cfg.Schema.ObjectKey,
		File:       cfg.Schema.File,
	}, objectStore)
	if schemaErr != nil {
		logger.Error("schema description unavailable", slog.Any("error", schemaErr))
	} else {
		logger.Info("schema description loaded", slog.String("source", string(schemaCtx.Source)), slog.Int("bytes", len(schemaCtx.Text)))
	}

	var (
		engine  query.Engine
		pinger  ask.Pinger
		dialect nl2sql.Dialect
	)
	if cfg.Database.URL != "" {
		db, target, err := database.Open(context.Background(), database.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ParquetViews:    cfg.Database.ParquetViews,
		})
		if err != nil {
			logger.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		engine = sqldb.NewEngine(db, cfg.Database.QueryTimeout)
		if cfg.Database.ReadOnlyGuard {
			engine = query.ReadOnlyGuard{Next: engine}
		}
		pinger = db
		dialect = target.Dialect()
		logger.Info("database connected",
			slog.String("database_url", cfg.Database.URL),
			slog.String("driver", string(target.Driver)),
			slog.String("dialect", string(dialect)),
		)
	}

	var translator nl2sql.Translator
	if cfg.AI.APIKey != "" {
		translator, err = nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize query translator", slog.Any("error", err))
			os.Exit(1)
		}
	}

	service := ask.NewService(ask.Options{
		Schema:            schemaCtx,
		SchemaErr:         schemaErr,
		Translator:        translator,
		Engine:            engine,
		Database:          pinger,
		Dialect:           dialect,
		GenerationTimeout: cfg.AI.Timeout,
		Logger:            logger,
	})

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:            logger,
		Asker:             service,
		Readiness:         api.CombineReadinessChecks(service.Ready),
		DependencyTimeout: 2 * time.Second,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
