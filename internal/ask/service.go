// Package ask runs the question pipeline: prompt, completion, cleanup,
// execution and sanitization. One call handles one question; nothing is
// shared between calls except the read-only dependencies.
package ask

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/askdata/askdata/internal/nl2sql"
	"github.com/askdata/askdata/internal/observability"
	"github.com/askdata/askdata/internal/query"
	"github.com/askdata/askdata/internal/result"
	"github.com/askdata/askdata/internal/schema"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Schema schema.Context
	// SchemaErr is kept so a configuration error can say why the schema is
	// missing.
	SchemaErr         error
	Translator        nl2sql.Translator
	Engine            query.Engine
	Database          Pinger
	Dialect           nl2sql.Dialect
	GenerationTimeout time.Duration
	Logger            *slog.Logger
}

type Service struct {
	schema            schema.Context
	schemaErr         error
	translator        nl2sql.Translator
	engine            query.Engine
	database          Pinger
	dialect           nl2sql.Dialect
	generationTimeout time.Duration
	logger            *slog.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dialect := opts.Dialect
	if dialect == "" {
		dialect = nl2sql.DialectPostgres
	}
	return &Service{
		schema:            opts.Schema,
		schemaErr:         opts.SchemaErr,
		translator:        opts.Translator,
		engine:            opts.Engine,
		database:          opts.Database,
		dialect:           dialect,
		generationTimeout: opts.GenerationTimeout,
		logger:            logger,
	}
}

func (s *Service) Ask(ctx context.Context, question string) ([]*result.Row, error) {
	logger := s.logger.With(slog.String("trace_id", observability.TraceIDFromContext(ctx)))

	if err := s.configurationError(); err != nil {
		observability.ObserveAskOutcome(string(StageConfiguration) + "_error")
		logger.Error("ask rejected: service not configured", slog.Any("missing", err.Missing))
		return nil, &Error{Stage: StageConfiguration, Err: err}
	}
	logger.Debug("ask received", slog.String("question", question), slog.String("dialect", string(s.dialect)))

	generated, err := s.generate(ctx, question)
	if err != nil {
		observability.ObserveAskOutcome(string(StageGeneration) + "_error")
		retryable := false
		var genErr *nl2sql.GenerationError
		if errors.As(err, &genErr) {
			retryable = genErr.Retryable()
		}
		logger.Warn("sql generation failed", slog.Any("error", err), slog.Bool("retryable", retryable))
		return nil, &Error{Stage: StageGeneration, Err: err}
	}
	sqlText := generated.SQL
	logger.Debug("prompt sent", slog.String("prompt", generated.Prompt))
	logger.Info("generated sql",
		slog.String("sql", sqlText),
		slog.String("provider", generated.Provider),
		slog.String("model", generated.Model),
	)

	start := time.Now()
	raw, err := s.engine.Execute(ctx, sqlText)
	if err != nil {
		observability.ObserveAskStage(string(StageExecution), time.Since(start))
		observability.ObserveAskOutcome(string(StageExecution) + "_error")
		logger.Warn("sql execution failed", slog.String("sql", sqlText), slog.Any("error", err))
		return nil, &Error{Stage: StageExecution, SQL: sqlText, Err: err}
	}
	observability.ObserveAskStage(string(StageExecution), raw.Duration)
	logger.Info("query executed",
		slog.Any("columns", raw.ColumnNames()),
		slog.Int("rows", len(raw.Rows)),
		slog.Duration("duration", raw.Duration),
	)

	rows, stats, err := result.Sanitize(raw.Columns, raw.Rows)
	if err != nil {
		observability.ObserveAskOutcome(string(StageSanitization) + "_error")
		logger.Error("result sanitization failed", slog.String("sql", sqlText), slog.Any("error", err))
		return nil, &Error{Stage: StageSanitization, SQL: sqlText, Err: err}
	}
	observability.ObserveAskOutcome("ok")
	observability.ObserveAskResult(len(rows), stats.NonFinite)
	if stats.NonFinite > 0 {
		logger.Info("replaced non-finite values with null", slog.Int("count", stats.NonFinite))
	}
	return rows, nil
}

func (s *Service) generate(ctx context.Context, question string) (nl2sql.Result, error) {
	if s.generationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.generationTimeout)
		defer cancel()
	}
	start := time.Now()
	generated, err := s.translator.Translate(ctx, nl2sql.Request{
		Schema:   s.schema.Text,
		Question: question,
		Dialect:  s.dialect,
	})
	observability.ObserveAskStage(string(StageGeneration), time.Since(start))
	if err != nil {
		return nl2sql.Result{}, err
	}
	// The cleanup rules are idempotent and not every translator applies them.
	generated.SQL = nl2sql.CleanSQL(generated.SQL)
	if generated.SQL == "" {
		return nl2sql.Result{}, &nl2sql.GenerationError{Op: "decode response", Err: errors.New("model returned empty SQL")}
	}
	return generated, nil
}

// Ready reports the first missing prerequisite, then pings the database.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.configurationError(); err != nil {
		return err
	}
	if s.database == nil {
		return nil
	}
	return s.database.PingContext(ctx)
}

func (s *Service) configurationError() *ConfigurationError {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(s.schema.Text) == "" {
		missing = append(missing, "schema description")
	}
	if s.engine == nil {
		missing = append(missing, "database url")
	}
	if s.translator == nil {
		missing = append(missing, "completion api key")
	}
	if len(missing) == 0 {
		return nil
	}
	return &ConfigurationError{Missing: missing, Err: s.schemaErr}
}
