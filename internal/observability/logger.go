package observability

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/askdata/askdata/internal/config"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

const redacted = "[REDACTED]"

// secretKeys are attribute names whose values never reach the log output.
var secretKeys = map[string]struct{}{
	"api_key":       {},
	"authorization": {},
	"secret_key":    {},
	"password":      {},
}

// NewLogger builds the process logger. Every line carries the service name,
// profile and the askdata application tag; credentials are masked.
func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	opts := &slog.HandlerOptions{Level: cfg.Observability.LogLevel, ReplaceAttr: redactAttr}
	var handler slog.Handler
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler).With(
		slog.String("app", "askdata"),
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
	)
}

// redactAttr masks secret attributes and strips the password from
// connection URLs such as database_url.
func redactAttr(_ []string, attr slog.Attr) slog.Attr {
	key := strings.ToLower(attr.Key)
	if _, secret := secretKeys[key]; secret {
		return slog.String(attr.Key, redacted)
	}
	if strings.HasSuffix(key, "_url") && attr.Value.Kind() == slog.KindString {
		if parsed, err := url.Parse(attr.Value.String()); err == nil && parsed.User != nil {
			return slog.String(attr.Key, parsed.Redacted())
		}
	}
	return attr
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
