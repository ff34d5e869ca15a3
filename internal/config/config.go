package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Schema        SchemaConfig
	ObjectStore   ObjectStoreConfig
	AI            AIConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig describes the engine generated queries run against. An empty
// URL is allowed at load time; requests then fail with a configuration error.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	ReadOnlyGuard   bool
	ParquetViews    string
}

type SchemaConfig struct {
	Definition string
	File       string
	ObjectKey  string
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ASKDATA_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ASKDATA_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	steps := []func() error{
		func() error { return applyString(lookup, "ASKDATA_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "ASKDATA_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "ASKDATA_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "ASKDATA_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "ASKDATA_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },

		// The conventional names are read first so the prefixed ones win.
		func() error { return applyString(lookup, "DATABASE_URL", &cfg.Database.URL) },
		func() error { return applyString(lookup, "ASKDATA_DATABASE_URL", &cfg.Database.URL) },
		func() error { return applyInt(lookup, "ASKDATA_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error { return applyInt(lookup, "ASKDATA_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns) },
		func() error {
			return applyDuration(lookup, "ASKDATA_DB_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime)
		},
		func() error {
			return applyDuration(lookup, "ASKDATA_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
		},
		func() error { return applyDuration(lookup, "ASKDATA_DB_QUERY_TIMEOUT", &cfg.Database.QueryTimeout) },
		func() error { return applyBool(lookup, "ASKDATA_DB_READ_ONLY_GUARD", &cfg.Database.ReadOnlyGuard) },
		func() error { return applyString(lookup, "ASKDATA_DB_PARQUET_VIEWS", &cfg.Database.ParquetViews) },

		func() error { return applyString(lookup, "DB_SCHEMA_DEFINITION", &cfg.Schema.Definition) },
		func() error { return applyString(lookup, "ASKDATA_SCHEMA_DEFINITION", &cfg.Schema.Definition) },
		func() error { return applyString(lookup, "ASKDATA_SCHEMA_FILE", &cfg.Schema.File) },
		func() error { return applyString(lookup, "ASKDATA_SCHEMA_OBJECT_KEY", &cfg.Schema.ObjectKey) },

		func() error { return applyString(lookup, "ASKDATA_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "ASKDATA_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "ASKDATA_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error {
			return applyString(lookup, "ASKDATA_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID)
		},
		func() error {
			return applyString(lookup, "ASKDATA_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey)
		},
		func() error { return applyBool(lookup, "ASKDATA_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "ASKDATA_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error {
			return applyBool(lookup, "ASKDATA_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
		},

		func() error { return applyString(lookup, "ASKDATA_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "OPENAI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "ASKDATA_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "ASKDATA_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyDuration(lookup, "ASKDATA_AI_TIMEOUT", &cfg.AI.Timeout) },

		func() error { return applyBool(lookup, "ASKDATA_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "ASKDATA_LOG_LEVEL", &cfg.Observability.LogLevel) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Config{}, err
		}
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if err := validateWriteTimeout(cfg); err != nil {
		return Config{}, err
	}
	if cfg.Database.URL != "" {
		if err := validateDatabaseURL(cfg.Database.URL); err != nil {
			return Config{}, fmt.Errorf("invalid ASKDATA_DATABASE_URL: %w", err)
		}
	}
	return cfg, nil
}

// Missing reports the per-request prerequisites that are absent. Each entry
// names the setting an operator has to provide.
func (c Config) Missing() []string {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "ASKDATA_DATABASE_URL")
	}
	if c.AI.APIKey == "" {
		missing = append(missing, "ASKDATA_AI_API_KEY")
	}
	return missing
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "askdata-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
		},
		Schema: SchemaConfig{
			File: "schema.txt",
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:        "localhost:9000",
			Region:          "us-east-1",
			Bucket:          "askdata",
			AccessKeyID:     "minio",
			SecretAccessKey: "miniostorage",
		},
		AI: AIConfig{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.ObjectStore.UseSSL = true
	}

	return cfg
}

// validateWriteTimeout keeps the write deadline past the worst case of one
// /ask call, so a timed-out request still gets its JSON error body.
func validateWriteTimeout(cfg Config) error {
	write := cfg.HTTP.WriteTimeout
	budget := cfg.AI.Timeout + cfg.Database.QueryTimeout
	if write <= 0 || cfg.AI.Timeout <= 0 || cfg.Database.QueryTimeout <= 0 {
		return nil
	}
	if write <= budget {
		return fmt.Errorf("ASKDATA_HTTP_WRITE_TIMEOUT (%s) must exceed ASKDATA_AI_TIMEOUT + ASKDATA_DB_QUERY_TIMEOUT (%s)", write, budget)
	}
	return nil
}

func validateDatabaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql", "duckdb", "sqlite", "sqlite3":
		return nil
	case "":
		return fmt.Errorf("missing scheme")
	default:
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
