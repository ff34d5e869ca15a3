package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	TableName   string
	Rows        int
	RandomSeed  int64
	StartDate   time.Time
	Days        int
	CreateTable bool
	// ParquetPath, when set, also writes the rows to a local parquet file.
	ParquetPath string
	// Dataset names the object-store folder that receives the parquet export
	// and the schema description when an object store is configured.
	Dataset string
	Publish bool
}

func DefaultConfig() Config {
	return Config{
		TableName:   "vendas_detalhadas",
		Rows:        1000,
		RandomSeed:  42,
		StartDate:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:        365,
		CreateTable: true,
		Dataset:     "demo",
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	steps := []func() error{
		func() error { return applyString(lookup, "ASKDATA_SEED_TABLE", &cfg.TableName) },
		func() error { return applyInt(lookup, "ASKDATA_SEED_ROWS", &cfg.Rows) },
		func() error { return applyInt64(lookup, "ASKDATA_SEED_RANDOM_SEED", &cfg.RandomSeed) },
		func() error { return applyDate(lookup, "ASKDATA_SEED_START_DATE", &cfg.StartDate) },
		func() error { return applyInt(lookup, "ASKDATA_SEED_DAYS", &cfg.Days) },
		func() error { return applyBool(lookup, "ASKDATA_SEED_CREATE_TABLE", &cfg.CreateTable) },
		func() error { return applyString(lookup, "ASKDATA_SEED_PARQUET_PATH", &cfg.ParquetPath) },
		func() error { return applyString(lookup, "ASKDATA_SEED_DATASET", &cfg.Dataset) },
		func() error { return applyBool(lookup, "ASKDATA_SEED_PUBLISH", &cfg.Publish) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Config{}, err
		}
	}

	if cfg.TableName == "" {
		return Config{}, fmt.Errorf("ASKDATA_SEED_TABLE is required")
	}
	if strings.ContainsAny(cfg.TableName, "\"'; ") {
		return Config{}, fmt.Errorf("ASKDATA_SEED_TABLE %q contains invalid characters", cfg.TableName)
	}
	if cfg.Rows <= 0 {
		return Config{}, fmt.Errorf("ASKDATA_SEED_ROWS must be > 0")
	}
	if cfg.Days <= 0 {
		return Config{}, fmt.Errorf("ASKDATA_SEED_DAYS must be > 0")
	}
	if cfg.Publish && cfg.Dataset == "" {
		return Config{}, fmt.Errorf("ASKDATA_SEED_DATASET is required when publishing")
	}
	return cfg, nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyDate(lookup LookupFunc, key string, dst *time.Time) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
