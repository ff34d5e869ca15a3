package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildDatasetFilePath lays exported files out as
// dataset/table/date=YYYY-MM-DD/part-<seed>.parquet.
func BuildDatasetFilePath(dataset, tableName string, generatedAt time.Time, seed int64) (string, error) {
	if err := validatePathComponent(dataset, "dataset"); err != nil {
		return "", err
	}
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	if seed < 0 {
		return "", fmt.Errorf("seed must be >= 0")
	}

	ts := generatedAt.UTC()
	return path.Join(
		dataset,
		tableName,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("part-%d.parquet", seed),
	), nil
}

// BuildSchemaKey is where a dataset's schema description lives.
func BuildSchemaKey(dataset string) (string, error) {
	if err := validatePathComponent(dataset, "dataset"); err != nil {
		return "", err
	}
	return path.Join(dataset, "schema.txt"), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
