package result

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/askdata/askdata/internal/query"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.999999999"
	timeLayout      = "15:04:05.999999999"
)

type UnsupportedValueTypeError struct {
	Column string
	Type   string
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("column %q: unsupported value type %s", e.Column, e.Type)
}

type Stats struct {
	// NonFinite counts NaN and infinite values replaced by null.
	NonFinite int
}

// Sanitize converts every cell into a value encoding/json can write without
// loss of validity: non-finite floats become null, fixed-point numbers become
// float64, temporal values become ISO-8601 strings.
func Sanitize(columns []query.Column, rows [][]any) ([]*Row, Stats, error) {
	var stats Stats
	sanitized := make([]*Row, 0, len(rows))
	for rowIndex, raw := range rows {
		if len(raw) != len(columns) {
			return nil, stats, fmt.Errorf("row %d has %d values for %d columns", rowIndex, len(raw), len(columns))
		}
		row := NewRow(len(columns))
		for i, column := range columns {
			value, err := sanitizeValue(column, raw[i], &stats)
			if err != nil {
				return nil, stats, err
			}
			row.Set(column.Name, value)
		}
		sanitized = append(sanitized, row)
	}
	return sanitized, stats, nil
}

type float64er interface {
	Float64() float64
}

func sanitizeValue(column query.Column, value any, stats *Stats) (any, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if text, ok := typed.(string); ok && isFixedPoint(column) {
			return parseFixedPoint(text, stats), nil
		}
		return typed, nil
	case float64:
		return finite(typed, stats), nil
	case float32:
		return finite(float64(typed), stats), nil
	case []byte:
		if typed == nil {
			return nil, nil
		}
		return sanitizeBytes(column, typed, stats), nil
	case time.Time:
		return formatTime(column, typed), nil
	case *big.Int:
		if typed == nil {
			return nil, nil
		}
		f, _ := new(big.Float).SetInt(typed).Float64()
		return finite(f, stats), nil
	case *big.Float:
		if typed == nil {
			return nil, nil
		}
		f, _ := typed.Float64()
		return finite(f, stats), nil
	case *big.Rat:
		if typed == nil {
			return nil, nil
		}
		f, _ := typed.Float64()
		return finite(f, stats), nil
	case json.Number:
		return parseFixedPoint(typed.String(), stats), nil
	case []any:
		if typed == nil {
			return nil, nil
		}
		return sanitizeList(column, typed, stats)
	case map[string]any:
		if typed == nil {
			return nil, nil
		}
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			sanitizedItem, err := sanitizeValue(nestedColumn(column), item, stats)
			if err != nil {
				return nil, err
			}
			out[key] = sanitizedItem
		}
		return out, nil
	}
	return sanitizeReflect(column, value, stats)
}

func sanitizeReflect(column query.Column, value any, stats *Stats) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	// Driver decimals usually expose Float64 on a pointer receiver.
	if f, ok := value.(float64er); ok {
		return finite(f.Float64(), stats), nil
	}
	if rv.Kind() != reflect.Pointer {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		if f, ok := ptr.Interface().(float64er); ok {
			return finite(f.Float64(), stats), nil
		}
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return sanitizeValue(column, rv.Elem().Interface(), stats)
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return sanitizeValue(column, rv.String(), stats)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float(), stats), nil
	case reflect.Array:
		if rv.Len() == 16 && rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make([]byte, 16)
			for i := range raw {
				raw[i] = byte(rv.Index(i).Uint())
			}
			return formatUUID(raw), nil
		}
		return sanitizeSequence(column, rv, stats)
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		return sanitizeSequence(column, rv, stats)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := sanitizeValue(nestedColumn(column), iter.Value().Interface(), stats)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = item
		}
		return out, nil
	}

	if _, err := json.Marshal(value); err != nil {
		return nil, &UnsupportedValueTypeError{Column: column.Name, Type: fmt.Sprintf("%T", value)}
	}
	return value, nil
}

func sanitizeList(column query.Column, values []any, stats *Stats) ([]any, error) {
	out := make([]any, len(values))
	for i, item := range values {
		sanitizedItem, err := sanitizeValue(nestedColumn(column), item, stats)
		if err != nil {
			return nil, err
		}
		out[i] = sanitizedItem
	}
	return out, nil
}

func sanitizeSequence(column query.Column, rv reflect.Value, stats *Stats) ([]any, error) {
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return sanitizeList(column, values, stats)
}

// nestedColumn keeps the column name for error reporting but drops the type,
// which describes the container rather than its elements.
func nestedColumn(column query.Column) query.Column {
	return query.Column{Name: column.Name}
}

func finite(value float64, stats *Stats) any {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		stats.NonFinite++
		return nil
	}
	return value
}

// parseFixedPoint returns text unchanged only when it is not a number at all.
// Values beyond float64 range parse to an infinity and end up null.
func parseFixedPoint(text string, stats *Stats) any {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return text
	}
	return finite(parsed, stats)
}

// sanitizeBytes keeps binary data lossless: 16-byte UUID columns become the
// canonical text form, valid UTF-8 stays text, anything else is base64.
func sanitizeBytes(column query.Column, value []byte, stats *Stats) any {
	switch {
	case isFixedPoint(column):
		return parseFixedPoint(string(value), stats)
	case len(value) == 16 && strings.EqualFold(column.DatabaseType, "UUID"):
		return formatUUID(value)
	case utf8.Valid(value):
		return string(value)
	default:
		return base64.StdEncoding.EncodeToString(value)
	}
}

func isFixedPoint(column query.Column) bool {
	typeName := strings.ToUpper(column.DatabaseType)
	return strings.HasPrefix(typeName, "NUMERIC") || strings.HasPrefix(typeName, "DECIMAL")
}

func formatTime(column query.Column, value time.Time) string {
	typeName := strings.ToUpper(column.DatabaseType)
	switch {
	case typeName == "DATE":
		return value.Format(dateLayout)
	case typeName == "TIME":
		return value.Format(timeLayout)
	case typeName == "DATETIME", typeName == "TIMESTAMP",
		strings.HasPrefix(typeName, "TIMESTAMP_"), strings.HasPrefix(typeName, "TIMESTAMP("):
		return value.Format(timestampLayout)
	default:
		return value.Format(time.RFC3339Nano)
	}
}

func formatUUID(raw []byte) string {
	encoded := hex.EncodeToString(raw)
	return encoded[0:8] + "-" + encoded[8:12] + "-" + encoded[12:16] + "-" + encoded[16:20] + "-" + encoded[20:32]
}
