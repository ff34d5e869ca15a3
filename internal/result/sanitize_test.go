package result

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/askdata/askdata/internal/query"
)

type fakeDecimal struct {
	Value int64
	Scale int
}

func (d *fakeDecimal) Float64() float64 {
	return float64(d.Value) / math.Pow10(d.Scale)
}

func TestSanitizeReplacesNonFiniteFloatsWithNull(t *testing.T) {
	columns := []query.Column{{Name: "produto"}, {Name: "margem"}, {Name: "razao"}, {Name: "ratio32"}}
	rows := [][]any{
		{"Notebook", math.Inf(1), math.NaN(), float32(math.Inf(-1))},
		{"Mouse", 0.25, 1.5, float32(2)},
	}

	sanitized, stats, err := Sanitize(columns, rows)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	if stats.NonFinite != 3 {
		t.Fatalf("NonFinite = %d, want 3", stats.NonFinite)
	}
	if value, _ := sanitized[0].Get("margem"); value != nil {
		t.Fatalf("margem = %#v, want nil", value)
	}
	if value, _ := sanitized[1].Get("ratio32"); value != float64(2) {
		t.Fatalf("ratio32 = %#v", value)
	}

	encoded, err := json.Marshal(sanitized)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	text := string(encoded)
	for _, token := range []string{"NaN", "Infinity", "Inf"} {
		if strings.Contains(text, token) {
			t.Fatalf("encoded output contains %q: %s", token, text)
		}
	}
	want := `[{"produto":"Notebook","margem":null,"razao":null,"ratio32":null},{"produto":"Mouse","margem":0.25,"razao":1.5,"ratio32":2}]`
	if text != want {
		t.Fatalf("encoded = %s\nwant      %s", text, want)
	}
}

func TestSanitizeFixedPointBecomesFloat(t *testing.T) {
	columns := []query.Column{
		{Name: "total", DatabaseType: "NUMERIC"},
		{Name: "preco", DatabaseType: "DECIMAL(18,2)"},
		{Name: "media", DatabaseType: "NUMERIC"},
		{Name: "texto", DatabaseType: "TEXT"},
		{Name: "big"},
		{Name: "driver"},
		{Name: "rat"},
	}
	rows := [][]any{{
		"1234.50",
		[]byte("99.90"),
		"NaN",
		"1234.50",
		big.NewInt(42),
		fakeDecimal{Value: 12345, Scale: 2},
		big.NewRat(1, 4),
	}}

	sanitized, stats, err := Sanitize(columns, rows)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	row := sanitized[0]
	expect := map[string]any{
		"total":  1234.5,
		"preco":  99.9,
		"media":  nil,
		"texto":  "1234.50",
		"big":    float64(42),
		"driver": 123.45,
		"rat":    0.25,
	}
	for key, want := range expect {
		got, ok := row.Get(key)
		if !ok {
			t.Fatalf("missing column %q", key)
		}
		if got != want {
			t.Fatalf("%s = %#v, want %#v", key, got, want)
		}
	}
	if stats.NonFinite != 1 {
		t.Fatalf("NonFinite = %d, want 1", stats.NonFinite)
	}
}

func TestSanitizeTemporalValuesRoundTrip(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	stamp := time.Date(2024, 3, 9, 14, 30, 5, 123000000, time.UTC)
	zoned := time.Date(2024, 3, 9, 14, 30, 5, 0, saoPaulo)

	columns := []query.Column{
		{Name: "DATA_VENDA", DatabaseType: "DATE"},
		{Name: "criado_em", DatabaseType: "TIMESTAMP"},
		{Name: "atualizado_em", DatabaseType: "TIMESTAMPTZ"},
	}
	sanitized, _, err := Sanitize(columns, [][]any{{day, stamp, zoned}})
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	row := sanitized[0]

	dateText, _ := row.Get("DATA_VENDA")
	if dateText != "2024-03-09" {
		t.Fatalf("DATA_VENDA = %#v", dateText)
	}
	parsedDay, err := time.Parse(dateLayout, dateText.(string))
	if err != nil || !parsedDay.Equal(day) {
		t.Fatalf("date round trip = %v, %v", parsedDay, err)
	}

	stampText, _ := row.Get("criado_em")
	if stampText != "2024-03-09T14:30:05.123" {
		t.Fatalf("criado_em = %#v", stampText)
	}
	parsedStamp, err := time.Parse(timestampLayout, stampText.(string))
	if err != nil || !parsedStamp.Equal(stamp) {
		t.Fatalf("timestamp round trip = %v, %v", parsedStamp, err)
	}

	zonedText, _ := row.Get("atualizado_em")
	if zonedText != "2024-03-09T14:30:05-03:00" {
		t.Fatalf("atualizado_em = %#v", zonedText)
	}
	parsedZoned, err := time.Parse(time.RFC3339Nano, zonedText.(string))
	if err != nil || !parsedZoned.Equal(zoned) {
		t.Fatalf("zoned round trip = %v, %v", parsedZoned, err)
	}
}

func TestSanitizeKeepsScalarsAndConvertsBytes(t *testing.T) {
	columns := []query.Column{{Name: "ativo"}, {Name: "qtd"}, {Name: "nome"}, {Name: "vazio"}, {Name: "raw"}, {Name: "u"}}
	sanitized, _, err := Sanitize(columns, [][]any{{true, int64(7), "Ana", nil, []byte("abc"), uint32(3)}})
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	encoded, err := json.Marshal(sanitized[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"ativo":true,"qtd":7,"nome":"Ana","vazio":null,"raw":"abc","u":3}` {
		t.Fatalf("encoded = %s", encoded)
	}
}

func TestSanitizeNestedValues(t *testing.T) {
	columns := []query.Column{{Name: "lista"}, {Name: "mapa"}, {Name: "ids"}}
	rows := [][]any{{
		[]any{1.5, math.NaN(), "x"},
		map[string]any{"a": math.Inf(1), "b": int64(2)},
		[]int64{1, 2, 3},
	}}
	sanitized, stats, err := Sanitize(columns, rows)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	if stats.NonFinite != 2 {
		t.Fatalf("NonFinite = %d, want 2", stats.NonFinite)
	}
	encoded, err := json.Marshal(sanitized[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"lista":[1.5,null,"x"],"mapa":{"a":null,"b":2},"ids":[1,2,3]}` {
		t.Fatalf("encoded = %s", encoded)
	}
}

func TestSanitizeFormatsSixteenByteArraysAsUUID(t *testing.T) {
	type uuid [16]byte
	value := uuid{0x12, 0x3e, 0x45, 0x67, 0xe8, 0x9b, 0x12, 0xd3, 0xa4, 0x56, 0x42, 0x66, 0x14, 0x17, 0x40, 0x00}
	sanitized, _, err := Sanitize([]query.Column{{Name: "id"}}, [][]any{{value}})
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	if got, _ := sanitized[0].Get("id"); got != "123e4567-e89b-12d3-a456-426614174000" {
		t.Fatalf("id = %#v", got)
	}
}

func TestSanitizeBinaryColumnsStayLossless(t *testing.T) {
	uuidBytes := []byte{0x12, 0x3e, 0x45, 0x67, 0xe8, 0x9b, 0x12, 0xd3, 0xa4, 0x56, 0x42, 0x66, 0x14, 0x17, 0x40, 0x00}
	columns := []query.Column{
		{Name: "id", DatabaseType: "UUID"},
		{Name: "blob16", DatabaseType: "BLOB"},
		{Name: "bin", DatabaseType: "BLOB"},
		{Name: "texto", DatabaseType: "BLOB"},
		{Name: "vazio", DatabaseType: "BLOB"},
	}
	rows := [][]any{{uuidBytes, uuidBytes, []byte{0xaa, 0xbb, 0xff}, []byte("São Paulo"), []byte(nil)}}
	sanitized, _, err := Sanitize(columns, rows)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	encoded, err := json.Marshal(sanitized[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"id":"123e4567-e89b-12d3-a456-426614174000","blob16":"Ej5FZ+ibEtOkVkJmFBdAAA==","bin":"qrv/","texto":"São Paulo","vazio":null}`
	if string(encoded) != want {
		t.Fatalf("encoded = %s, want %s", encoded, want)
	}
	if strings.ContainsRune(string(encoded), '\uFFFD') {
		t.Fatalf("encoded contains replacement characters: %s", encoded)
	}
}

func TestSanitizeNilValuesBecomeNull(t *testing.T) {
	columns := []query.Column{{Name: "dec"}, {Name: "mapa"}, {Name: "lista"}, {Name: "ptr"}}
	rows := [][]any{{(*fakeDecimal)(nil), map[string]any(nil), []any(nil), (*int64)(nil)}}
	sanitized, _, err := Sanitize(columns, rows)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	encoded, err := json.Marshal(sanitized[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"dec":null,"mapa":null,"lista":null,"ptr":null}` {
		t.Fatalf("encoded = %s", encoded)
	}
}

func TestSanitizeFixedPointOutOfRangeBecomesNull(t *testing.T) {
	columns := []query.Column{{Name: "n", DatabaseType: "NUMERIC"}}
	rows := [][]any{{"1e400"}, {"-1e400"}, {"12.50"}, {"n/a"}}
	sanitized, stats, err := Sanitize(columns, rows)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	encoded, err := json.Marshal(sanitized)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `[{"n":null},{"n":null},{"n":12.5},{"n":"n/a"}]` {
		t.Fatalf("encoded = %s", encoded)
	}
	if stats.NonFinite != 2 {
		t.Fatalf("NonFinite = %d, want 2", stats.NonFinite)
	}
}

func TestSanitizeDuplicateColumnsKeepFirstPositionLastValue(t *testing.T) {
	columns := []query.Column{{Name: "x"}, {Name: "y"}, {Name: "x"}}
	sanitized, _, err := Sanitize(columns, [][]any{{int64(1), int64(2), int64(3)}})
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	encoded, err := json.Marshal(sanitized[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"x":3,"y":2}` {
		t.Fatalf("encoded = %s", encoded)
	}
}

func TestSanitizeRejectsUnsupportedValues(t *testing.T) {
	cases := []any{make(chan int), func() {}, complex(1, 2)}
	for _, value := range cases {
		_, _, err := Sanitize([]query.Column{{Name: "weird"}}, [][]any{{value}})
		var unsupported *UnsupportedValueTypeError
		if !errors.As(err, &unsupported) {
			t.Fatalf("Sanitize(%T) error = %v, want *UnsupportedValueTypeError", value, err)
		}
		if unsupported.Column != "weird" {
			t.Fatalf("Column = %q", unsupported.Column)
		}
	}
}

func TestSanitizeEmptyResultEncodesAsEmptyArray(t *testing.T) {
	sanitized, _, err := Sanitize([]query.Column{{Name: "x"}}, nil)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	encoded, err := json.Marshal(sanitized)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `[]` {
		t.Fatalf("encoded = %s", encoded)
	}
}

func TestSanitizeRejectsRaggedRows(t *testing.T) {
	if _, _, err := Sanitize([]query.Column{{Name: "x"}}, [][]any{{1, 2}}); err == nil {
		t.Fatalf("expected error")
	}
}
