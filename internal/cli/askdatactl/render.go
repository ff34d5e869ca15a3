package askdatactl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderRaw(w io.Writer, raw []byte) error {
	if pretty, ok := prettyJSON(raw); ok {
		_, err := fmt.Fprintln(w, pretty)
		return err
	}
	if len(raw) > 0 {
		_, err := fmt.Fprintln(w, string(raw))
		return err
	}
	return nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var formatted bytes.Buffer
	if err := json.Indent(&formatted, bytes.TrimSpace(raw), "", "  "); err != nil {
		return "", false
	}
	return formatted.String(), true
}

func renderTable(w io.Writer, raw []byte) error {
	columns, rows, err := decodeRows(raw)
	if err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	t.AppendHeader(header)

	for _, row := range rows {
		line := make(table.Row, len(columns))
		for i, column := range columns {
			line[i] = formatValue(row[column])
		}
		t.AppendRow(line)
	}
	t.Render()
	_, err = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

// decodeRows keeps the column order of the first appearance of every key;
// json.Unmarshal into a map would lose it.
func decodeRows(raw []byte) ([]string, []map[string]any, error) {
	var objects []json.RawMessage
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, nil, err
	}

	var columns []string
	seen := map[string]struct{}{}
	rows := make([]map[string]any, 0, len(objects))
	for _, object := range objects {
		keys, err := objectKeys(object)
		if err != nil {
			return nil, nil, err
		}
		for _, key := range keys {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
		var row map[string]any
		decoder := json.NewDecoder(bytes.NewReader(object))
		decoder.UseNumber()
		if err := decoder.Decode(&row); err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func objectKeys(object json.RawMessage) ([]string, error) {
	decoder := json.NewDecoder(bytes.NewReader(object))
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("row is not an object")
	}
	var keys []string
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", token)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := decoder.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case string:
		return typed
	case json.Number:
		return typed.String()
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	default:
		return fmt.Sprint(typed)
	}
}
