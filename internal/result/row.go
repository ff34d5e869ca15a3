// Package result turns raw driver rows into JSON-safe, column-ordered records.
package result

import (
	"bytes"
	"encoding/json"
)

// Row keeps columns in select-list order. A name repeated in the select list
// keeps its first position and takes the last value, like assigning into a
// map in column order.
type Row struct {
	keys   []string
	values []any
	index  map[string]int
}

func NewRow(capacity int) *Row {
	return &Row{
		keys:   make([]string, 0, capacity),
		values: make([]any, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

func (r *Row) Set(key string, value any) {
	if position, ok := r.index[key]; ok {
		r.values[position] = value
		return
	}
	r.index[key] = len(r.keys)
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

func (r *Row) Get(key string) (any, bool) {
	position, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.values[position], true
}

func (r *Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Row) Len() int {
	return len(r.keys)
}

func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
