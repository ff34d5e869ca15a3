package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestBuildDatasetFilePath(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 23, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildDatasetFilePath("demo", "vendas_detalhadas", ts, 42)
	if err != nil {
		t.Fatalf("BuildDatasetFilePath() error = %v", err)
	}
	want := "demo/vendas_detalhadas/date=2026-02-20/part-42.parquet"
	if key != want {
		t.Fatalf("BuildDatasetFilePath() = %q, want %q", key, want)
	}
}

func TestBuildSchemaKey(t *testing.T) {
	key, err := BuildSchemaKey("demo")
	if err != nil {
		t.Fatalf("BuildSchemaKey() error = %v", err)
	}
	if key != "demo/schema.txt" {
		t.Fatalf("BuildSchemaKey() = %q", key)
	}
}

func TestBuildPathRejectsInvalidComponent(t *testing.T) {
	if _, err := BuildDatasetFilePath("../oops", "vendas", time.Now(), 1); err == nil {
		t.Fatal("expected invalid component error")
	}
	if _, err := BuildSchemaKey(""); err == nil {
		t.Fatal("expected invalid component error")
	}
}

func TestReadAllEnforcesLimit(t *testing.T) {
	store := memoryStore{"small": "abc", "large": strings.Repeat("x", 11)}

	body, err := ReadAll(context.Background(), store, "small", 10)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(body) != "abc" {
		t.Fatalf("body = %q", body)
	}
	if _, err := ReadAll(context.Background(), store, "large", 10); err == nil {
		t.Fatal("expected size limit error")
	}
	if _, err := ReadAll(context.Background(), store, "missing", 10); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("missing error = %v, want ErrObjectNotFound", err)
	}
}

type memoryStore map[string]string

func (m memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ PutOptions) (ObjectInfo, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return ObjectInfo{}, err
	}
	m[key] = buf.String()
	return ObjectInfo{Key: key, Size: int64(buf.Len())}, nil
}

func (m memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	value, ok := m[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(value)), nil
}
