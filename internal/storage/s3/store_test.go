package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/askdata/askdata/internal/storage"
)

func TestPutPlacesKeyUnderPrefix(t *testing.T) {
	fake := newFakeBackend()
	store := mustStore(t, "askdata", "/prod/", fake)

	_, err := store.Put(context.Background(), "/demo/schema.txt", bytes.NewBufferString("tabela"), 6, storage.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if fake.lastBucket != "askdata" {
		t.Fatalf("bucket = %q", fake.lastBucket)
	}
	if fake.lastKey != "prod/demo/schema.txt" {
		t.Fatalf("key = %q", fake.lastKey)
	}
	if fake.lastContentType != "text/plain" {
		t.Fatalf("content type = %q", fake.lastContentType)
	}
}

func TestGetReadsSchemaThroughPrefix(t *testing.T) {
	fake := newFakeBackend()
	fake.objects["prod/demo/schema.txt"] = "Tabela: vendas_detalhadas"
	store := mustStore(t, "askdata", "prod", fake)

	body, err := storage.ReadAll(context.Background(), store, "demo/schema.txt", 1024)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(body) != "Tabela: vendas_detalhadas" {
		t.Fatalf("body = %q", body)
	}
}

func TestGetMissingObjectIsNotFound(t *testing.T) {
	store := mustStore(t, "askdata", "", newFakeBackend())
	_, err := store.Get(context.Background(), "demo/schema.txt")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
	if !strings.Contains(err.Error(), "s3://askdata/demo/schema.txt") {
		t.Fatalf("Get() error = %v, want object location", err)
	}
}

func TestObjectKeyValidation(t *testing.T) {
	store := mustStore(t, "askdata", "base", newFakeBackend())
	cases := map[string]string{
		"demo/./schema.txt":    "base/demo/schema.txt",
		"demo//schema.txt":     "base/demo/schema.txt",
		"demo/x/../schema.txt": "base/demo/schema.txt",
	}
	for input, want := range cases {
		got, err := store.objectKey(input)
		if err != nil {
			t.Fatalf("objectKey(%q) error = %v", input, err)
		}
		if got != want {
			t.Fatalf("objectKey(%q) = %q, want %q", input, got, want)
		}
	}
	for _, input := range []string{"", "  ", "/", "..", "../secrets.txt", "demo/../../x"} {
		if _, err := store.objectKey(input); err == nil {
			t.Fatalf("objectKey(%q) expected error", input)
		}
	}
}

func TestNewStoreRequiresBucket(t *testing.T) {
	if _, err := newStore(" ", "", newFakeBackend()); err == nil {
		t.Fatal("expected bucket error")
	}
}

func TestConfigAddress(t *testing.T) {
	cases := []struct {
		endpoint string
		useSSL   bool
		host     string
		secure   bool
	}{
		{endpoint: "https://minio.example.com", host: "minio.example.com", secure: true},
		{endpoint: "http://minio:9000", useSSL: true, host: "minio:9000", secure: false},
		{endpoint: "localhost:9000", host: "localhost:9000", secure: false},
		{endpoint: "s3.amazonaws.com", useSSL: true, host: "s3.amazonaws.com", secure: true},
	}
	for _, tc := range cases {
		host, secure, err := Config{Endpoint: tc.endpoint, UseSSL: tc.useSSL}.address()
		if err != nil {
			t.Fatalf("address(%q) error = %v", tc.endpoint, err)
		}
		if host != tc.host || secure != tc.secure {
			t.Fatalf("address(%q) = %q/%v", tc.endpoint, host, secure)
		}
	}

	for _, endpoint := range []string{"", "ftp://minio", "https://"} {
		if _, _, err := (Config{Endpoint: endpoint}).address(); err == nil {
			t.Fatalf("address(%q) expected error", endpoint)
		}
	}
}

func mustStore(t *testing.T, bucket, prefix string, b backend) *Store {
	t.Helper()
	store, err := newStore(bucket, prefix, b)
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}
	return store
}

type fakeBackend struct {
	objects         map[string]string
	lastBucket      string
	lastKey         string
	lastContentType string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[string]string{}}
}

func (f *fakeBackend) upload(_ context.Context, bucket, key string, body io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	f.lastBucket = bucket
	f.lastKey = key
	f.lastContentType = contentType
	data, _ := io.ReadAll(body)
	f.objects[key] = string(data)
	return storage.ObjectInfo{Key: key, Size: size, ETag: "etag-1"}, nil
}

func (f *fakeBackend) download(_ context.Context, _, key string) (io.ReadCloser, error) {
	value, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(value)), nil
}

func (f *fakeBackend) makeBucket(_ context.Context, _, _ string) error {
	return nil
}
