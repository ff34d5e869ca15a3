// Package s3 implements storage.ObjectStore on any S3-compatible endpoint
// through minio-go.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/askdata/askdata/internal/storage"
)

type Config struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

// address splits Endpoint into the host minio expects and the TLS flag. A
// scheme in Endpoint overrides UseSSL.
func (c Config) address() (string, bool, error) {
	raw := strings.TrimSpace(c.Endpoint)
	if raw == "" {
		return "", false, fmt.Errorf("s3 endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		return raw, c.UseSSL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse s3 endpoint: %w", err)
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("s3 endpoint %q has no host", raw)
	}
	switch parsed.Scheme {
	case "https":
		return parsed.Host, true, nil
	case "http":
		return parsed.Host, false, nil
	default:
		return "", false, fmt.Errorf("s3 endpoint scheme %q is not supported", parsed.Scheme)
	}
}

// backend is the slice of the S3 API the store needs.
type backend interface {
	upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (storage.ObjectInfo, error)
	download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	makeBucket(ctx context.Context, bucket, region string) error
}

type Store struct {
	backend backend
	bucket  string
	prefix  string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	host, secure, err := cfg.address()
	if err != nil {
		return nil, err
	}
	mc, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	store, err := newStore(cfg.Bucket, cfg.Prefix, minioBackend{client: mc})
	if err != nil {
		return nil, err
	}
	if cfg.AutoCreateBucket {
		if err := store.backend.makeBucket(ctx, store.bucket, strings.TrimSpace(cfg.Region)); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", store.bucket, err)
		}
	}
	return store, nil
}

func newStore(bucket, prefix string, b backend) (*Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &Store{backend: b, bucket: bucket, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}, nil
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := s.backend.upload(ctx, s.bucket, objectKey, body, size, opts.ContentType)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	return info, nil
}

// Get returns storage.ErrObjectNotFound (wrapped with the key) when the object
// or its bucket does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	body, err := s.backend.download(ctx, s.bucket, objectKey)
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	return body, nil
}

// objectKey places key under the configured prefix. Keys that climb out of
// the prefix are rejected.
func (s *Store) objectKey(key string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("object key %q escapes the store prefix", key)
	}
	return path.Join(s.prefix, cleaned), nil
}

type minioBackend struct {
	client *minio.Client
}

func (m minioBackend) upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	uploaded, err := m.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return storage.ObjectInfo{}, translateErr(err)
	}
	return storage.ObjectInfo{
		Key:          uploaded.Key,
		Size:         uploaded.Size,
		ETag:         uploaded.ETag,
		LastModified: uploaded.LastModified,
	}, nil
}

// download stats the object before handing it out: GetObject is lazy and
// would otherwise report a missing key on the first Read.
func (m minioBackend) download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	object, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateErr(err)
	}
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, translateErr(err)
	}
	return object, nil
}

func (m minioBackend) makeBucket(ctx context.Context, bucket, region string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return translateErr(err)
	}
	if exists {
		return nil
	}
	return translateErr(m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}))
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return errors.Join(storage.ErrObjectNotFound, err)
	}
	return err
}
