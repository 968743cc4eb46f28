// Package storage writes uploaded files to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the connection settings for the object store.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string

	// MaxObjectBytes is the largest object Put will be asked to store. It
	// sizes the single part buffer minio-go allocates per upload.
	MaxObjectBytes int64
}

// minPartSize is the smallest multipart part S3 accepts.
const minPartSize uint64 = 5 << 20

// PartSizeFor returns the part size for objects of at most maxObjectBytes.
// One byte over the cap still fits in the first part, so an oversized
// stream fails on read instead of starting a second part.
func PartSizeFor(maxObjectBytes int64) uint64 {
	if maxObjectBytes <= 0 {
		return minPartSize
	}
	return max(minPartSize, uint64(maxObjectBytes)+1)
}

// Object describes a stored object.
type Object struct {
	Key string
	URL string
}

// MinioStore stores objects in a single bucket through minio-go. It works
// against MinIO, Cloudflare R2 and AWS S3 alike.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	partSize  uint64
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// NewMinioStore connects to the object store and checks the bucket exists.
func NewMinioStore(ctx context.Context, cfg Config) (*MinioStore, error) {
	s, err := newMinioStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newMinioStore(cfg Config) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("object storage configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		partSize:  PartSizeFor(cfg.MaxObjectBytes),
	}, nil
}

// Put streams r into the bucket under folder/<uuid>-<sanitized name>. The
// size is unknown up front; minio-go buffers one part of s.partSize.
func (s *MinioStore) Put(ctx context.Context, folder, fileName, contentType string, r io.Reader) (Object, error) {
	key := ObjectKey(folder, uuid.New(), fileName)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    s.partSize,
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}

	u, err := PublicURL(s.publicURL, key)
	if err != nil {
		return Object{}, err
	}
	return Object{Key: key, URL: u}, nil
}

// Delete removes the object stored under key. Removing a missing key is
// not an error.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket does not exist: %s", s.bucket)
	}
	return nil
}

// Bucket returns the bucket name.
func (s *MinioStore) Bucket() string { return s.bucket }

// PublicURL joins the public base URL and an object key.
func PublicURL(base, key string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("empty public url")
	}
	return url.JoinPath(base, key)
}
