package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"edupanel/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	ETag        string
}

// ObjectStore talks to an S3-compatible bucket. The client is created on
// first use and shared for the life of the process.
type ObjectStore struct {
	cfg     config.StorageConfig
	once    sync.Once
	client  *minio.Client
	initErr error
}

func NewObjectStore(cfg config.StorageConfig) *ObjectStore {
	return &ObjectStore{cfg: cfg}
}

func (s *ObjectStore) Client() (*minio.Client, error) {
	s.once.Do(func() {
		s.client, s.initErr = newMinioClient(s.cfg)
	})
	return s.client, s.initErr
}

func newMinioClient(cfg config.StorageConfig) (*minio.Client, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}
	if endpoint == "" {
		return nil, errors.New("storage endpoint not configured")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return client, nil
}

func (s *ObjectStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	client, err := s.Client()
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := client.StatObject(ctx, s.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, mapError(err)
	}
	return toInfo(info), nil
}

// Get opens the whole object.
func (s *ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	client, err := s.Client()
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	obj, err := client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, mapError(err)
	}
	// GetObject is lazy; Stat surfaces a missing key before any byte is relayed.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, mapError(err)
	}
	return obj, toInfo(info), nil
}

// GetRange opens the inclusive byte interval [start, end].
func (s *ObjectStore) GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, end); err != nil {
		return nil, fmt.Errorf("set range: %w", err)
	}
	obj, err := client.GetObject(ctx, s.cfg.Bucket, key, opts)
	if err != nil {
		return nil, mapError(err)
	}
	return obj, nil
}

func (s *ObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error) {
	client, err := s.Client()
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := client.PutObject(ctx, s.cfg.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("put object: %w", err)
	}
	return ObjectInfo{Key: key, Size: info.Size, ContentType: contentType, ETag: info.ETag}, nil
}

// Remove deletes the object and any incomplete multipart upload under key.
// A missing object is not an error.
func (s *ObjectStore) Remove(ctx context.Context, key string) error {
	client, err := s.Client()
	if err != nil {
		return err
	}
	if err := client.RemoveIncompleteUpload(ctx, s.cfg.Bucket, key); err != nil && !errors.Is(mapError(err), ErrObjectNotFound) {
		return fmt.Errorf("remove incomplete upload: %w", err)
	}
	if err := client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil && !errors.Is(mapError(err), ErrObjectNotFound) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *ObjectStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	client, err := s.Client()
	if err != nil {
		return "", err
	}
	u, err := client.PresignedPutObject(ctx, s.cfg.Bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return u.String(), nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	client, err := s.Client()
	if err != nil {
		return err
	}
	exists, err := client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

func toInfo(info minio.ObjectInfo) ObjectInfo {
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return ObjectInfo{
		Key:         info.Key,
		Size:        info.Size,
		ContentType: contentType,
		ETag:        info.ETag,
	}
}

func mapError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchUpload", resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	default:
		return err
	}
}
