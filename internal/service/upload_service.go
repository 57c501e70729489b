package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edupanel/internal/config"
	"edupanel/internal/media/sniffer"
	"edupanel/internal/metrics"
	"edupanel/internal/queue"
	"edupanel/internal/storage"
)

type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (storage.ObjectInfo, error)
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type UploadService struct {
	store   ObjectWriter
	pending PendingUploads
	queue   TaskQueue
	keys    storage.KeyMinter
	cfg     config.UploadConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewUploadService(store ObjectWriter, pending PendingUploads, q TaskQueue, keys storage.KeyMinter, cfg config.UploadConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		store:   store,
		pending: pending,
		queue:   q,
		keys:    keys,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

type MintInput struct {
	FileName    string
	ContentType string
}

type PresignResult struct {
	Key       string
	SignedURL string
}

// MintKey validates the declared type and reserves a fresh object key.
func (s *UploadService) MintKey(ctx context.Context, input MintInput) (string, error) {
	fields := fieldErrors{}
	if strings.TrimSpace(input.FileName) == "" {
		fields.add("fileName", "required")
	}
	if strings.TrimSpace(input.ContentType) == "" {
		fields.add("contentType", "required")
	}
	if err := fields.err(); err != nil {
		return "", err
	}
	if !sniffer.Allowed(input.ContentType, s.cfg.AllowedTypes) {
		return "", ErrUnsupportedContent
	}

	key := s.keys.Mint(input.FileName)
	if s.pending != nil {
		if err := s.pending.Track(ctx, key, s.now()); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("track pending upload failed")
		}
	}
	return key, nil
}

func (s *UploadService) Presign(ctx context.Context, input MintInput) (PresignResult, error) {
	key, err := s.MintKey(ctx, input)
	if err != nil {
		return PresignResult{}, err
	}
	url, err := s.store.PresignPut(ctx, key, s.cfg.PresignTTL)
	if err != nil {
		return PresignResult{}, fmt.Errorf("presign upload: %w", err)
	}
	return PresignResult{Key: key, SignedURL: url}, nil
}

// Spool is an upload body buffered to disk so its exact size is known.
type Spool struct {
	file         *os.File
	Size         int64
	DeclaredType string
}

// Close removes the temp file.
func (s *Spool) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	name := s.file.Name()
	closeErr := s.file.Close()
	s.file = nil
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}

// Spool copies r into a temp file under the configured directory. The
// caller must Close the result.
func (s *UploadService) Spool(r io.Reader, declaredType string) (*Spool, error) {
	file, err := os.CreateTemp(s.cfg.TempDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	spool := &Spool{file: file, DeclaredType: declaredType}

	n, err := io.Copy(file, r)
	if err != nil {
		_ = spool.Close()
		return nil, fmt.Errorf("buffer upload: %w", err)
	}
	spool.Size = n
	return spool, nil
}

// Store puts a spooled body to the object store under key.
func (s *UploadService) Store(ctx context.Context, key string, spool *Spool) (storage.ObjectInfo, error) {
	if err := s.keys.Validate(key); err != nil {
		return storage.ObjectInfo{}, ErrInvalidKey
	}
	if spool == nil || spool.file == nil || spool.Size == 0 {
		return storage.ObjectInfo{}, ErrFileRequired
	}

	if _, err := spool.file.Seek(0, io.SeekStart); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("rewind upload: %w", err)
	}
	contentType := sniffer.ContentType(spool.DeclaredType, spool.file)
	if _, err := spool.file.Seek(0, io.SeekStart); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("rewind upload: %w", err)
	}

	info, err := s.store.Put(ctx, key, spool.file, spool.Size, contentType)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("put object: %w", err)
	}
	metrics.UploadedBytes.Add(float64(spool.Size))
	s.log.Info().Str("key", key).Int64("size", spool.Size).Str("content_type", contentType).Msg("upload stored")
	return info, nil
}

// Abort hands an abandoned key to the worker for removal.
func (s *UploadService) Abort(ctx context.Context, key string) error {
	if err := s.keys.Validate(key); err != nil {
		return ErrInvalidKey
	}
	if s.queue == nil {
		return nil
	}
	if err := s.queue.Enqueue(ctx, queue.Task{Type: queue.TaskDiscardUpload, Key: key}); err != nil {
		return fmt.Errorf("enqueue discard: %w", err)
	}
	return nil
}
