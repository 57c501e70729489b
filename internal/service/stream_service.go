package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"edupanel/internal/media/httprange"
	"edupanel/internal/storage"
)

const fallbackContentType = "application/octet-stream"

type ObjectReader interface {
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error)
	GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
}

// Stream is an open object body plus the headers describing it.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Size          int64
	Partial       bool
	ContentRange  string
}

// RangeError reports an unsatisfiable Range for an object of Size bytes.
type RangeError struct {
	Size int64
}

func (e *RangeError) Error() string {
	return ErrRangeNotSatisfiable.Error()
}

func (e *RangeError) Unwrap() error {
	return ErrRangeNotSatisfiable
}

func (e *RangeError) ContentRange() string {
	return httprange.UnsatisfiedContentRange(e.Size)
}

type StreamService struct {
	store ObjectReader
}

func NewStreamService(store ObjectReader) *StreamService {
	return &StreamService{store: store}
}

// Open resolves key and the optional Range header into a readable body.
func (s *StreamService) Open(ctx context.Context, key string, rangeHeader string) (Stream, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return Stream{}, ErrVideoNotFound
	}

	if strings.TrimSpace(rangeHeader) == "" {
		body, info, err := s.store.Get(ctx, key)
		if err != nil {
			return Stream{}, storeError(err)
		}
		return Stream{
			Body:          body,
			ContentType:   contentTypeOf(info),
			ContentLength: info.Size,
			Size:          info.Size,
		}, nil
	}

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		return Stream{}, storeError(err)
	}

	r, err := httprange.Parse(rangeHeader, info.Size)
	if err != nil {
		return Stream{}, &RangeError{Size: info.Size}
	}

	body, err := s.store.GetRange(ctx, key, r.Start, r.End)
	if err != nil {
		return Stream{}, storeError(err)
	}
	return Stream{
		Body:          body,
		ContentType:   contentTypeOf(info),
		ContentLength: r.Length(),
		Size:          info.Size,
		Partial:       true,
		ContentRange:  r.ContentRange(info.Size),
	}, nil
}

func contentTypeOf(info storage.ObjectInfo) string {
	if info.ContentType == "" {
		return fallbackContentType
	}
	return info.ContentType
}

func storeError(err error) error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return ErrVideoNotFound
	}
	return fmt.Errorf("open object: %w", err)
}
