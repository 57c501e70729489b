package storage

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err      error
		notFound bool
	}{
		{minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, true},
		{minio.ErrorResponse{Code: "NoSuchUpload"}, true},
		{minio.ErrorResponse{StatusCode: http.StatusNotFound}, true},
		{minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, false},
		{errors.New("dial tcp: connection refused"), false},
	}
	for _, tc := range cases {
		if got := errors.Is(mapError(tc.err), ErrObjectNotFound); got != tc.notFound {
			t.Fatalf("%v: expected not-found=%v, got %v", tc.err, tc.notFound, got)
		}
	}
}

func TestToInfoDefaultsContentType(t *testing.T) {
	info := toInfo(minio.ObjectInfo{Key: "k", Size: 10})
	if info.ContentType != "application/octet-stream" || info.Size != 10 {
		t.Fatalf("unexpected info: %+v", info)
	}
}
