package sniffer

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackMIME = "application/octet-stream"

var ErrUnknownType = errors.New("unknown media type")

// DetectVideo inspects the head of r and returns the MIME type when it is
// a video container. The reader is consumed up to the detection limit.
func DetectVideo(r io.Reader) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	for m := mtype; m != nil; m = m.Parent() {
		if IsVideo(m.String()) {
			return essence(mtype.String()), nil
		}
	}
	return "", ErrUnknownType
}

// ContentType picks the type to store an upload under: the declared type
// when it names a video, otherwise whatever the content sniffs as.
func ContentType(declared string, r io.Reader) string {
	declared = essence(declared)
	if IsVideo(declared) {
		return declared
	}
	if detected, err := DetectVideo(r); err == nil {
		return detected
	}
	if declared != "" {
		return declared
	}
	return fallbackMIME
}

func IsVideo(contentType string) bool {
	return strings.HasPrefix(essence(contentType), "video/")
}

// Allowed reports whether contentType is in the allowlist.
func Allowed(contentType string, allowlist []string) bool {
	contentType = essence(contentType)
	for _, allowed := range allowlist {
		if strings.EqualFold(strings.TrimSpace(allowed), contentType) {
			return true
		}
	}
	return false
}

func MimeTypeFromHTTP(header http.Header) string {
	return essence(header.Get("Content-Type"))
}

func essence(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
