// Package httprange parses single byte-range requests against an object of
// known size.
package httprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsatisfiable = errors.New("range not satisfiable")

// Range is an inclusive byte interval.
type Range struct {
	Start int64
	End   int64
}

func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range value for a 206 response.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// UnsatisfiedContentRange renders the Content-Range value for a 416 response.
func UnsatisfiedContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// Parse accepts "bytes=a-b", "bytes=a-" and "bytes=-n". The end is clamped
// to the last byte. Multiple ranges are not supported.
func Parse(header string, size int64) (Range, error) {
	set, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || size <= 0 || strings.Contains(set, ",") {
		return Range{}, ErrUnsatisfiable
	}

	startStr, endStr, ok := strings.Cut(set, "-")
	if !ok {
		return Range{}, ErrUnsatisfiable
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		n, err := parseOffset(endStr)
		if err != nil || n == 0 {
			return Range{}, ErrUnsatisfiable
		}
		if n > size {
			n = size
		}
		return Range{Start: size - n, End: size - 1}, nil
	}

	start, err := parseOffset(startStr)
	if err != nil || start >= size {
		return Range{}, ErrUnsatisfiable
	}

	end := size - 1
	if endStr != "" {
		parsed, err := parseOffset(endStr)
		if err != nil || parsed < start {
			return Range{}, ErrUnsatisfiable
		}
		if parsed < end {
			end = parsed
		}
	}

	return Range{Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, ErrUnsatisfiable
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrUnsatisfiable
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
