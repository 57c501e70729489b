package httprange

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		header string
		size   int64
		want   Range
	}{
		{"bytes=2-5", 10, Range{2, 5}},
		{"bytes=0-0", 10, Range{0, 0}},
		{"bytes=0-", 10, Range{0, 9}},
		{"bytes=7-", 10, Range{7, 9}},
		{"bytes=3-100", 10, Range{3, 9}},
		{"bytes=9-9", 10, Range{9, 9}},
		{"bytes=-4", 10, Range{6, 9}},
		{"bytes=-10", 10, Range{0, 9}},
		{"bytes=-25", 10, Range{0, 9}},
		{" bytes=1-2 ", 10, Range{1, 2}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.header, tc.size)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %+v, got %+v", tc.header, tc.want, got)
		}
		if got.Start > got.End || got.End >= tc.size {
			t.Fatalf("%q: range %+v escapes object bounds", tc.header, got)
		}
	}
}

func TestParseUnsatisfiable(t *testing.T) {
	cases := []struct {
		header string
		size   int64
	}{
		{"bytes=10-", 10},
		{"bytes=10-12", 10},
		{"bytes=5-2", 10},
		{"bytes=-0", 10},
		{"bytes=-", 10},
		{"bytes=abc-", 10},
		{"bytes=+1-3", 10},
		{"bytes=1-3,5-6", 10},
		{"items=0-1", 10},
		{"bytes=0-1", 0},
		{"", 10},
	}
	for _, tc := range cases {
		if _, err := Parse(tc.header, tc.size); !errors.Is(err, ErrUnsatisfiable) {
			t.Fatalf("%q size %d: expected ErrUnsatisfiable, got %v", tc.header, tc.size, err)
		}
	}
}

func TestContentRangeAndLength(t *testing.T) {
	r := Range{Start: 2, End: 5}
	if r.Length() != 4 {
		t.Fatalf("expected length 4, got %d", r.Length())
	}
	if got := r.ContentRange(10); got != "bytes 2-5/10" {
		t.Fatalf("unexpected content range %q", got)
	}
	if got := UnsatisfiedContentRange(10); got != "bytes */10" {
		t.Fatalf("unexpected unsatisfied content range %q", got)
	}
}
