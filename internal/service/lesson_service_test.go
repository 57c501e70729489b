package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"edupanel/internal/models"
	"edupanel/internal/pagination"
	"edupanel/internal/storage"
)

const testKey = "lessons/1760000000000-2m0pkqz3rcwq1f0n7s5yq0v9nt4-intro.mp4"

func testMinter() storage.KeyMinter {
	return storage.KeyMinter{
		Prefix: "lessons",
		Now:    func() time.Time { return time.UnixMilli(1760000000000) },
		Suffix: func() string { return "2m0pkqz3rcwq1f0n7s5yq0v9nt4" },
	}
}

func newLessons() (*LessonService, *fakeLessons, *fakePending) {
	store := newFakeLessons()
	pending := newFakePending()
	return NewLessonService(store, pending, testMinter(), 3, nopLogger()), store, pending
}

func validInput() LessonInput {
	return LessonInput{
		Name:         "Algebra basics",
		Grade:        "grade-1",
		Week:         1,
		PaymentState: "free",
		Videos: []VideoInput{
			{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
			{Type: "storage", Key: testKey},
			{},
		},
	}
}

func TestCreateLesson(t *testing.T) {
	s, _, pending := newLessons()
	pending.tracked[testKey] = time.Now()

	lesson, err := s.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(lesson.Videos) != 2 {
		t.Fatalf("expected blank row skipped, got %+v", lesson.Videos)
	}
	if lesson.Videos[0].Type != models.VideoYouTube || lesson.Videos[0].VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected youtube video: %+v", lesson.Videos[0])
	}
	if lesson.Videos[1].Type != models.VideoStorage || lesson.Videos[1].Key != testKey {
		t.Fatalf("unexpected storage video: %+v", lesson.Videos[1])
	}
	if _, stillPending := pending.tracked[testKey]; stillPending {
		t.Fatalf("expected saved key to leave the pending registry")
	}

	got, err := s.Get(context.Background(), lesson.ID.Hex())
	if err != nil || got.Name != "Algebra basics" {
		t.Fatalf("get: %+v, %v", got, err)
	}
}

func TestLessonValidation(t *testing.T) {
	s, _, _ := newLessons()

	input := LessonInput{
		Week:         0,
		PaymentState: "gratis",
		Videos: []VideoInput{
			{URL: "https://vimeo.com/123"},
			{Type: "storage", Key: "../etc/passwd"},
			{Type: "dailymotion", URL: "x"},
		},
	}
	_, err := s.Create(context.Background(), input)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := map[string]string{
		"name":           "required",
		"grade":          "required",
		"week":           "invalid_week",
		"payment_state":  "invalid_payment_state",
		"videos[0].url":  "invalid_youtube_url",
		"videos[1].key":  "invalid_key",
		"videos[2].type": "invalid_type",
	}
	for field, message := range want {
		if verr.Fields[field] != message {
			t.Fatalf("field %s: expected %q, got %q (all: %v)", field, message, verr.Fields[field], verr.Fields)
		}
	}
	if _, ok := verr.Fields["videos"]; ok {
		t.Fatalf("row errors should not also report an empty list: %v", verr.Fields)
	}
}

func TestLessonVideoCount(t *testing.T) {
	s, _, _ := newLessons()

	empty := validInput()
	empty.Videos = []VideoInput{{}, {}}
	_, err := s.Create(context.Background(), empty)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["videos"] != "at_least_one_video" {
		t.Fatalf("expected at_least_one_video, got %v", err)
	}

	many := validInput()
	many.Videos = []VideoInput{
		{VideoID: "dQw4w9WgXcQ"}, {VideoID: "dQw4w9WgXcQ"}, {VideoID: "dQw4w9WgXcQ"}, {VideoID: "dQw4w9WgXcQ"},
	}
	_, err = s.Create(context.Background(), many)
	if !errors.As(err, &verr) || verr.Fields["videos"] != "too_many_videos" {
		t.Fatalf("expected too_many_videos, got %v", err)
	}
}

func TestGradeWeekUniqueness(t *testing.T) {
	s, _, _ := newLessons()
	ctx := context.Background()

	first, err := s.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := s.Create(ctx, validInput()); !errors.Is(err, ErrDuplicateGradeWeek) {
		t.Fatalf("expected duplicate_grade_week, got %v", err)
	}

	renamed := validInput()
	renamed.Name = "Algebra basics, revised"
	updated, err := s.Update(ctx, first.ID.Hex(), renamed)
	if err != nil {
		t.Fatalf("update in place: %v", err)
	}
	if updated.Name != renamed.Name {
		t.Fatalf("expected rename, got %s", updated.Name)
	}

	other := validInput()
	other.Week = 2
	second, err := s.Create(ctx, other)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	clash := validInput()
	if _, err := s.Update(ctx, second.ID.Hex(), clash); !errors.Is(err, ErrDuplicateGradeWeek) {
		t.Fatalf("expected moving onto a taken week to fail, got %v", err)
	}
}

func TestLessonNotFound(t *testing.T) {
	s, _, _ := newLessons()
	ctx := context.Background()

	for _, id := range []string{"not-an-id", "65f000000000000000000000"} {
		if _, err := s.Get(ctx, id); !errors.Is(err, ErrLessonNotFound) {
			t.Fatalf("get %s: expected session_not_found, got %v", id, err)
		}
		if err := s.Delete(ctx, id); !errors.Is(err, ErrLessonNotFound) {
			t.Fatalf("delete %s: expected session_not_found, got %v", id, err)
		}
		if _, err := s.Update(ctx, id, validInput()); !errors.Is(err, ErrLessonNotFound) {
			t.Fatalf("update %s: expected session_not_found, got %v", id, err)
		}
	}
}

func TestListLessonsByGrade(t *testing.T) {
	s, _, _ := newLessons()
	ctx := context.Background()
	for week := 1; week <= 3; week++ {
		in := validInput()
		in.Week = week
		if _, err := s.Create(ctx, in); err != nil {
			t.Fatalf("create week %d: %v", week, err)
		}
	}
	other := validInput()
	other.Grade = "grade-2"
	if _, err := s.Create(ctx, other); err != nil {
		t.Fatalf("create other grade: %v", err)
	}

	page, err := s.List(ctx, "grade-1", pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pagination.TotalCount != 3 || len(page.Data) != 3 {
		t.Fatalf("expected 3 grade-1 lessons, got %+v", page.Pagination)
	}
}
