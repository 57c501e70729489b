package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"edupanel/internal/media/youtube"
	"edupanel/internal/models"
	"edupanel/internal/pagination"
	"edupanel/internal/repository"
	"edupanel/internal/storage"
)

type LessonStore interface {
	Create(ctx context.Context, lesson models.Lesson) (models.Lesson, error)
	Update(ctx context.Context, id primitive.ObjectID, lesson models.Lesson) (models.Lesson, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Lesson, error)
	FindByGradeWeek(ctx context.Context, grade string, week int) (models.Lesson, error)
	List(ctx context.Context, filter repository.LessonFilter) ([]models.Lesson, int64, error)
}

type PendingUploads interface {
	Track(ctx context.Context, key string, at time.Time) error
	Forget(ctx context.Context, keys ...string) error
}

type VideoInput struct {
	Type    string
	URL     string
	VideoID string
	Key     string
}

func (v VideoInput) blank() bool {
	return strings.TrimSpace(v.Type+v.URL+v.VideoID+v.Key) == ""
}

type LessonInput struct {
	Name         string
	Grade        string
	Week         int
	PaymentState string
	Videos       []VideoInput
}

type LessonPage struct {
	Data       []models.Lesson
	Pagination pagination.Meta
}

type LessonService struct {
	lessons   LessonStore
	pending   PendingUploads
	keys      storage.KeyMinter
	maxVideos int
	log       zerolog.Logger
}

func NewLessonService(lessons LessonStore, pending PendingUploads, keys storage.KeyMinter, maxVideos int, log zerolog.Logger) *LessonService {
	return &LessonService{
		lessons:   lessons,
		pending:   pending,
		keys:      keys,
		maxVideos: maxVideos,
		log:       log,
	}
}

func (s *LessonService) List(ctx context.Context, grade string, page pagination.Params) (LessonPage, error) {
	lessons, total, err := s.lessons.List(ctx, repository.LessonFilter{
		Grade: strings.TrimSpace(grade),
		Skip:  page.Skip(),
		Limit: page.Limit,
	})
	if err != nil {
		return LessonPage{}, fmt.Errorf("list lessons: %w", err)
	}
	return LessonPage{Data: lessons, Pagination: pagination.NewMeta(page, total)}, nil
}

func (s *LessonService) Get(ctx context.Context, id string) (models.Lesson, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Lesson{}, ErrLessonNotFound
	}
	lesson, err := s.lessons.GetByID(ctx, oid)
	if err != nil {
		return models.Lesson{}, lessonError(err)
	}
	return lesson, nil
}

func (s *LessonService) Create(ctx context.Context, input LessonInput) (models.Lesson, error) {
	lesson, err := s.validate(input)
	if err != nil {
		return models.Lesson{}, err
	}
	if err := s.ensureUnique(ctx, lesson, nil); err != nil {
		return models.Lesson{}, err
	}

	created, err := s.lessons.Create(ctx, lesson)
	if err != nil {
		return models.Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	s.claimKeys(ctx, created)
	return created, nil
}

func (s *LessonService) Update(ctx context.Context, id string, input LessonInput) (models.Lesson, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Lesson{}, ErrLessonNotFound
	}
	lesson, err := s.validate(input)
	if err != nil {
		return models.Lesson{}, err
	}
	if err := s.ensureUnique(ctx, lesson, &oid); err != nil {
		return models.Lesson{}, err
	}

	updated, err := s.lessons.Update(ctx, oid, lesson)
	if err != nil {
		return models.Lesson{}, lessonError(err)
	}
	s.claimKeys(ctx, updated)
	return updated, nil
}

// Delete removes the record only; referenced objects stay in the store.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrLessonNotFound
	}
	if err := s.lessons.Delete(ctx, oid); err != nil {
		return lessonError(err)
	}
	return nil
}

func (s *LessonService) ensureUnique(ctx context.Context, lesson models.Lesson, self *primitive.ObjectID) error {
	existing, err := s.lessons.FindByGradeWeek(ctx, lesson.Grade, lesson.Week)
	if errors.Is(err, repository.ErrLessonNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check grade and week: %w", err)
	}
	if self != nil && existing.ID == *self {
		return nil
	}
	return ErrDuplicateGradeWeek
}

func (s *LessonService) claimKeys(ctx context.Context, lesson models.Lesson) {
	keys := lesson.StorageKeys()
	if len(keys) == 0 || s.pending == nil {
		return
	}
	if err := s.pending.Forget(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Str("lesson_id", lesson.ID.Hex()).Msg("release pending uploads failed")
	}
}

func (s *LessonService) validate(input LessonInput) (models.Lesson, error) {
	fields := fieldErrors{}
	lesson := models.Lesson{
		Name:         strings.TrimSpace(input.Name),
		Grade:        strings.TrimSpace(input.Grade),
		Week:         input.Week,
		PaymentState: models.PaymentState(strings.ToLower(strings.TrimSpace(input.PaymentState))),
	}

	if lesson.Name == "" {
		fields.add("name", "required")
	}
	if lesson.Grade == "" {
		fields.add("grade", "required")
	}
	if lesson.Week < 1 {
		fields.add("week", "invalid_week")
	}
	if lesson.PaymentState != models.PaymentFree && lesson.PaymentState != models.PaymentPaid {
		fields.add("payment_state", "invalid_payment_state")
	}

	for i, in := range input.Videos {
		if in.blank() {
			continue
		}
		video, field, message := s.video(in)
		if message != "" {
			fields.add(fmt.Sprintf("videos[%d].%s", i, field), message)
			continue
		}
		lesson.Videos = append(lesson.Videos, video)
	}

	switch {
	case len(lesson.Videos) > s.maxVideos:
		fields.add("videos", "too_many_videos")
	case len(lesson.Videos) == 0 && !hasVideoErrors(fields):
		fields.add("videos", "at_least_one_video")
	}

	if err := fields.err(); err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

// video resolves one entry. An empty type is inferred from which
// reference is present.
func (s *LessonService) video(in VideoInput) (models.Video, string, string) {
	kind := models.VideoType(strings.ToLower(strings.TrimSpace(in.Type)))
	key := strings.TrimSpace(in.Key)
	if kind == "" {
		kind = models.VideoYouTube
		if key != "" {
			kind = models.VideoStorage
		}
	}

	switch kind {
	case models.VideoYouTube:
		ref := strings.TrimSpace(in.URL)
		if ref == "" {
			ref = strings.TrimSpace(in.VideoID)
		}
		id, ok := youtube.ExtractID(ref)
		if !ok {
			return models.Video{}, "url", "invalid_youtube_url"
		}
		return models.Video{Type: models.VideoYouTube, VideoID: id}, "", ""
	case models.VideoStorage:
		if err := s.keys.Validate(key); err != nil {
			return models.Video{}, "key", "invalid_key"
		}
		return models.Video{Type: models.VideoStorage, Key: key}, "", ""
	default:
		return models.Video{}, "type", "invalid_type"
	}
}

func hasVideoErrors(fields fieldErrors) bool {
	for name := range fields {
		if strings.HasPrefix(name, "videos[") {
			return true
		}
	}
	return false
}

func lessonError(err error) error {
	if errors.Is(err, repository.ErrLessonNotFound) {
		return ErrLessonNotFound
	}
	return fmt.Errorf("lesson store: %w", err)
}
