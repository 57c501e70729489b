package service

import (
	"errors"
	"sort"
	"strings"
)

// Every sentinel's message is the code returned to clients.
var (
	ErrUserNotFound              = errors.New("user_not_found")
	ErrWrongPassword             = errors.New("wrong_password")
	ErrAccountDeactivated        = errors.New("account_deactivated")
	ErrStudentAccountDeactivated = errors.New("student_account_deactivated")
	ErrSubscriptionInactive      = errors.New("subscription_inactive")
	ErrSubscriptionExpired       = errors.New("subscription_expired")
	ErrDeviceLimitReached        = errors.New("device_limit_reached")
	ErrTooManyAttempts           = errors.New("too_many_attempts")
	ErrInvalidToken              = errors.New("invalid_token")
	ErrForbidden                 = errors.New("forbidden")
	ErrUnknownFamily             = errors.New("unknown_family")

	ErrLessonNotFound      = errors.New("session_not_found")
	ErrDuplicateGradeWeek  = errors.New("duplicate_grade_week")
	ErrUnsupportedContent  = errors.New("unsupported_content_type")
	ErrInvalidKey          = errors.New("invalid_key")
	ErrFileRequired        = errors.New("file_required")
	ErrVideoNotFound       = errors.New("video_not_found")
	ErrRangeNotSatisfiable = errors.New("range_not_satisfiable")
)

// ValidationError carries field-scoped messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation_failed: " + strings.Join(parts, ", ")
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
