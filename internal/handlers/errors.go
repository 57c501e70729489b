package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"edupanel/internal/service"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrUnsupportedContent, http.StatusBadRequest},
	{service.ErrInvalidKey, http.StatusBadRequest},
	{service.ErrFileRequired, http.StatusBadRequest},
	{service.ErrWrongPassword, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrAccountDeactivated, http.StatusForbidden},
	{service.ErrStudentAccountDeactivated, http.StatusForbidden},
	{service.ErrSubscriptionInactive, http.StatusForbidden},
	{service.ErrSubscriptionExpired, http.StatusForbidden},
	{service.ErrDeviceLimitReached, http.StatusForbidden},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrLessonNotFound, http.StatusNotFound},
	{service.ErrVideoNotFound, http.StatusNotFound},
	{service.ErrUnknownFamily, http.StatusNotFound},
	{service.ErrDuplicateGradeWeek, http.StatusConflict},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests},
}

// errorCode returns the wire code and status for err. Unknown errors map
// to internal_error.
func errorCode(err error) (string, int) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return "validation_failed", http.StatusBadRequest
	}
	for _, entry := range errorStatuses {
		if errors.Is(err, entry.err) {
			return entry.err.Error(), entry.status
		}
	}
	return "internal_error", http.StatusInternalServerError
}

func (h HandlerSet) fail(c *gin.Context, err error) {
	code, status := errorCode(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	}

	body := gin.H{"error": code}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
}
