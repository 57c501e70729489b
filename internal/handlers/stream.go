package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"edupanel/internal/metrics"
	"edupanel/internal/service"
)

func (h HandlerSet) StreamVideo(c *gin.Context) {
	header := c.Writer.Header()
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", "private, max-age=3600")

	stream, err := h.streams.Open(c.Request.Context(), c.Param("key"), c.GetHeader("Range"))
	if err != nil {
		var rangeErr *service.RangeError
		switch {
		case errors.As(err, &rangeErr):
			header.Set("Content-Range", rangeErr.ContentRange())
			c.AbortWithStatus(http.StatusRequestedRangeNotSatisfiable)
		case errors.Is(err, service.ErrVideoNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": service.ErrVideoNotFound.Error()})
		default:
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("open video failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stream_failed"})
		}
		return
	}
	defer stream.Body.Close()

	header.Set("Content-Type", stream.ContentType)
	header.Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	status := http.StatusOK
	if stream.Partial {
		header.Set("Content-Range", stream.ContentRange)
		status = http.StatusPartialContent
	}
	c.Status(status)

	n, err := io.Copy(c.Writer, stream.Body)
	metrics.StreamedBytes.Add(float64(n))
	if err != nil {
		// headers are gone; nothing left to report to the client
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Int64("bytes", n).Msg("video stream interrupted")
	}
}
