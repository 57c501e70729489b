package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"edupanel/internal/service"
)

const maxKeyFieldBytes = 1024

type mintRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

func (r mintRequest) input() service.MintInput {
	return service.MintInput{FileName: r.FileName, ContentType: r.ContentType}
}

func (h HandlerSet) MintUploadKey(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	key, err := h.uploads.MintKey(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (h HandlerSet) PresignUpload(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	result, err := h.uploads.Presign(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signedUrl": result.SignedURL, "key": result.Key})
}

// ProxyUpload streams a multipart body with "key" and "file" parts. The
// parts may arrive in either order.
func (h HandlerSet) ProxyUpload(c *gin.Context) {
	limit := h.cfg.Uploads.MaxBytes
	if c.Request.ContentLength > limit {
		fileTooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		badRequest(c)
		return
	}

	var (
		key   string
		spool *service.Spool
	)
	defer func() { _ = spool.Close() }()

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.uploadReadFailed(c, err)
			return
		}

		switch part.FormName() {
		case "key":
			raw, err := io.ReadAll(io.LimitReader(part, maxKeyFieldBytes))
			if err != nil {
				h.uploadReadFailed(c, err)
				return
			}
			key = strings.TrimSpace(string(raw))
		case "file":
			if spool != nil {
				break
			}
			spool, err = h.uploads.Spool(part, part.Header.Get("Content-Type"))
			if err != nil {
				h.uploadReadFailed(c, err)
				return
			}
		}
		part.Close()
	}

	if _, err := h.uploads.Store(c.Request.Context(), key, spool); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

type abortRequest struct {
	Key string `json:"key"`
}

func (h HandlerSet) AbortUpload(c *gin.Context) {
	var req abortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.uploads.Abort(c.Request.Context(), req.Key); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) uploadReadFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fileTooLarge(c)
		return
	}
	h.log.Warn().Err(err).Msg("read upload body failed")
	badRequest(c)
}

func fileTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
}
