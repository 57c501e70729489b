package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"edupanel/internal/pagination"
	"edupanel/internal/service"
)

type videoRequest struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	VideoID string `json:"video_id"`
	Key     string `json:"key"`
}

type lessonRequest struct {
	Name         string         `json:"name"`
	Grade        string         `json:"grade"`
	Week         int            `json:"week"`
	PaymentState string         `json:"payment_state"`
	Videos       []videoRequest `json:"videos"`
}

func (r lessonRequest) input() service.LessonInput {
	videos := make([]service.VideoInput, 0, len(r.Videos))
	for _, v := range r.Videos {
		videos = append(videos, service.VideoInput{Type: v.Type, URL: v.URL, VideoID: v.VideoID, Key: v.Key})
	}
	return service.LessonInput{
		Name:         r.Name,
		Grade:        r.Grade,
		Week:         r.Week,
		PaymentState: r.PaymentState,
		Videos:       videos,
	}
}

func (h HandlerSet) ListLessons(c *gin.Context) {
	page := pagination.Parse(c.Query("page"), c.Query("limit"))
	result, err := h.lessons.List(c.Request.Context(), c.Query("grade"), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}

func (h HandlerSet) GetLesson(c *gin.Context) {
	lesson, err := h.lessons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h HandlerSet) CreateLesson(c *gin.Context) {
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

func (h HandlerSet) UpdateLesson(c *gin.Context) {
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	lesson, err := h.lessons.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h HandlerSet) DeleteLesson(c *gin.Context) {
	if err := h.lessons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
