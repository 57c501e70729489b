package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"edupanel/internal/middleware"
	"edupanel/internal/pagination"
	"edupanel/internal/service"
)

func (h HandlerSet) family(c *gin.Context) (service.Family, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
		return service.Family{}, false
	}
	family, err := h.devices.Family(c.Param("family"), claims.Role)
	if err != nil {
		h.fail(c, err)
		return service.Family{}, false
	}
	return family, true
}

func (h HandlerSet) ListDevices(c *gin.Context) {
	family, ok := h.family(c)
	if !ok {
		return
	}

	page := pagination.Parse(c.Query("page"), c.Query("limit"))
	result, err := h.devices.List(c.Request.Context(), family, page, c.Query("search"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}

type allowedDevicesRequest struct {
	ID             accountID `json:"id"`
	AllowedDevices *int      `json:"allowed_devices"`
}

func (h HandlerSet) SetAllowedDevices(c *gin.Context) {
	family, ok := h.family(c)
	if !ok {
		return
	}

	var req allowedDevicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if req.AllowedDevices == nil {
		h.fail(c, &service.ValidationError{Fields: map[string]string{"allowed_devices": "required"}})
		return
	}

	if err := h.devices.SetAllowedDevices(c.Request.Context(), family, string(req.ID), *req.AllowedDevices); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) RemoveDevice(c *gin.Context) {
	family, ok := h.family(c)
	if !ok {
		return
	}

	if err := h.devices.RemoveDevice(c.Request.Context(), family, c.Query("id"), c.Query("device_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
