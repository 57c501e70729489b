package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"edupanel/internal/metrics"
	"edupanel/internal/middleware"
	"edupanel/internal/service"
)

// accountID accepts both string and numeric ids in request bodies.
type accountID string

func (a *accountID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = accountID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = accountID(n.String())
	return nil
}

type loginRequest struct {
	ID       accountID `json:"id" binding:"required"`
	Password string    `json:"password" binding:"required"`
	DeviceID string    `json:"device_id"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		ID:        strings.TrimSpace(string(req.ID)),
		Password:  req.Password,
		DeviceID:  req.DeviceID,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		code, _ := errorCode(err)
		metrics.LoginOutcomes.WithLabelValues(code).Inc()
		h.fail(c, err)
		return
	}
	metrics.LoginOutcomes.WithLabelValues("success").Inc()

	h.setSessionCookie(c, result.Token, int(h.cfg.Security.TokenTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"role":    result.Account.Role,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) Me(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":   claims.AccountID,
		"name": claims.Name,
		"role": claims.Role,
	})
}

func (h HandlerSet) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.CookieName, value, maxAge, "/", "", h.cfg.IsProduction(), true)
}
