package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Database:    h.check(ctx, "database", h.database),
		Cache:       h.check(ctx, "cache", h.cache),
		Environment: h.cfg.Environment,
	}
	if resp.Database == "error" || resp.Cache == "error" {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) check(ctx context.Context, name string, ping Pinger) string {
	if ping == nil {
		return "disabled"
	}
	if err := ping(ctx); err != nil {
		h.log.Error().Err(err).Str("dependency", name).Msg("health ping failed")
		return "error"
	}
	return "ok"
}
