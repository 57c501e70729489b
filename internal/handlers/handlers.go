package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"edupanel/internal/config"
	"edupanel/internal/middleware"
	"edupanel/internal/models"
	"edupanel/internal/pagination"
	"edupanel/internal/security"
	"edupanel/internal/service"
	"edupanel/internal/storage"
)

type Authenticator interface {
	Login(ctx context.Context, input service.LoginInput) (service.LoginResult, error)
	Authenticate(token string) (*security.SessionClaims, error)
}

type DeviceAdmin interface {
	Family(name string, callerRole string) (service.Family, error)
	List(ctx context.Context, family service.Family, page pagination.Params, search string) (service.AccountPage, error)
	SetAllowedDevices(ctx context.Context, family service.Family, id string, allowed int) error
	RemoveDevice(ctx context.Context, family service.Family, id string, deviceID string) error
}

type LessonManager interface {
	List(ctx context.Context, grade string, page pagination.Params) (service.LessonPage, error)
	Get(ctx context.Context, id string) (models.Lesson, error)
	Create(ctx context.Context, input service.LessonInput) (models.Lesson, error)
	Update(ctx context.Context, id string, input service.LessonInput) (models.Lesson, error)
	Delete(ctx context.Context, id string) error
}

type Uploader interface {
	MintKey(ctx context.Context, input service.MintInput) (string, error)
	Presign(ctx context.Context, input service.MintInput) (service.PresignResult, error)
	Spool(r io.Reader, declaredType string) (*service.Spool, error)
	Store(ctx context.Context, key string, spool *service.Spool) (storage.ObjectInfo, error)
	Abort(ctx context.Context, key string) error
}

type Streamer interface {
	Open(ctx context.Context, key string, rangeHeader string) (service.Stream, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

type Services struct {
	Auth    Authenticator
	Devices DeviceAdmin
	Lessons LessonManager
	Uploads Uploader
	Streams Streamer

	Database Pinger
	Cache    Pinger
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     Authenticator
	devices  DeviceAdmin
	lessons  LessonManager
	uploads  Uploader
	streams  Streamer
	database Pinger
	cache    Pinger
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, services Services) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     services.Auth,
		devices:  services.Devices,
		lessons:  services.Lessons,
		uploads:  services.Uploads,
		streams:  services.Streams,
		database: services.Database,
		cache:    services.Cache,
	}
}

var staffRoles = []models.Role{models.RoleAssistant, models.RoleAdmin, models.RoleDeveloper}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", middleware.Auth(h.auth), h.Me)

	authed := router.Group("")
	authed.Use(middleware.Auth(h.auth))

	// family access is checked per request against the caller's role
	devices := authed.Group("/devices", middleware.RequireRoles(staffRoles...))
	devices.GET("/:family", h.ListDevices)
	devices.PATCH("/:family", h.SetAllowedDevices)
	devices.DELETE("/:family", h.RemoveDevice)

	sessions := authed.Group("/sessions", middleware.RequireRoles(staffRoles...))
	sessions.GET("", h.ListLessons)
	sessions.POST("", h.CreateLesson)
	sessions.GET("/:id", h.GetLesson)
	sessions.PATCH("/:id", h.UpdateLesson)
	sessions.DELETE("/:id", h.DeleteLesson)

	uploads := authed.Group("/uploads", middleware.RequireRoles(staffRoles...))
	uploads.POST("/key", h.MintUploadKey)
	uploads.POST("/presign", h.PresignUpload)
	uploads.POST("/proxy", h.ProxyUpload)
	uploads.POST("/abort", h.AbortUpload)

	authed.GET("/videos/*key", h.StreamVideo)
}
