package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "EDUPANEL"

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type SecurityConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	PrivilegedRoles   []string
	DeviceExemptRoles []string
	LoginAttempts     int
	LoginWindow       time.Duration
}

// FeatureConfig holds the switches that used to be re-read from the
// environment on every request. They are fixed for the process lifetime.
type FeatureConfig struct {
	DeviceLimiting     bool
	SubscriptionGating bool
}

type UploadConfig struct {
	KeyPrefix    string
	MaxBytes     int64
	TempDir      string
	AllowedTypes []string
	PresignTTL   time.Duration
	OrphanTTL    time.Duration
}

type LessonConfig struct {
	MaxVideos int
}

type JobsConfig struct {
	SweepSchedule  string
	ExpireSchedule string
	ClaimInterval  time.Duration
	MaxDeliveries  int
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	Timezone         string
	HTTP             HTTPConfig
	Mongo            MongoConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Features         FeatureConfig
	Uploads          UploadConfig
	Lessons          LessonConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

// Location resolves the configured time zone used for device timestamps.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*AppConfig, error) {
	envFile := os.Getenv(envPrefix + "_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// an empty EDUPANEL_REDIS_ADDR must reach the config to switch redis off
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.Security.JWTSecret) == "" {
		return errors.New("config: security.jwtsecret is required")
	}
	if c.Security.TokenTTL <= 0 {
		return errors.New("config: security.tokenttl must be positive")
	}
	if c.Lessons.MaxVideos <= 0 {
		return errors.New("config: lessons.maxvideos must be positive")
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("config: uploads.maxbytes must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("loglevel", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "30s")
	// streaming responses can run long; the write deadline stays off by default
	v.SetDefault("http.writetimeout", "0s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "edupanel")
	v.SetDefault("mongo.timeout", "10s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "edupanel:maintenance")
	v.SetDefault("redis.group", "maintenance-workers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "videos")
	v.SetDefault("storage.usessl", true)
	v.SetDefault("storage.region", "auto")

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.tokenttl", "6h")
	v.SetDefault("security.privilegedroles", []string{"developer"})
	v.SetDefault("security.deviceexemptroles", []string{"admin", "developer"})
	v.SetDefault("security.loginattempts", 20)
	v.SetDefault("security.loginwindow", "1m")

	v.SetDefault("features.devicelimiting", true)
	v.SetDefault("features.subscriptiongating", true)

	v.SetDefault("uploads.keyprefix", "lessons")
	v.SetDefault("uploads.maxbytes", int64(5)<<30) // 5 GiB
	v.SetDefault("uploads.tempdir", os.TempDir())
	v.SetDefault("uploads.allowedtypes", []string{
		"video/mp4",
		"video/webm",
		"video/ogg",
		"video/quicktime",
		"video/x-matroska",
		"video/x-msvideo",
	})
	v.SetDefault("uploads.presignttl", "1h")
	v.SetDefault("uploads.orphanttl", "24h")

	v.SetDefault("lessons.maxvideos", 10)

	v.SetDefault("jobs.sweepschedule", "0 0 * * * *")
	v.SetDefault("jobs.expireschedule", "0 */5 * * * *")
	v.SetDefault("jobs.claiminterval", "30s")
	v.SetDefault("jobs.maxdeliveries", 5)

	v.SetDefault("allowcorsorigins", []string{})
}
