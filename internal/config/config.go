package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by StorageDriver.
const (
	StorageCloudinary = "cloudinary"
	StorageMinio      = "minio"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NotificationChannel    string
	JWTSecret              string
	JWTTTL                 time.Duration
	ProgressCacheTTL       time.Duration
	StorageDriver          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	MinioEndpoint          string
	MinioAccessKey         string
	MinioSecretKey         string
	MinioBucket            string
	MinioUseSSL            bool
	UploadMaxSizeMB        int
	MailFrom               string
	PasswordResetTTL       time.Duration
	PasswordResetURL       string
	AuthRateLimit          int
	AuthRateWindow         time.Duration
	StreamKeepAlive        time.Duration
	CORSAllowOrigins       string
	MetricsToken           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Cohort LMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("notification.channel", "lms")
	v.SetDefault("jwt.ttl", "1h")
	v.SetDefault("progress.cache_ttl", "2m")
	v.SetDefault("storage.driver", StorageCloudinary)
	v.SetDefault("cloudinary.folder", "lms/uploads")
	v.SetDefault("minio.bucket", "lms-uploads")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("mail.from", "no-reply@lms.local")
	v.SetDefault("password_reset.ttl", "1h")
	v.SetDefault("password_reset.url", "http://localhost:3000/reset-password")
	v.SetDefault("auth.rate_limit", 10)
	v.SetDefault("auth.rate_window", "1m")
	v.SetDefault("stream.keepalive", "30s")
	v.SetDefault("cors.allow_origins", "*")

	durations := map[string]time.Duration{}
	for _, key := range []string{"jwt.ttl", "progress.cache_ttl", "password_reset.ttl", "auth.rate_window", "stream.keepalive"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NotificationChannel:    v.GetString("notification.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 durations["jwt.ttl"],
		ProgressCacheTTL:       durations["progress.cache_ttl"],
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		MinioEndpoint:          v.GetString("minio.endpoint"),
		MinioAccessKey:         v.GetString("minio.access_key"),
		MinioSecretKey:         v.GetString("minio.secret_key"),
		MinioBucket:            v.GetString("minio.bucket"),
		MinioUseSSL:            v.GetBool("minio.use_ssl"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		MailFrom:               v.GetString("mail.from"),
		PasswordResetTTL:       durations["password_reset.ttl"],
		PasswordResetURL:       v.GetString("password_reset.url"),
		AuthRateLimit:          v.GetInt("auth.rate_limit"),
		AuthRateWindow:         durations["auth.rate_window"],
		StreamKeepAlive:        durations["stream.keepalive"],
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		MetricsToken:           v.GetString("metrics.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageCloudinary, StorageMinio:
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	return cfg, nil
}
