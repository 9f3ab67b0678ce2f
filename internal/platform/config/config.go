// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	liststr "grantapp/pkg/platform/strings"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config is the complete process configuration.
type Config struct {
	Server    Server
	Database  Database
	Storage   Storage
	Mail      Mail
	Branding  Branding
	Redis     RedisConfig
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	LogLevel        string
	LogFormat       string
	TrustProxy      bool
}

// Database configures PostgreSQL. An empty URL selects the in-memory store.
type Database struct {
	URL     string
	Migrate bool
}

// Storage selects and configures the ID image backend.
type Storage struct {
	Driver      string
	Root        string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// Mail configures SMTP and the notifier. An empty Host logs messages
// instead of sending them.
type Mail struct {
	Host           string
	Port           int
	Username       string
	Password       string
	FromAddress    string
	NotifyAddress  string
	ReplyTo        string
	AttemptTimeout time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
}

type Branding struct {
	AppName         string
	FrontendURL     string
	ReferencePrefix string
	// AllowedOrigins are the browser origins allowed to submit the form.
	AllowedOrigins []string
}

// RedisConfig configures the shared rate limit store. An empty URL keeps
// rate limiting in process memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimit bounds submissions per client IP.
type RateLimit struct {
	Disabled bool
	Limit    int
	Window   time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Every malformed value is reported, not just the first.
func FromEnv() (Config, error) {
	r := &reader{}
	cfg := Config{
		Server: Server{
			Addr:            r.str("GRANTAPP_ADDR", ":8080"),
			ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxUploadBytes:  int64(r.integer("MAX_UPLOAD_BYTES", 10<<20)),
			LogLevel:        r.str("LOG_LEVEL", "info"),
			LogFormat:       r.str("LOG_FORMAT", "json"),
			TrustProxy:      r.boolean("TRUST_PROXY_HEADERS", false),
		},
		Database: Database{
			URL:     r.str("DATABASE_URL", ""),
			Migrate: r.boolean("DB_MIGRATE", true),
		},
		Storage: Storage{
			Driver:      strings.ToLower(r.str("FILE_STORAGE", StorageLocal)),
			Root:        r.str("FILE_STORAGE_ROOT", "storage/app/public"),
			S3Bucket:    r.str("S3_BUCKET", ""),
			S3Region:    r.str("S3_REGION", "us-east-1"),
			S3Endpoint:  r.str("S3_ENDPOINT", ""),
			S3AccessKey: r.str("S3_ACCESS_KEY", ""),
			S3SecretKey: r.str("S3_SECRET_KEY", ""),
		},
		Mail: Mail{
			Host:           r.str("MAIL_HOST", ""),
			Port:           r.integer("MAIL_PORT", 587),
			Username:       r.str("MAIL_USERNAME", ""),
			Password:       r.str("MAIL_PASSWORD", ""),
			FromAddress:    r.str("MAIL_FROM_ADDRESS", "no-reply@grantapplication.com"),
			NotifyAddress:  r.str("APPLICATION_NOTIFY_EMAIL", "support@grantapplication.com"),
			ReplyTo:        r.str("MAIL_REPLY_TO", ""),
			AttemptTimeout: r.duration("MAIL_ATTEMPT_TIMEOUT", 5*time.Second),
			MaxAttempts:    r.integer("MAIL_MAX_ATTEMPTS", 3),
			RetryDelay:     r.duration("MAIL_RETRY_DELAY", 200*time.Millisecond),
		},
		Branding: Branding{
			AppName:         r.str("APP_NAME", "Grant Application System"),
			FrontendURL:     r.str("FRONTEND_URL", "http://localhost:5173"),
			ReferencePrefix: r.str("REFERENCE_PREFIX", "APP"),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", time.Second),
		},
		RateLimit: RateLimit{
			Disabled: r.boolean("RATE_LIMIT_DISABLED", false),
			Limit:    r.integer("SUBMIT_RATE_LIMIT", 10),
			Window:   r.duration("SUBMIT_RATE_WINDOW", time.Hour),
		},
	}
	cfg.Branding.AllowedOrigins = r.list("CORS_ALLOWED_ORIGINS", []string{cfg.Branding.FrontendURL})
	if err := cfg.validate(); err != nil {
		r.errs = append(r.errs, err)
	}
	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when FILE_STORAGE=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("FILE_STORAGE: unknown driver %q", c.Storage.Driver))
	}
	if c.Mail.MaxAttempts < 1 {
		errs = append(errs, errors.New("MAIL_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if !c.RateLimit.Disabled && (c.RateLimit.Limit < 1 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("SUBMIT_RATE_LIMIT and SUBMIT_RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// ReplyAddress is the applicant reply-to address.
func (m Mail) ReplyAddress() string {
	if m.ReplyTo != "" {
		return m.ReplyTo
	}
	return m.NotifyAddress
}

type reader struct {
	errs []error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) list(key string, def []string) []string {
	if items := liststr.SplitList(r.str(key, "")); len(items) > 0 {
		return items
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
