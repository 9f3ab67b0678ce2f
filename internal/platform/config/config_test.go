package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, StorageLocal, cfg.Storage.Driver)
	assert.Equal(t, "storage/app/public", cfg.Storage.Root)
	assert.Equal(t, "no-reply@grantapplication.com", cfg.Mail.FromAddress)
	assert.Equal(t, "support@grantapplication.com", cfg.Mail.NotifyAddress)
	assert.Equal(t, "support@grantapplication.com", cfg.Mail.ReplyAddress())
	assert.Equal(t, 3, cfg.Mail.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Mail.RetryDelay)
	assert.Equal(t, "Grant Application System", cfg.Branding.AppName)
	assert.Equal(t, "http://localhost:5173", cfg.Branding.FrontendURL)
	assert.Equal(t, "APP", cfg.Branding.ReferencePrefix)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Branding.AllowedOrigins)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GRANTAPP_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://grant@localhost/grant")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("FILE_STORAGE", "S3")
	t.Setenv("S3_BUCKET", "ids")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("MAIL_PORT", "2525")
	t.Setenv("MAIL_REPLY_TO", "help@example.com")
	t.Setenv("MAIL_MAX_ATTEMPTS", "5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SUBMIT_RATE_WINDOW", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://apply.example.com, ,https://admin.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, StorageS3, cfg.Storage.Driver)
	assert.Equal(t, "ids", cfg.Storage.S3Bucket)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "help@example.com", cfg.Mail.ReplyAddress())
	assert.Equal(t, 5, cfg.Mail.MaxAttempts)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://apply.example.com", "https://admin.example.com"}, cfg.Branding.AllowedOrigins)
}

func TestFromEnvReportsEveryBadValue(t *testing.T) {
	t.Setenv("MAIL_PORT", "smtp")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("FILE_STORAGE", "ftp")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_PORT")
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
	assert.Contains(t, err.Error(), `unknown driver "ftp"`)
}

func TestFromEnvRequiresBucketForS3(t *testing.T) {
	t.Setenv("FILE_STORAGE", "s3")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestFromEnvDisabledRateLimitSkipsBounds(t *testing.T) {
	t.Setenv("RATE_LIMIT_DISABLED", "true")
	t.Setenv("SUBMIT_RATE_LIMIT", "0")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.RateLimit.Disabled)
}
