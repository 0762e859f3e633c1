package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_DRIVER", "AUTH_TOKEN_TTL", "CORS_ORIGINS", "LOG_LEVEL", "MAX_UPLOAD_BYTES", "DEFAULT_PA_WEIGHT", "BLOB_BACKEND", "BLOB_COMPRESS", "ADMIN_EMAIL", "PASSWORD_RESET_TTL", "RESET_EXPOSE_URL"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 8*time.Hour, cfg.AuthTokenTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 10.0, cfg.DefaultPAWeight)
	assert.Len(t, cfg.CORSOrigins, 2)
	assert.Equal(t, "fs", cfg.BlobBackend)
	assert.True(t, cfg.BlobCompress)
	assert.Empty(t, cfg.AdminEmail)
	assert.Equal(t, 30*time.Minute, cfg.PasswordResetTTL)
	assert.False(t, cfg.ResetExposeURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("AUTH_TOKEN_TTL", "30m")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_CONCISE", "no")
	t.Setenv("LOG_JSON", "1")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("DEFAULT_PENALTY_PERCENT", "12.5")
	t.Setenv("BLOB_BACKEND", "s3")
	t.Setenv("BLOB_COMPRESS", "false")
	t.Setenv("S3_BUCKET", "exports")
	t.Setenv("ADMIN_EMAIL", "root@uni.edu")
	t.Setenv("ADMIN_PASS_HASH", "$2a$10$hash")
	t.Setenv("PASSWORD_RESET_TTL", "15m")
	t.Setenv("RESET_EXPOSE_URL", "true")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.AuthTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.LogConcise)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, 12.5, cfg.DefaultPenaltyPercent)
	assert.Equal(t, "s3", cfg.BlobBackend)
	assert.False(t, cfg.BlobCompress)
	assert.Equal(t, "exports", cfg.S3Bucket)
	assert.Equal(t, "root@uni.edu", cfg.AdminEmail)
	assert.Equal(t, "$2a$10$hash", cfg.AdminPassHash)
	assert.Equal(t, 15*time.Minute, cfg.PasswordResetTTL)
	assert.True(t, cfg.ResetExposeURL)
}
