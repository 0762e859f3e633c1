package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string // sqlite|postgres
	DBDSN    string

	BlobBackend  string // fs|s3
	BlobBasePath string // raw export archive
	BlobCompress bool   // zstd the archived exports
	S3Bucket     string
	S3Region     string
	S3Prefix     string

	AuthSecret   string
	AuthTokenTTL time.Duration

	// AdminEmail is upserted as an active admin at startup when set.
	AdminEmail    string
	AdminPassHash string // bcrypt

	AppURL           string // base of links in password reset mails
	PasswordResetTTL time.Duration
	ResetExposeURL   bool // return reset links in responses; development only

	CORSOrigins []string

	LogLevel   slog.Level
	LogConcise bool
	LogJSON    bool

	// MaxUploadBytes caps the size of an uploaded export before it is parsed.
	MaxUploadBytes int64

	DefaultPAWeight       float64
	DefaultPenaltyPercent float64
}

func FromEnv() Config {
	return Config{
		HTTPAddr:              envOr("HTTP_ADDR", ":8080"),
		DBDriver:              envOr("DB_DRIVER", "sqlite"),
		DBDSN:                 envOr("DB_DSN", ""),
		BlobBackend:           envOr("BLOB_BACKEND", "fs"),
		BlobBasePath:          envOr("BLOB_BASE_PATH", "./data"),
		BlobCompress:          envBool("BLOB_COMPRESS", true),
		S3Bucket:              envOr("S3_BUCKET", ""),
		S3Region:              envOr("S3_REGION", "eu-central-1"),
		S3Prefix:              envOr("S3_PREFIX", "gradeassist"),
		AuthSecret:            envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AuthTokenTTL:          envDuration("AUTH_TOKEN_TTL", 8*time.Hour),
		AdminEmail:            envOr("ADMIN_EMAIL", ""),
		AdminPassHash:         envOr("ADMIN_PASS_HASH", ""),
		AppURL:                envOr("APP_URL", "http://localhost:5173"),
		PasswordResetTTL:      envDuration("PASSWORD_RESET_TTL", 30*time.Minute),
		ResetExposeURL:        envBool("RESET_EXPOSE_URL", false),
		CORSOrigins:           csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		LogLevel:              envLevel("LOG_LEVEL", slog.LevelInfo),
		LogConcise:            envBool("LOG_CONCISE", true),
		LogJSON:               envBool("LOG_JSON", false),
		MaxUploadBytes:        int64(envInt("MAX_UPLOAD_BYTES", 5<<20)),
		DefaultPAWeight:       envFloat("DEFAULT_PA_WEIGHT", 10),
		DefaultPenaltyPercent: envFloat("DEFAULT_PENALTY_PERCENT", 0),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
func envFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return v
	}
	return def
}
func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}
func envLevel(k string, def slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(os.Getenv(k))); err != nil {
		return def
	}
	return l
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
