package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"

	api "github.com/mind-engage/gradeassist/internal/api/http"
	auth "github.com/mind-engage/gradeassist/internal/auth/middleware"
	"github.com/mind-engage/gradeassist/internal/config"
	"github.com/mind-engage/gradeassist/internal/db"
	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/storage"
	"github.com/mind-engage/gradeassist/internal/syncx"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}
	cfg := config.FromEnv()

	logger := httplog.NewLogger("gradeassist", httplog.Options{
		LogLevel:         cfg.LogLevel,
		JSON:             cfg.LogJSON,
		Concise:          cfg.LogConcise,
		MessageFieldName: "message",
		Tags: map[string]string{
			"db": cfg.DBDriver,
		},
		QuietDownRoutes: []string{"/healthz", "/readyz"},
		QuietDownPeriod: 30 * time.Second,
	})
	slog.SetDefault(logger.Logger)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		logger.Error("db open failed", "error", err)
		os.Exit(1)
	}
	defer dbh.Close()

	bs, err := openBlobStore(context.Background(), cfg)
	if err != nil {
		logger.Error("blob store", "backend", cfg.BlobBackend, "error", err)
		os.Exit(1)
	}

	store := gradebook.NewSQLStore(dbh)
	if cfg.AdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		admin, err := auth.BootstrapAdmin(ctx, store, cfg.AdminEmail, cfg.AdminPassHash)
		cancel()
		if err != nil {
			logger.Error("admin bootstrap failed", "error", err)
			os.Exit(1)
		}
		logger.Info("admin account ready", "user_id", admin.ID, "email", admin.Email)
	}

	router := api.NewRouter(api.Deps{
		Store:       store,
		DB:          dbh,
		Blobs:       bs,
		Events:      syncx.NewEventRepo(dbh),
		Auth:        auth.NewAuthService(cfg.AuthSecret, cfg.AuthTokenTTL),
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Upload: api.UploadOptions{
			MaxBytes:              cfg.MaxUploadBytes,
			DefaultPAWeight:       cfg.DefaultPAWeight,
			DefaultPenaltyPercent: cfg.DefaultPenaltyPercent,
		},
		Mailer: auth.LogMailer{Logger: logger.Logger},
		Reset: auth.ResetOptions{
			AppURL:    cfg.AppURL,
			TTL:       cfg.PasswordResetTTL,
			ExposeURL: cfg.ResetExposeURL,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr, "db", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	var bs storage.BlobStore
	switch cfg.BlobBackend {
	case "s3":
		s3s, err := storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, err
		}
		bs = s3s
	case "fs", "":
		fs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			return nil, err
		}
		bs = fs
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.BlobBackend)
	}
	if cfg.BlobCompress {
		bs = storage.NewZstdStore(bs)
	}
	return bs, nil
}
