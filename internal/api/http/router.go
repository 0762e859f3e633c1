package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	auth "github.com/mind-engage/gradeassist/internal/auth/middleware"
	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/rbac"
	"github.com/mind-engage/gradeassist/internal/storage"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Store       *gradebook.SQLStore
	DB          Pinger
	Blobs       storage.BlobStore
	Events      EventLog
	Auth        *auth.AuthService
	Logger      *httplog.Logger // nil disables request logging
	CORSOrigins []string
	Upload      UploadOptions
	Mailer      auth.Mailer // nil logs reset requests only
	Reset       auth.ResetOptions
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	if d.Logger != nil {
		// includes RequestID and Recoverer
		r.Use(httplog.RequestLogger(d.Logger))
	} else {
		r.Use(middleware.RequestID, middleware.Recoverer)
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpjson.WriteSuccessJson(w, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			httpjson.WriteErrorJson(w, "database unavailable", http.StatusServiceUnavailable, "not_ready")
			return
		}
		httpjson.WriteSuccessJson(w, map[string]string{"status": "ready"})
	})

	r.Post("/auth/register", auth.RegisterHandler(d.Auth, d.Store))
	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Store))
	mailer := d.Mailer
	if mailer == nil {
		mailer = auth.LogMailer{}
	}
	r.Post("/auth/forgot", auth.ForgotPasswordHandler(d.Store, mailer, d.Reset))
	r.Post("/auth/reset", auth.ResetPasswordHandler(d.Store))

	// Protected API (JWT -> stored role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromDB(d.Store))

		pr.With(rbac.Require(rbac.PermSessionUpload)).
			Post("/upload", UploadHandler(d.Store, d.Blobs, d.Events, d.Upload))

		pr.With(rbac.Require(rbac.PermSessionView)).
			Get("/api/sessions", ListSessionsHandler(d.Store))

		pr.Route("/api/sessions/{sessionID}", func(sr chi.Router) {
			sr.Use(RequireSessionOwner(d.Store))
			sr.With(rbac.Require(rbac.PermSessionView)).
				Get("/breakdown", BreakdownHandler(d.Store))
			sr.With(rbac.Require(rbac.PermSessionView)).
				Get("/events", SessionEventsHandler(d.Events))
			sr.With(rbac.Require(rbac.PermSessionView)).
				Get("/export", ExportHandler(d.Blobs))
			sr.With(rbac.Require(rbac.PermGradesEdit)).
				Post("/group-marks", GroupMarkHandler(d.Store, d.Events))
			sr.With(rbac.Require(rbac.PermGradesEdit)).
				Put("/config", ConfigHandler(d.Store, d.Events))
		})

		pr.Get("/api/me", MeHandler(d.Store))
		pr.Post("/api/me/password", ChangePasswordHandler(d.Store))

		pr.With(rbac.Require(rbac.PermUsersManage)).
			Get("/api/admin/users", AdminListUsersHandler(d.Store))
		pr.With(rbac.Require(rbac.PermUsersManage)).
			Patch("/api/admin/users/{userID}", AdminUpdateUserHandler(d.Store))
	})

	return r
}
