package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
)

// ResetStore keeps single-use password reset tokens.
type ResetStore interface {
	CreatePasswordReset(ctx context.Context, email string, ttl time.Duration) (string, gradebook.User, error)
	ResetPassword(ctx context.Context, token, passwordHash string) (string, error)
}

// Mailer delivers reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string, ttl time.Duration) error
}

// LogMailer stands in for a real mailer: it records that a reset was
// requested and sends nothing.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, to, _ string, ttl time.Duration) error {
	l := m.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "password reset mail skipped, no mailer configured", "to", to, "ttl", ttl)
	return nil
}

type ResetOptions struct {
	AppURL string // reset links point at <AppURL>/reset?token=...
	TTL    time.Duration
	// ExposeURL returns the reset link in the response. Development only.
	ExposeURL bool
}

const forgotMessage = "If an account exists, a reset link was sent."

type forgotResponse struct {
	Message  string `json:"message"`
	ResetURL string `json:"resetUrl,omitempty"`
}

// POST /auth/forgot  { "email" }
//
// The response is the same whether or not the account exists.
func ForgotPasswordHandler(users ResetStore, mailer Mailer, opts ResetOptions) http.HandlerFunc {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := httplog.LogEntry(ctx)

		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}
		resp := forgotResponse{Message: forgotMessage}
		email := gradebook.NormalizeEmail(req.Email)
		if email == "" {
			httpjson.WriteSuccessJson(w, resp)
			return
		}

		token, u, err := users.CreatePasswordReset(ctx, email, ttl)
		if err != nil {
			if !errors.Is(err, gradebook.ErrNotFound) {
				logger.Error("create password reset", "error", err)
			}
			httpjson.WriteSuccessJson(w, resp)
			return
		}

		link := strings.TrimRight(opts.AppURL, "/") + "/reset?token=" + url.QueryEscape(token)
		if err := mailer.SendPasswordReset(ctx, u.Email, link, ttl); err != nil {
			logger.Warn("send password reset", "user_id", u.ID, "error", err)
		}
		logger.Info("password reset requested", "user_id", u.ID)
		if opts.ExposeURL {
			resp.ResetURL = link
		}
		httpjson.WriteSuccessJson(w, resp)
	}
}

// POST /auth/reset  { "token", "password" }
func ResetPasswordHandler(users ResetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := httplog.LogEntry(r.Context())

		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}
		if req.Token == "" || len(req.Password) < minPasswordLen {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("a token and a password of at least 6 characters are required"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		userID, err := users.ResetPassword(r.Context(), req.Token, string(hash))
		if errors.Is(err, gradebook.ErrInvalidResetToken) {
			httpjson.HandleError(logger, w, srvcerror.New(srvcerror.ErrCodeInvalidResetToken, "invalid or expired token").
				SetHttpStatusCode(http.StatusBadRequest))
			return
		}
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		logger.Info("password reset", "user_id", userID)
		httpjson.WriteSuccessJson(w, map[string]string{"message": "password updated"})
	}
}
