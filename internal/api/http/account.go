package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/gradeassist/internal/auth/middleware"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
)

// GET /api/me
func MeHandler(users AccountStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		u, err := users.UserByID(ctx, auth.SubjectFromContext(ctx))
		if err != nil {
			httpjson.HandleError(httplog.LogEntry(ctx), w, err)
			return
		}
		httpjson.WriteSuccessJson(w, u)
	}
}

// POST /api/me/password  { "oldPassword", "newPassword" }
func ChangePasswordHandler(users AccountStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := httplog.LogEntry(ctx)
		userID := auth.SubjectFromContext(ctx)

		var req struct {
			OldPassword string `json:"oldPassword"`
			NewPassword string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}
		if len(req.NewPassword) < 6 {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("password must be at least 6 characters"))
			return
		}

		u, err := users.UserByID(ctx, userID)
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)) != nil {
			httpjson.HandleError(logger, w, srvcerror.New("wrong_password", "incorrect old password").
				SetHttpStatusCode(http.StatusForbidden))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		if err := users.SetPasswordHash(ctx, userID, string(hash)); err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		logger.Info("password changed", "user_id", userID)
		w.WriteHeader(http.StatusNoContent)
	}
}
