package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"

	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/rbac"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
)

// GET /api/admin/users[?role=instructor|admin]
func AdminListUsersHandler(users UserAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.ListUsers(r.Context(), strings.TrimSpace(r.URL.Query().Get("role")))
		if err != nil {
			httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
			return
		}
		httpjson.WriteSuccessJson(w, list)
	}
}

// PATCH /api/admin/users/{userID}  { "role"?, "active"? }
func AdminUpdateUserHandler(users UserAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := httplog.LogEntry(r.Context())

		var req gradebook.UserUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}
		if req.Role != nil {
			role := strings.ToLower(strings.TrimSpace(*req.Role))
			if role != rbac.RoleInstructor && role != rbac.RoleAdmin {
				httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("invalid role"))
				return
			}
			req.Role = &role
		}

		u, err := users.UpdateUser(r.Context(), chi.URLParam(r, "userID"), req)
		switch {
		case errors.Is(err, gradebook.ErrNotFound):
			httpjson.HandleError(logger, w, srvcerror.ErrNotFound("user"))
			return
		case errors.Is(err, gradebook.ErrLastAdmin):
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest(err.Error()))
			return
		case err != nil:
			httpjson.HandleError(logger, w, err)
			return
		}
		logger.Info("user updated", "user_id", u.ID, "role", u.Role, "active", u.Active)
		httpjson.WriteSuccessJson(w, u)
	}
}
