package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/httplog/v2"

	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/rbac"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
)

// UserLookup loads the account behind a token subject.
type UserLookup interface {
	UserByID(ctx context.Context, id string) (gradebook.User, error)
}

// AttachRoleFromDB replaces the token's role with the stored one and turns
// away tokens of deleted or disabled accounts. Mount it after JWTMiddleware.
func AttachRoleFromDB(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			u, err := users.UserByID(ctx, SubjectFromContext(ctx))
			switch {
			case errors.Is(err, gradebook.ErrNotFound):
				httpjson.WriteErrorJson(w, "unknown account", http.StatusUnauthorized, srvcerror.ErrCodeUnauthorized)
				return
			case err != nil:
				httpjson.HandleError(httplog.LogEntry(ctx), w, err)
				return
			case !u.Active:
				httpjson.WriteErrorJson(w, "account disabled", http.StatusForbidden, "account_disabled")
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, u.Role)))
		})
	}
}
