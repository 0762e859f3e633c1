package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"

	auth "github.com/mind-engage/gradeassist/internal/auth/middleware"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
)

// RequireSessionOwner answers 404 for any {sessionID} the caller does not own.
func RequireSessionOwner(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ok, err := store.SessionOwned(ctx, auth.SubjectFromContext(ctx), chi.URLParam(r, "sessionID"))
			if err != nil {
				httpjson.HandleError(httplog.LogEntry(ctx), w, err)
				return
			}
			if !ok {
				httpjson.HandleError(httplog.LogEntry(ctx), w, srvcerror.ErrNotFound("session"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
