package rbac

import (
	"net/http"

	"github.com/mind-engage/gradeassist/internal/httpjson"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission using the role set by the auth
// middleware.
func Require(perm string) func(http.Handler) http.Handler {
	return RequireWith(defaultChecker, perm)
}

func RequireWith(c *Checker, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !c.Has(role, perm) {
				httpjson.WriteErrorJson(w, "forbidden", http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
