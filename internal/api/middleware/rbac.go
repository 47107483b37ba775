package middleware

import (
	"log"
	"net/http"

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

// RequireRole returns middleware that admits only the given roles. It must
// run after Protect.
func RequireRole(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				response.JSONError(w, response.ErrUnauthorized)
				return
			}

			for _, role := range allowedRoles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Printf("access denied: user %s (%s) on %s %s", user.ID.Hex(), user.Role, r.Method, r.URL.Path)
			response.JSONError(w, response.ErrForbidden)
		})
	}
}

// RequireSuperAdmin is shorthand for RequireRole(RoleSuperAdmin).
func RequireSuperAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleSuperAdmin)(next)
}
