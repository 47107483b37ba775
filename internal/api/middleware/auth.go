package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/api/auth"
	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
)

// Context keys for storing request information.
type contextKey string

const (
	userKey contextKey = "user"
)

// Auth failure reasons. They are logged, never sent to the client.
const (
	reasonNoToken      = "no token"
	reasonTokenFailed  = "token failed"
	reasonUserNotFound = "user not found"
)

func unauthorized(w http.ResponseWriter, r *http.Request, reason string, err error) {
	if err != nil {
		log.Printf("Not authorized, %s: %s %s from %s: %v", reason, r.Method, r.URL.Path, getClientIP(r), err)
	} else {
		log.Printf("Not authorized, %s: %s %s from %s", reason, r.Method, r.URL.Path, getClientIP(r))
	}
	response.JSONError(w, response.ErrUnauthorized)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Protect returns middleware that requires a valid bearer token whose user
// still exists. The user is loaded once per request and stored in the
// request context; handlers read it with CurrentUser.
func Protect(jwtService *auth.JWTService, store storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, reasonNoToken, nil)
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, reasonTokenFailed, err)
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				unauthorized(w, r, reasonTokenFailed, err)
				return
			}

			user, err := store.Users().GetByID(r.Context(), userID)
			if err != nil {
				log.Printf("auth error: load user %s: %v", claims.UserID, err)
				response.JSONError(w, response.ErrInternalServer)
				return
			}
			if user == nil {
				unauthorized(w, r, reasonUserNotFound, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the authenticated user from context, or nil.
func CurrentUser(ctx context.Context) *models.User {
	if v := ctx.Value(userKey); v != nil {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetUserID returns the authenticated user's id from context.
func GetUserID(ctx context.Context) primitive.ObjectID {
	if u := CurrentUser(ctx); u != nil {
		return u.ID
	}
	return primitive.NilObjectID
}

// GetRole returns the authenticated user's role from context.
func GetRole(ctx context.Context) models.Role {
	if u := CurrentUser(ctx); u != nil {
		return u.Role
	}
	return ""
}
