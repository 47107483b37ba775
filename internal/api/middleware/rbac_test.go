package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

func withRole(r *http.Request, role models.Role) *http.Request {
	user := models.NewUser("Test", string(role)+"@example.com", role)
	return r.WithContext(WithUser(r.Context(), user))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		allowed  []models.Role
		wantCode int
	}{
		{"exact match", models.RoleSuperAdmin, []models.Role{models.RoleSuperAdmin}, http.StatusOK},
		{"one of many", models.RoleParent, []models.Role{models.RoleTeacher, models.RoleParent}, http.StatusOK},
		{"teacher denied admin", models.RoleTeacher, []models.Role{models.RoleSuperAdmin}, http.StatusForbidden},
		{"parent denied admin", models.RoleParent, []models.Role{models.RoleSuperAdmin}, http.StatusForbidden},
		{"no roles allowed", models.RoleSuperAdmin, nil, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			wrapped := RequireRole(tc.allowed...)(handler)

			req := withRole(httptest.NewRequest("GET", "/test", nil), tc.role)
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}

func TestRequireRole_NoUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	rec := httptest.NewRecorder()
	RequireSuperAdmin(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
