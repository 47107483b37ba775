// Package users serves the caller's profile and the admin user listing.
package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/brightminds/internal/api/middleware"
	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
	"github.com/good-yellow-bee/brightminds/internal/validate"
)

// Handler handles user endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new user handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// UpdateMeRequest is the body of PUT /users/me. Absent fields are unchanged.
// Password is accepted for compatibility but not applied.
type UpdateMeRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// ListResponse is the data of the admin user listing.
type ListResponse struct {
	Users      []*models.User      `json:"users"`
	Pagination response.Pagination `json:"pagination"`
}

// Me returns the caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		response.JSONError(w, response.ErrUnauthorized)
		return
	}
	response.OK(w, user.Profile())
}

// UpdateMe changes the caller's name and email.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := middleware.CurrentUser(ctx)
	if current == nil {
		response.JSONError(w, response.ErrUnauthorized)
		return
	}

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return
	}

	// work on a copy so a failed save leaves the context user intact
	user := *current
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			response.JSONError(w, response.NewBadRequest("Name cannot be empty"))
			return
		}
		user.Name = name
	}
	if req.Email != nil {
		email := models.NormalizeEmail(*req.Email)
		if !validate.Var(email, "required,email") {
			response.JSONError(w, response.NewBadRequest("Please provide a valid email"))
			return
		}
		user.Email = email
	}
	if req.Password != nil {
		log.Printf("update profile: password change requested by user %s is not supported, ignored", user.ID.Hex())
	}

	user.Touch()
	if err := h.storage.Users().Update(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			response.JSONError(w, response.NewConflict("Email already in use"))
			return
		}
		log.Printf("update profile error: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	response.OK(w, user.Profile())
}

// List returns a page of users, optionally filtered by role.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := response.PageParams(r)

	var filter storage.UserFilter
	if role := r.URL.Query().Get("role"); role != "" {
		if !models.ValidRole(role) {
			response.JSONError(w, response.NewBadRequest("Invalid role filter"))
			return
		}
		filter.Role = models.Role(role)
	}

	users, total, err := h.storage.Users().List(r.Context(), filter, storage.Page{Number: page, Limit: limit})
	if err != nil {
		log.Printf("list users error: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	response.Success(w, http.StatusOK, "", ListResponse{
		Users:      users,
		Pagination: response.NewPagination(page, limit, total),
	})
}
