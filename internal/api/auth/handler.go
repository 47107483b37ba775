package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
	"github.com/good-yellow-bee/brightminds/internal/validate"
)

// Handler handles registration and login.
type Handler struct {
	storage    storage.Storage
	jwtService *JWTService
	bcryptCost int
}

// NewHandler creates a new auth handler. bcryptCost of 0 selects the
// bcrypt default.
func NewHandler(store storage.Storage, jwt *JWTService, bcryptCost int) *Handler {
	return &Handler{
		storage:    store,
		jwtService: jwt,
		bcryptCost: bcryptCost,
	}
}

// RegisterRequest is the request body for registration. Name may be
// omitted when firstName/lastName are given.
type RegisterRequest struct {
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=teacher parent"`
}

// DisplayName returns the explicit name or one built from first and last name.
func (r *RegisterRequest) DisplayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned on successful login or registration.
type TokenResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

// Register creates an account and signs the new user in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return
	}
	req.Email = models.NormalizeEmail(req.Email)

	if err := validate.Struct(req); err != nil {
		response.JSONError(w, response.NewValidationError("Invalid registration data", err))
		return
	}
	name := req.DisplayName()
	if name == "" {
		response.JSONError(w, response.NewBadRequest("Name is required"))
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		response.JSONError(w, response.NewValidationError("Invalid registration data", err))
		return
	}

	hash, err := HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		log.Printf("register error: hash password: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	role := models.RoleTeacher
	if req.Role != "" {
		role = models.Role(req.Role)
	}
	user := models.NewUser(name, req.Email, role)
	user.PasswordHash = hash

	ctx := r.Context()
	if err := h.storage.Users().Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			recordAttempt("register", false)
			response.JSONError(w, response.NewConflict("User already exists"))
			return
		}
		log.Printf("register error: create user: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		log.Printf("register error: generate token: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	recordAttempt("register", true)
	log.Printf("register success: user %s (%s)", user.ID.Hex(), user.Role)
	response.Created(w, &TokenResponse{Token: token, User: user.Profile()})
}

// Login exchanges email and password for an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.JSONError(w, response.NewValidationError("Email and password are required", err))
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("login error: get user: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if user == nil {
		log.Printf("login failed: no account for %s", models.NormalizeEmail(req.Email))
		recordAttempt("login", false)
		response.JSONError(w, response.ErrInvalidCredentials)
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		log.Printf("login failed: invalid password for user %s", user.ID.Hex())
		recordAttempt("login", false)
		response.JSONError(w, response.ErrInvalidCredentials)
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		log.Printf("login error: generate token: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	recordAttempt("login", true)
	log.Printf("login success: user %s", user.ID.Hex())
	response.OK(w, &TokenResponse{Token: token, User: user.Profile()})
}

func recordAttempt(kind string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
		metrics.AuthTokensIssued.Inc()
	}
	metrics.AuthAttemptsTotal.WithLabelValues(kind, result).Inc()
}
