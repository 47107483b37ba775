// Package feedback serves feedback submission and triage.
package feedback

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/api/middleware"
	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
	"github.com/good-yellow-bee/brightminds/internal/validate"
)

// Handler handles feedback endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new feedback handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// SubmitRequest is the body of POST /feedback.
type SubmitRequest struct {
	Type         string `json:"type" validate:"omitempty,oneof=general bug feature improvement question"`
	Rating       *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Message      string `json:"message" validate:"required,min=10,max=5000"`
	Email        string `json:"email" validate:"omitempty,email"`
	AllowContact bool   `json:"allowContact"`
}

// StatusRequest is the body of PATCH /feedback/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed in-progress resolved closed"`
}

// ListResponse is the data of a feedback listing.
type ListResponse struct {
	Feedback   []*models.Feedback  `json:"feedback"`
	Pagination response.Pagination `json:"pagination"`
}

// Submit stores a feedback message from the caller.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.Email = strings.TrimSpace(req.Email)

	if err := validate.Struct(req); err != nil {
		response.JSONError(w, response.NewValidationError("Invalid feedback", err))
		return
	}

	typ := models.FeedbackGeneral
	if req.Type != "" {
		typ = models.FeedbackType(req.Type)
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	fb := models.NewFeedback(&userID, typ, req.Message)
	fb.Rating = req.Rating
	fb.Email = models.NormalizeEmail(req.Email)
	fb.AllowContact = req.AllowContact

	if err := h.storage.Feedback().Create(ctx, fb); err != nil {
		log.Printf("submit feedback error: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	metrics.FeedbackSubmitted.WithLabelValues(string(typ)).Inc()
	log.Printf("feedback submitted: %s (%s) by user %s", fb.ID.Hex(), fb.Type, userID.Hex())
	response.Success(w, http.StatusCreated, "Feedback submitted successfully", fb)
}

// Mine lists the caller's own feedback.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r, false)
	if !ok {
		return
	}
	userID := middleware.GetUserID(r.Context())
	filter.User = &userID
	h.list(w, r, filter)
}

// List lists all feedback for administrators.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r, true)
	if !ok {
		return
	}
	h.list(w, r, filter)
}

// UpdateStatus sets the triage status of a feedback entry.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.JSONError(w, response.NewNotFound("Feedback not found"))
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.JSONError(w, response.NewValidationError("Invalid status", err))
		return
	}

	fb, err := h.storage.Feedback().UpdateStatus(r.Context(), id, models.FeedbackStatus(req.Status))
	if err != nil {
		log.Printf("update feedback status error: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if fb == nil {
		response.JSONError(w, response.NewNotFound("Feedback not found"))
		return
	}

	log.Printf("feedback %s status set to %s by user %s", id.Hex(), req.Status, middleware.GetUserID(r.Context()).Hex())
	response.Success(w, http.StatusOK, "Feedback status updated", fb)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter storage.FeedbackFilter) {
	page, limit := response.PageParams(r)

	items, total, err := h.storage.Feedback().List(r.Context(), filter, storage.Page{Number: page, Limit: limit})
	if err != nil {
		log.Printf("list feedback error: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if items == nil {
		items = []*models.Feedback{}
	}

	response.Success(w, http.StatusOK, "", ListResponse{
		Feedback:   items,
		Pagination: response.NewPagination(page, limit, total),
	})
}

// parseFilter reads the type (and, for admins, status) query filters.
func parseFilter(w http.ResponseWriter, r *http.Request, withStatus bool) (storage.FeedbackFilter, bool) {
	var filter storage.FeedbackFilter
	q := r.URL.Query()

	if t := q.Get("type"); t != "" {
		if !models.ValidFeedbackType(t) {
			response.JSONError(w, response.NewBadRequest("Invalid feedback type"))
			return filter, false
		}
		filter.Type = models.FeedbackType(t)
	}
	if s := q.Get("status"); withStatus && s != "" {
		if !models.ValidFeedbackStatus(s) {
			response.JSONError(w, response.NewBadRequest("Invalid feedback status"))
			return filter, false
		}
		filter.Status = models.FeedbackStatus(s)
	}
	return filter, true
}
