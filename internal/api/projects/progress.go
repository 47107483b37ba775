package projects

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

// ProgressItemRequest is the body for adding or editing a progress item.
// On update, absent fields are left unchanged.
type ProgressItemRequest struct {
	Title  *string                `json:"title"`
	Status *models.ProgressStatus `json:"status"`
}

func decodeProgressRequest(w http.ResponseWriter, r *http.Request) (*ProgressItemRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return nil, false
	}
	var req ProgressItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.JSONError(w, response.NewValidationError("Invalid progress item", err))
		return nil, false
	}
	return &req, true
}

// AddProgressItem appends a progress item to a project.
func (h *Handler) AddProgressItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProgressRequest(w, r)
	if !ok {
		return
	}
	title := ""
	if req.Title != nil {
		title = *req.Title
	}

	project, ok := h.load(w, r)
	if !ok {
		return
	}
	if _, err := project.AddProgressItem(title, time.Now().UTC()); err != nil {
		writeProgressError(w, err)
		return
	}
	h.save(w, r, project, "progress")
}

// UpdateProgressItem renames an item or changes its status.
func (h *Handler) UpdateProgressItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProgressRequest(w, r)
	if !ok {
		return
	}

	project, ok := h.load(w, r)
	if !ok {
		return
	}
	if _, err := project.UpdateProgressItem(chi.URLParam(r, "itemId"), req.Title, req.Status, time.Now().UTC()); err != nil {
		writeProgressError(w, err)
		return
	}
	h.save(w, r, project, "progress")
}

// DeleteProgressItem removes an item from a project.
func (h *Handler) DeleteProgressItem(w http.ResponseWriter, r *http.Request) {
	project, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := project.RemoveProgressItem(chi.URLParam(r, "itemId"), time.Now().UTC()); err != nil {
		writeProgressError(w, err)
		return
	}
	h.save(w, r, project, "progress")
}

func writeProgressError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrProgressItemNotFound):
		response.JSONError(w, response.NewNotFound("Progress item not found"))
	case errors.Is(err, models.ErrProgressTitleRequired):
		response.JSONError(w, response.NewBadRequest("Title is required"))
	case errors.Is(err, models.ErrInvalidProgressStatus):
		response.JSONError(w, response.NewBadRequest("Invalid progress status"))
	default:
		log.Printf("progress item error: %v", err)
		response.JSONError(w, response.ErrInternalServer)
	}
}
