// Package projects serves owner-scoped project records. The same handler
// backs both the teacher project routes and the parent child-profile routes.
package projects

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/brightminds/internal/api/middleware"
	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
)

// maxBodySize bounds project payloads; documents carry metadata only.
const maxBodySize = 1 << 20

// Labels holds the user-facing wording of one router.
type Labels struct {
	Kind        string // used in logs and metrics
	NotFound    string
	Removed     string
	InvalidData string
	UpdateError string
}

var (
	// ProjectLabels is the wording of /api/v1/projects.
	ProjectLabels = Labels{
		Kind:        "project",
		NotFound:    "Project not found",
		Removed:     "Project removed",
		InvalidData: "Invalid project data",
		UpdateError: "Error updating project",
	}

	// ChildLabels is the wording of /api/v1/parent/children.
	ChildLabels = Labels{
		Kind:        "child",
		NotFound:    "Child profile not found",
		Removed:     "Child profile removed",
		InvalidData: "Invalid child profile data",
		UpdateError: "Error updating child profile",
	}
)

// Handler serves project CRUD and progress items.
type Handler struct {
	storage storage.Storage
	labels  Labels
}

// NewHandler creates a new project handler.
func NewHandler(store storage.Storage, labels Labels) *Handler {
	return &Handler{storage: store, labels: labels}
}

// List returns the caller's projects, most recently updated first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.GetUserID(ctx)

	projects, err := h.storage.Projects().ListByOwner(ctx, owner)
	if err != nil {
		log.Printf("list %s error: %v", h.labels.Kind, err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	response.OK(w, projects)
}

// Create stores a new project owned by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return
	}
	payload, err := decodeProject(body)
	if err != nil {
		response.JSONError(w, response.NewValidationError(h.labels.InvalidData, err))
		return
	}

	ctx := r.Context()
	project := models.NewProject(middleware.GetUserID(ctx), payload)
	if err := ValidateProject(project); err != nil {
		response.JSONError(w, response.NewValidationError(h.labels.InvalidData, err))
		return
	}

	if err := h.storage.Projects().Create(ctx, project); err != nil {
		log.Printf("create %s error: %v", h.labels.Kind, err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	metrics.ProjectOperationsTotal.WithLabelValues("create").Inc()
	log.Printf("%s created: %s by user %s", h.labels.Kind, project.ID.Hex(), project.User.Hex())
	response.Created(w, project)
}

// Get returns one of the caller's projects.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.load(w, r)
	if !ok {
		return
	}
	response.OK(w, project)
}

// Update applies a shallow merge of the payload's top-level fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		response.JSONError(w, response.NewBadRequest("Invalid request body"))
		return
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil {
		response.JSONError(w, response.NewValidationError(h.labels.UpdateError, err))
		return
	}

	project, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := project.Merge(patch); err != nil {
		if errors.Is(err, models.ErrInvalidProjectData) {
			response.JSONError(w, response.NewValidationError(h.labels.UpdateError, err))
			return
		}
		log.Printf("update %s error: merge: %v", h.labels.Kind, err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if err := ValidateProject(project); err != nil {
		response.JSONError(w, response.NewValidationError(h.labels.UpdateError, err))
		return
	}

	h.save(w, r, project, "update")
}

// Delete removes one of the caller's projects.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.JSONError(w, response.NewNotFound(h.labels.NotFound))
		return
	}

	ctx := r.Context()
	owner := middleware.GetUserID(ctx)
	deleted, err := h.storage.Projects().Delete(ctx, id, owner)
	if err != nil {
		log.Printf("delete %s error: %v", h.labels.Kind, err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if !deleted {
		response.JSONError(w, response.NewNotFound(h.labels.NotFound))
		return
	}

	metrics.ProjectOperationsTotal.WithLabelValues("delete").Inc()
	log.Printf("%s deleted: %s by user %s", h.labels.Kind, id.Hex(), owner.Hex())
	response.Message(w, http.StatusOK, h.labels.Removed)
}

// load fetches the {id} project for the caller, writing a 404 or 500 when
// it cannot.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.JSONError(w, response.NewNotFound(h.labels.NotFound))
		return nil, false
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetForOwner(ctx, id, middleware.GetUserID(ctx))
	if err != nil {
		log.Printf("get %s error: %v", h.labels.Kind, err)
		response.JSONError(w, response.ErrInternalServer)
		return nil, false
	}
	if project == nil {
		response.JSONError(w, response.NewNotFound(h.labels.NotFound))
		return nil, false
	}
	return project, true
}

// save persists a modified project and writes it back to the client.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, project *models.Project, op string) {
	project.Touch()

	updated, err := h.storage.Projects().Update(r.Context(), project)
	if err != nil {
		log.Printf("%s %s error: %v", op, h.labels.Kind, err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}
	if !updated {
		// deleted between load and save
		response.JSONError(w, response.NewNotFound(h.labels.NotFound))
		return
	}

	metrics.ProjectOperationsTotal.WithLabelValues(op).Inc()
	response.OK(w, project)
}
