// Package beta serves the beta program agreement endpoints.
package beta

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/brightminds/internal/api/middleware"
	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
)

// Handler handles beta program endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new beta handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// Decision is the data returned after a beta transition.
type Decision struct {
	UserID      string             `json:"userId"`
	BetaProgram models.BetaProgram `json:"betaProgram"`
}

// Status returns the caller's beta program responses.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		response.JSONError(w, response.ErrUnauthorized)
		return
	}
	response.Success(w, http.StatusOK, "", user.BetaProgram)
}

// Accept records acceptance of the beta terms.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept", "Beta terms accepted", (*models.BetaProgram).Accept)
}

// Decline records that the caller declined the beta terms.
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "decline", "Beta terms declined", (*models.BetaProgram).Decline)
}

// ConfirmationSeen records that the post-acceptance page was shown.
func (h *Handler) ConfirmationSeen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirmation_seen", "Confirmation marked as seen", (*models.BetaProgram).MarkConfirmationSeen)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name, message string, apply func(*models.BetaProgram, time.Time) error) {
	ctx := r.Context()
	current := middleware.CurrentUser(ctx)
	if current == nil {
		response.JSONError(w, response.ErrUnauthorized)
		return
	}

	user := *current
	if err := apply(&user.BetaProgram, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, models.ErrBetaAlreadyAccepted):
			response.JSONError(w, response.NewConflict("Beta terms already accepted"))
		case errors.Is(err, models.ErrBetaAlreadyDeclined):
			response.JSONError(w, response.NewConflict("Beta terms already declined"))
		case errors.Is(err, models.ErrBetaNotAccepted):
			response.JSONError(w, response.NewBadRequest("Beta terms must be accepted first"))
		default:
			log.Printf("beta %s error: %v", name, err)
			response.JSONError(w, response.ErrInternalServer)
		}
		return
	}

	user.Touch()
	if err := h.storage.Users().Update(ctx, &user); err != nil {
		log.Printf("beta %s error: save user: %v", name, err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	if name != "confirmation_seen" {
		metrics.BetaDecisions.WithLabelValues(name).Inc()
	}
	log.Printf("beta %s: user %s", name, user.ID.Hex())
	response.Success(w, http.StatusOK, message, Decision{
		UserID:      user.ID.Hex(),
		BetaProgram: user.BetaProgram,
	})
}
