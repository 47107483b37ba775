package client

import (
	"context"
	"fmt"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

// Routes the gate redirects to.
const (
	BetaAgreementPath    = "/beta-agreement"
	BetaConfirmationPath = "/beta-confirmation"
)

// GateError reports that a protected route may not be shown yet.
type GateError struct {
	State    models.GateState
	Redirect string
}

func (e *GateError) Error() string {
	switch e.State {
	case models.GateConfirmation:
		return "beta confirmation has not been acknowledged"
	case models.GateAgreement:
		return "beta terms have not been accepted"
	}
	return fmt.Sprintf("not signed in, go to %s", e.Redirect)
}

// Redirect returns where a protected route should send the user, or "" when
// it may render.
func Redirect(auth AuthState, beta *models.BetaProgram) string {
	if !auth.IsAuthenticated {
		return LoginPath
	}
	if beta == nil {
		return BetaAgreementPath
	}
	switch beta.Gate() {
	case models.GateAgreement:
		return BetaAgreementPath
	case models.GateConfirmation:
		return BetaConfirmationPath
	}
	return ""
}

// RequireGate checks the beta gate for a protected route, fetching the beta
// status when the store has none. It returns a *GateError when the route
// must not render.
func (c *Client) RequireGate(ctx context.Context) error {
	auth := c.store.Auth()
	if !auth.IsAuthenticated {
		return &GateError{Redirect: LoginPath}
	}

	beta := c.store.Beta().Status
	if beta == nil {
		var err error
		if beta, err = c.BetaStatus(ctx); err != nil {
			return err
		}
	}

	if path := Redirect(auth, beta); path != "" {
		return &GateError{State: beta.Gate(), Redirect: path}
	}
	return nil
}
