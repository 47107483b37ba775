package client

import (
	"context"
	"net/http"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

type betaDecision struct {
	UserID      string             `json:"userId"`
	BetaProgram models.BetaProgram `json:"betaProgram"`
}

// BetaStatus fetches the caller's beta program responses.
func (c *Client) BetaStatus(ctx context.Context) (*models.BetaProgram, error) {
	var out envelope[models.BetaProgram]
	if err := c.do(ctx, http.MethodGet, "/beta/status", nil, &out); err != nil {
		c.store.SetBetaError(err.Error())
		return nil, err
	}
	c.store.SetBeta(out.Data)
	return &out.Data, nil
}

// AcceptBeta accepts the beta terms. Terms that were already accepted
// count as success.
func (c *Client) AcceptBeta(ctx context.Context) (*models.BetaProgram, error) {
	b, err := c.betaTransition(ctx, http.MethodPost, "/beta/accept")
	if StatusOf(err) == http.StatusConflict {
		return c.BetaStatus(ctx)
	}
	return b, err
}

// DeclineBeta declines the beta terms. The user can still accept later.
func (c *Client) DeclineBeta(ctx context.Context) (*models.BetaProgram, error) {
	return c.betaTransition(ctx, http.MethodPost, "/beta/decline")
}

// ConfirmBetaSeen marks the post-acceptance confirmation as shown.
func (c *Client) ConfirmBetaSeen(ctx context.Context) (*models.BetaProgram, error) {
	return c.betaTransition(ctx, http.MethodPatch, "/beta/confirmation-seen")
}

func (c *Client) betaTransition(ctx context.Context, method, path string) (*models.BetaProgram, error) {
	var out envelope[betaDecision]
	if err := c.do(ctx, method, path, nil, &out); err != nil {
		c.store.SetBetaError(err.Error())
		return nil, err
	}
	c.store.SetBeta(out.Data.BetaProgram)
	return &out.Data.BetaProgram, nil
}
