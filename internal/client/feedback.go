package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

// FeedbackInput is a feedback submission. Type defaults to "general".
type FeedbackInput struct {
	Type         string `json:"type,omitempty"`
	Rating       *int   `json:"rating,omitempty"`
	Message      string `json:"message"`
	Email        string `json:"email,omitempty"`
	AllowContact bool   `json:"allowContact"`
}

type feedbackList struct {
	Feedback   []models.Feedback   `json:"feedback"`
	Pagination response.Pagination `json:"pagination"`
}

// SubmitFeedback sends feedback as the signed-in user.
func (c *Client) SubmitFeedback(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	var out envelope[models.Feedback]
	if err := c.do(ctx, http.MethodPost, "/feedback", in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// MyFeedback lists the caller's own submissions. Only Page, Limit and Type
// of q are used.
func (c *Client) MyFeedback(ctx context.Context, q ListQuery) (*Page[models.Feedback], error) {
	q.Role, q.Status = "", ""
	return c.listFeedback(ctx, "/feedback/my-feedback"+q.encode())
}

// ListFeedback lists all submissions. Superadmin only.
func (c *Client) ListFeedback(ctx context.Context, q ListQuery) (*Page[models.Feedback], error) {
	q.Role = ""
	return c.listFeedback(ctx, "/feedback"+q.encode())
}

func (c *Client) listFeedback(ctx context.Context, path string) (*Page[models.Feedback], error) {
	var out envelope[feedbackList]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &Page[models.Feedback]{Items: out.Data.Feedback, Pagination: out.Data.Pagination}, nil
}

// UpdateFeedbackStatus moves a submission through review. Superadmin only.
func (c *Client) UpdateFeedbackStatus(ctx context.Context, id string, status models.FeedbackStatus) (*models.Feedback, error) {
	var out envelope[models.Feedback]
	path := "/feedback/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, map[string]models.FeedbackStatus{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}
