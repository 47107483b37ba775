package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

// Kind selects which record list a Records value works on.
type Kind int

const (
	KindProjects Kind = iota
	KindChildren
)

func (k Kind) path() string {
	if k == KindChildren {
		return "/parent/children"
	}
	return "/projects"
}

// Records is the CRUD surface shared by projects and child profiles. Every
// call keeps the matching store slice in step with the server.
type Records struct {
	c    *Client
	kind Kind
}

// Projects returns the teacher-facing student records.
func (c *Client) Projects() *Records {
	return &Records{c: c, kind: KindProjects}
}

// Children returns the parent-facing child profiles.
func (c *Client) Children() *Records {
	return &Records{c: c, kind: KindChildren}
}

func (r *Records) itemPath(id string) string {
	return r.kind.path() + "/" + url.PathEscape(id)
}

func (r *Records) fail(err error) error {
	r.c.store.setRecordsError(r.kind, err.Error())
	return err
}

// List fetches the caller's records, newest first.
func (r *Records) List(ctx context.Context) ([]*models.Project, error) {
	var out []*models.Project
	if err := r.c.do(ctx, http.MethodGet, r.kind.path(), nil, &out); err != nil {
		return nil, r.fail(err)
	}
	r.c.store.setRecords(r.kind, out)
	return out, nil
}

// Get fetches one record and makes it current.
func (r *Records) Get(ctx context.Context, id string) (*models.Project, error) {
	var out models.Project
	if err := r.c.do(ctx, http.MethodGet, r.itemPath(id), nil, &out); err != nil {
		return nil, r.fail(err)
	}
	r.c.store.setCurrent(r.kind, &out)
	return &out, nil
}

// Create stores a new record.
func (r *Records) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	var out models.Project
	if err := r.c.do(ctx, http.MethodPost, r.kind.path(), p, &out); err != nil {
		return nil, r.fail(err)
	}
	r.c.store.prependRecord(r.kind, &out)
	return &out, nil
}

// Update sends the given top-level fields; the server merges them over the
// stored record.
func (r *Records) Update(ctx context.Context, id string, fields map[string]any) (*models.Project, error) {
	var out models.Project
	if err := r.c.do(ctx, http.MethodPut, r.itemPath(id), fields, &out); err != nil {
		return nil, r.fail(err)
	}
	r.c.store.replaceRecord(r.kind, &out)
	return &out, nil
}

// Delete removes a record and returns the server's confirmation.
func (r *Records) Delete(ctx context.Context, id string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := r.c.do(ctx, http.MethodDelete, r.itemPath(id), nil, &out); err != nil {
		return "", r.fail(err)
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		r.c.store.removeRecord(r.kind, oid)
	}
	return out.Message, nil
}

// AddProgressItem appends a pending progress item to a project.
func (c *Client) AddProgressItem(ctx context.Context, projectID, title string) (*models.Project, error) {
	var out models.Project
	path := "/projects/" + url.PathEscape(projectID) + "/progress"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	c.store.replaceRecord(KindProjects, &out)
	return &out, nil
}

// ProgressUpdate holds the progress item fields to change.
type ProgressUpdate struct {
	Title  *string                `json:"title,omitempty"`
	Status *models.ProgressStatus `json:"status,omitempty"`
}

// UpdateProgressItem renames an item or changes its status.
func (c *Client) UpdateProgressItem(ctx context.Context, projectID, itemID string, in ProgressUpdate) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodPut, progressItemPath(projectID, itemID), in, &out); err != nil {
		return nil, err
	}
	c.store.replaceRecord(KindProjects, &out)
	return &out, nil
}

// DeleteProgressItem removes a progress item.
func (c *Client) DeleteProgressItem(ctx context.Context, projectID, itemID string) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodDelete, progressItemPath(projectID, itemID), nil, &out); err != nil {
		return nil, err
	}
	c.store.replaceRecord(KindProjects, &out)
	return &out, nil
}

func progressItemPath(projectID, itemID string) string {
	return "/projects/" + url.PathEscape(projectID) + "/progress/" + url.PathEscape(itemID)
}

// AnalysisInput is the student profile sent for analysis.
type AnalysisInput struct {
	StudentName        string      `json:"studentName"`
	StudentAge         *models.Age `json:"studentAge,omitempty"`
	GradeLevel         string      `json:"gradeLevel"`
	PresentLevels      string      `json:"presentLevels"`
	CurrentPerformance string      `json:"currentPerformance"`
	Goals              string      `json:"goals"`
	Accommodations     string      `json:"accommodations"`
	RelatedServices    []string    `json:"relatedServices"`
	ProjectID          string      `json:"projectId,omitempty"`
}

// AnalysisInputFor builds an analysis request from a project. Unsaved
// projects carry no project id.
func AnalysisInputFor(p *models.Project) AnalysisInput {
	in := AnalysisInput{
		StudentName:        p.StudentName,
		StudentAge:         p.StudentAge,
		GradeLevel:         p.GradeLevel,
		PresentLevels:      p.PresentLevels,
		CurrentPerformance: p.CurrentPerformance,
		Goals:              p.Goals,
		Accommodations:     p.Accommodations,
		RelatedServices:    p.RelatedServices,
	}
	if !p.ID.IsZero() {
		in.ProjectID = p.ID.Hex()
	}
	return in
}

// Analyze asks the server for an analysis narrative.
func (c *Client) Analyze(ctx context.Context, in AnalysisInput) (string, error) {
	var out struct {
		Analysis string `json:"analysis"`
	}
	if err := c.do(ctx, http.MethodPost, "/projects/analysis", in, &out); err != nil {
		return "", err
	}
	return out.Analysis, nil
}

// AnalyzeAndSave generates an analysis for p and stores it, creating the
// project when it has no id yet. Only one sequence runs at a time; a second
// caller gets ErrBusy.
func (c *Client) AnalyzeAndSave(ctx context.Context, p *models.Project) (saved *models.Project, err error) {
	if err := c.store.BeginGenerate(); err != nil {
		return nil, err
	}
	defer func() { c.store.FinishAnalysis(err) }()

	text, err := c.Analyze(ctx, AnalysisInputFor(p))
	if err != nil {
		return nil, err
	}

	c.store.BeginSave()
	if p.ID.IsZero() {
		draft := *p
		draft.Analysis = text
		return c.Projects().Create(ctx, &draft)
	}
	return c.Projects().Update(ctx, p.ID.Hex(), map[string]any{"analysis": text})
}

// ExtractIEP uploads an IEP document and returns the extracted fields as
// relayed by the server.
func (c *Client) ExtractIEP(ctx context.Context, filename string, r io.Reader) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/projects/extract-iep", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out json.RawMessage
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
