package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
	"github.com/good-yellow-bee/brightminds/internal/validate"
)

// DefaultAnalysisDelay is the pause before an analysis is returned.
const DefaultAnalysisDelay = 1500 * time.Millisecond

// AnalysisRequest is the student profile an analysis is generated from.
// studentAge is left raw so numbers, numeric strings and blanks all render.
type AnalysisRequest struct {
	StudentName        string          `json:"studentName" validate:"notblank"`
	StudentAge         json.RawMessage `json:"studentAge"`
	GradeLevel         string          `json:"gradeLevel"`
	PresentLevels      string          `json:"presentLevels"`
	CurrentPerformance string          `json:"currentPerformance"`
	Goals              string          `json:"goals"`
	Accommodations     string          `json:"accommodations"`
	RelatedServices    []string        `json:"relatedServices"`
	ProjectID          string          `json:"projectId"`
}

// AnalysisResponse carries the generated narrative.
type AnalysisResponse struct {
	Analysis string `json:"analysis"`
}

var analysisTemplate = template.Must(template.New("analysis").Parse(
	`### Comprehensive Student Analysis for {{.Name}}

**Project Reference**: {{.ProjectRef}}

**Overview**
{{.Name}} (Age: {{.Age}}) is currently in {{.Grade}}. Based on the provided data, they demonstrate specific strengths and needs that guide this educational plan.

**Present Levels Summary**
{{.PresentLevels}}

**Current Performance**
{{.Performance}}

**Goal Alignment**
The goals outlined ("{{.Goals}}") appear well-aligned with their current performance levels.

**Accommodations & Services**
Recommended accommodations: {{.Accommodations}}.
Related Services: {{.Services}}.

**Recommendations**
- Continue monitoring progress weekly.
- Ensure accommodations are applied consistently across all environments.`))

type analysisView struct {
	Name           string
	ProjectRef     string
	Age            string
	Grade          string
	PresentLevels  string
	Performance    string
	Goals          string
	Accommodations string
	Services       string
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// ageText renders a raw studentAge; missing, empty and zero read as N/A.
func ageText(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return "N/A"
	}
	switch age := v.(type) {
	case float64:
		if age == 0 {
			return "N/A"
		}
		return strconv.FormatFloat(age, 'f', -1, 64)
	case string:
		return orDefault(age, "N/A")
	}
	return "N/A"
}

// GenerateAnalysis fills the narrative template from a student profile.
func GenerateAnalysis(req *AnalysisRequest) (string, error) {
	services := "None specified"
	if len(req.RelatedServices) > 0 {
		services = strings.Join(req.RelatedServices, ", ")
	}

	view := analysisView{
		Name:           strings.TrimSpace(req.StudentName),
		ProjectRef:     orDefault(req.ProjectID, "New Project"),
		Age:            ageText(req.StudentAge),
		Grade:          req.GradeLevel,
		PresentLevels:  orDefault(req.PresentLevels, "Data implies a need for detailed observation."),
		Performance:    orDefault(req.CurrentPerformance, "Performance details not provided."),
		Goals:          orDefault(req.Goals, "Pending"),
		Accommodations: orDefault(req.Accommodations, "None specified"),
		Services:       services,
	}

	var buf bytes.Buffer
	if err := analysisTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// AnalysisHandler serves POST /projects/analysis.
type AnalysisHandler struct {
	delay time.Duration
}

// NewAnalysisHandler creates an analysis handler that waits delay before
// answering. A negative delay is treated as zero.
func NewAnalysisHandler(delay time.Duration) *AnalysisHandler {
	return &AnalysisHandler{delay: max(delay, 0)}
}

// Analyze generates a narrative for the posted profile. Nothing is stored;
// clients save the text onto the project with a separate update.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		response.JSONError(w, response.NewValidationError("Invalid analysis request", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.JSONError(w, response.NewValidationError("Invalid analysis request", err))
		return
	}

	text, err := GenerateAnalysis(&req)
	if err != nil {
		log.Printf("analysis error: %v", err)
		response.JSONError(w, response.ErrInternalServer)
		return
	}

	if err := sleepCtx(r.Context(), h.delay); err != nil {
		log.Printf("analysis cancelled: %v", err)
		return
	}

	metrics.AnalysesGenerated.Inc()
	response.OK(w, AnalysisResponse{Analysis: text})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
