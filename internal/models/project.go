package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidProjectData is returned when a payload cannot be applied to a project.
var ErrInvalidProjectData = errors.New("invalid project data")

// Age is a student's age in years. It decodes from a JSON number or a
// numeric string, so form values posted as text are accepted.
type Age int

// UnmarshalJSON implements json.Unmarshaler.
func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("studentAge: %q is not a number", string(data))
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("studentAge: %v is not a whole number", f)
	}
	*a = Age(f)
	return nil
}

// Document is metadata about a file attached to a project. File contents
// are never stored.
type Document struct {
	Name         string `bson:"name" json:"name"`
	Size         int64  `bson:"size" json:"size"`
	Type         string `bson:"type" json:"type"`
	LastModified int64  `bson:"lastModified" json:"lastModified"`
}

// Project is a student's IEP record. Parents use the same record as a
// child profile.
type Project struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User               primitive.ObjectID `bson:"user" json:"user"`
	StudentName        string             `bson:"studentName" json:"studentName" validate:"notblank"`
	StudentAge         *Age               `bson:"studentAge" json:"studentAge" validate:"required,gte=0"`
	GradeLevel         string             `bson:"gradeLevel" json:"gradeLevel" validate:"notblank"`
	PresentLevels      string             `bson:"presentLevels,omitempty" json:"presentLevels,omitempty"`
	CurrentPerformance string             `bson:"currentPerformance,omitempty" json:"currentPerformance,omitempty"`
	Goals              string             `bson:"goals,omitempty" json:"goals,omitempty"`
	Accommodations     string             `bson:"accommodations,omitempty" json:"accommodations,omitempty"`
	ParentSurvey       string             `bson:"parentSurvey,omitempty" json:"parentSurvey,omitempty"`
	Notes              string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Analysis           string             `bson:"analysis,omitempty" json:"analysis,omitempty"`
	RelatedServices    []string           `bson:"relatedServices" json:"relatedServices"`
	Documents          []Document         `bson:"documents" json:"documents" validate:"dive"`
	Progress           ProgressStatus     `bson:"progress" json:"progress"`
	ProgressItems      []ProgressItem     `bson:"progressItems" json:"progressItems"`
	ProgressHistory    []ProgressEvent    `bson:"progressHistory" json:"progressHistory"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MarshalJSON adds an "id" alias next to "_id" so clients can use either.
func (p Project) MarshalJSON() ([]byte, error) {
	type alias Project
	return json.Marshal(struct {
		alias
		IDAlias string `json:"id"`
	}{alias: alias(p), IDAlias: p.ID.Hex()})
}

// NewProject stamps ownership, identity and timestamps on a decoded payload.
func NewProject(owner primitive.ObjectID, p *Project) *Project {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.User = owner
	p.Progress = ProgressPending
	p.ProgressItems = nil
	p.ProgressHistory = nil
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Normalize()
	return p
}

// Normalize trims identifying fields and turns relatedServices into an
// ordered set.
func (p *Project) Normalize() {
	p.StudentName = strings.TrimSpace(p.StudentName)
	p.GradeLevel = strings.TrimSpace(p.GradeLevel)

	seen := make(map[string]struct{}, len(p.RelatedServices))
	services := make([]string, 0, len(p.RelatedServices))
	for _, s := range p.RelatedServices {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		services = append(services, s)
	}
	p.RelatedServices = services
	if p.Documents == nil {
		p.Documents = []Document{}
	}
	if p.Progress == "" {
		p.Progress = ProgressPending
	}
}

// fieldsLockedOnUpdate are keys a client update can never overwrite.
// Progress fields change only through the progress item operations.
var fieldsLockedOnUpdate = map[string]struct{}{
	"_id":             {},
	"id":              {},
	"user":            {},
	"createdAt":       {},
	"updatedAt":       {},
	"progress":        {},
	"progressItems":   {},
	"progressHistory": {},
}

// Merge applies a shallow top-level patch: every key present in the patch
// replaces the stored value, everything else is left untouched.
func (p *Project) Merge(patch map[string]json.RawMessage) error {
	current, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(current, &doc); err != nil {
		return fmt.Errorf("decode project: %w", err)
	}
	delete(doc, "id")

	for key, value := range patch {
		if _, locked := fieldsLockedOnUpdate[key]; locked {
			continue
		}
		doc[key] = value
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode merged project: %w", err)
	}
	var next Project
	if err := json.Unmarshal(merged, &next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProjectData, err)
	}

	// Key matching in encoding/json is case-insensitive, so restore the
	// server-owned fields rather than trusting the filter above alone.
	next.ID = p.ID
	next.User = p.User
	next.CreatedAt = p.CreatedAt
	next.UpdatedAt = p.UpdatedAt
	next.Progress = p.Progress
	next.ProgressItems = p.ProgressItems
	next.ProgressHistory = p.ProgressHistory
	next.Normalize()

	*p = next
	return nil
}

// Touch bumps the modification time.
func (p *Project) Touch() {
	p.UpdatedAt = time.Now().UTC()
}
