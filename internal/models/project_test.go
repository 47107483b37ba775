package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testProject(t *testing.T) *Project {
	t.Helper()
	age := Age(9)
	p := &Project{
		StudentName:     "Ana",
		StudentAge:      &age,
		GradeLevel:      "3",
		PresentLevels:   "Reads at grade 2 level",
		Goals:           "Old goal",
		RelatedServices: []string{"Speech"},
	}
	return NewProject(primitive.NewObjectID(), p)
}

func TestAge_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Age
		wantErr bool
	}{
		{`9`, 9, false},
		{`"12"`, 12, false},
		{`" 7 "`, 7, false},
		{`9.0`, 9, false},
		{`9.5`, 0, true},
		{`"nine"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		var a Age
		err := json.Unmarshal([]byte(tt.in), &a)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Unmarshal(%s) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if a != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, a, tt.want)
		}
	}
}

func TestProject_MarshalJSONAddsIDAlias(t *testing.T) {
	p := testProject(t)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc["_id"] != p.ID.Hex() || doc["id"] != p.ID.Hex() {
		t.Errorf("expected _id and id to be %s, got %v and %v", p.ID.Hex(), doc["_id"], doc["id"])
	}
	if doc["user"] != p.User.Hex() {
		t.Errorf("expected user %s, got %v", p.User.Hex(), doc["user"])
	}
}

func TestProject_NormalizeRelatedServices(t *testing.T) {
	p := &Project{RelatedServices: []string{" Speech", "OT", "Speech", "", "PT", "OT "}}
	p.Normalize()

	want := []string{"Speech", "OT", "PT"}
	if !reflect.DeepEqual(p.RelatedServices, want) {
		t.Errorf("RelatedServices = %v, want %v", p.RelatedServices, want)
	}
}

func TestProject_MergeOnlyTouchesPatchedFields(t *testing.T) {
	p := testProject(t)
	before := *p

	patch := map[string]json.RawMessage{
		"goals": json.RawMessage(`"Read 3 passages"`),
	}
	if err := p.Merge(patch); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if p.Goals != "Read 3 passages" {
		t.Errorf("Goals = %q", p.Goals)
	}
	if p.StudentName != before.StudentName || *p.StudentAge != *before.StudentAge ||
		p.GradeLevel != before.GradeLevel || p.PresentLevels != before.PresentLevels {
		t.Error("unpatched fields changed")
	}
	if !reflect.DeepEqual(p.RelatedServices, before.RelatedServices) {
		t.Errorf("RelatedServices changed: %v", p.RelatedServices)
	}
}

func TestProject_MergeIgnoresServerOwnedFields(t *testing.T) {
	p := testProject(t)
	id, owner, created := p.ID, p.User, p.CreatedAt
	other := primitive.NewObjectID().Hex()

	patch := map[string]json.RawMessage{
		"_id":       json.RawMessage(`"` + other + `"`),
		"user":      json.RawMessage(`"` + other + `"`),
		"USER":      json.RawMessage(`"` + other + `"`),
		"createdAt": json.RawMessage(`"2001-01-01T00:00:00Z"`),
		"progress":  json.RawMessage(`"completed"`),
	}
	if err := p.Merge(patch); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if p.ID != id || p.User != owner || !p.CreatedAt.Equal(created) {
		t.Error("server-owned fields were overwritten")
	}
	if p.Progress != ProgressPending {
		t.Errorf("Progress = %q, want pending", p.Progress)
	}
}

func TestProject_MergeTypeMismatch(t *testing.T) {
	p := testProject(t)

	err := p.Merge(map[string]json.RawMessage{"studentAge": json.RawMessage(`"old"`)})
	if !errors.Is(err, ErrInvalidProjectData) {
		t.Fatalf("expected ErrInvalidProjectData, got %v", err)
	}
	if *p.StudentAge != 9 {
		t.Errorf("project changed on failed merge: age %d", *p.StudentAge)
	}
}

func TestProject_ProgressItems(t *testing.T) {
	p := testProject(t)
	now := time.Now().UTC()

	if _, err := p.AddProgressItem("  ", now); !errors.Is(err, ErrProgressTitleRequired) {
		t.Fatalf("expected ErrProgressTitleRequired, got %v", err)
	}

	a, err := p.AddProgressItem("Sight words", now)
	if err != nil {
		t.Fatalf("AddProgressItem: %v", err)
	}
	b, err := p.AddProgressItem("Fluency", now)
	if err != nil {
		t.Fatalf("AddProgressItem: %v", err)
	}
	aID, bID := a.ID, b.ID
	if p.Progress != ProgressPending {
		t.Errorf("Progress = %q, want pending", p.Progress)
	}

	done := ProgressCompleted
	if _, err := p.UpdateProgressItem(aID, nil, &done, now); err != nil {
		t.Fatalf("UpdateProgressItem: %v", err)
	}
	if p.Progress != ProgressInProgress {
		t.Errorf("Progress = %q, want in_progress", p.Progress)
	}
	if p.ProgressItems[0].CompletedAt == nil {
		t.Error("expected CompletedAt on completed item")
	}

	bad := ProgressStatus("finished")
	if _, err := p.UpdateProgressItem(bID, nil, &bad, now); !errors.Is(err, ErrInvalidProgressStatus) {
		t.Errorf("expected ErrInvalidProgressStatus, got %v", err)
	}

	if err := p.RemoveProgressItem(bID, now); err != nil {
		t.Fatalf("RemoveProgressItem: %v", err)
	}
	if p.Progress != ProgressCompleted {
		t.Errorf("Progress = %q, want completed", p.Progress)
	}
	if err := p.RemoveProgressItem(bID, now); !errors.Is(err, ErrProgressItemNotFound) {
		t.Errorf("expected ErrProgressItemNotFound, got %v", err)
	}

	var actions []string
	for _, ev := range p.ProgressHistory {
		actions = append(actions, ev.Action)
	}
	want := "added,added,status_changed,removed"
	if got := strings.Join(actions, ","); got != want {
		t.Errorf("history = %s, want %s", got, want)
	}
}
