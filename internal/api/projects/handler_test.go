package projects

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/api/middleware"
	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/storage"
)

// Mock repositories
type mockProjectRepository struct {
	projects    map[primitive.ObjectID]*models.Project
	createError error
	getError    error
	updateError error
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if m.createError != nil {
		return m.createError
	}
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepository) GetForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Project, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.projects[id]
	if !ok || p.User != owner {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProjectRepository) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range m.projects {
		if p.User == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) (bool, error) {
	if m.updateError != nil {
		return false, m.updateError
	}
	existing, ok := m.projects[project.ID]
	if !ok || existing.User != project.User {
		return false, nil
	}
	m.projects[project.ID] = project
	return true, nil
}

func (m *mockProjectRepository) Delete(ctx context.Context, id, owner primitive.ObjectID) (bool, error) {
	p, ok := m.projects[id]
	if !ok || p.User != owner {
		return false, nil
	}
	delete(m.projects, id)
	return true, nil
}

type mockStorage struct {
	projects *mockProjectRepository
}

func (m *mockStorage) Open() error { return nil }
func (m *mockStorage) Close() error { return nil }
func (m *mockStorage) Migrate() error { return nil }
func (m *mockStorage) Ping(ctx context.Context) error { return nil }
func (m *mockStorage) Users() storage.UserRepository { return nil }
func (m *mockStorage) Projects() storage.ProjectRepository { return m.projects }
func (m *mockStorage) Feedback() storage.FeedbackRepository { return nil }

func newMockStorage() (*mockStorage, *mockProjectRepository) {
	repo := &mockProjectRepository{projects: make(map[primitive.ObjectID]*models.Project)}
	return &mockStorage{projects: repo}, repo
}

// newRequest builds a request as the given user with chi URL params set.
func newRequest(method, target, body string, user *models.User, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithUser(req.Context(), user)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func seedProject(repo *mockProjectRepository, owner *models.User, name string) *models.Project {
	age := models.Age(8)
	p := models.NewProject(owner.ID, &models.Project{
		StudentName: name,
		StudentAge:  &age,
		GradeLevel:  "3rd grade",
		Goals:       "read fluently",
		Notes:       "keep me",
	})
	repo.projects[p.ID] = p
	return p
}

func decodeProjectBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCreate_Success(t *testing.T) {
	store, repo := newMockStorage()
	owner := models.NewUser("Teacher", "t@example.com", models.RoleTeacher)
	handler := NewHandler(store, ProjectLabels)

	body := `{"studentName":" Ana ","studentAge":"8","gradeLevel":"3rd grade","user":"000000000000000000000000","relatedServices":["Speech"," Speech","OT"]}`
	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest("POST", "/api/v1/projects", body, owner, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	resp := decodeProjectBody(t, rec)
	if resp["id"] != resp["_id"] || resp["id"] == "" {
		t.Errorf("id alias = %v, _id = %v", resp["id"], resp["_id"])
	}
	if resp["user"] != owner.ID.Hex() {
		t.Errorf("user = %v, want caller %s", resp["user"], owner.ID.Hex())
	}
	if resp["studentName"] != "Ana" {
		t.Errorf("studentName = %v", resp["studentName"])
	}
	if services, _ := resp["relatedServices"].([]any); len(services) != 2 {
		t.Errorf("relatedServices = %v, want de-duplicated", resp["relatedServices"])
	}
	if len(repo.projects) != 1 {
		t.Errorf("stored %d projects, want 1", len(repo.projects))
	}
}

func TestCreate_Invalid(t *testing.T) {
	owner := models.NewUser("Teacher", "t@example.com", models.RoleTeacher)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"studentName":`},
		{"missing name", `{"studentAge":8,"gradeLevel":"3"}`},
		{"blank grade", `{"studentName":"Ana","studentAge":8,"gradeLevel":"  "}`},
		{"missing age", `{"studentName":"Ana","gradeLevel":"3"}`},
		{"age not numeric", `{"studentName":"Ana","studentAge":"eight","gradeLevel":"3"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, repo := newMockStorage()
			rec := httptest.NewRecorder()
			NewHandler(store, ProjectLabels).Create(rec, newRequest("POST", "/", tc.body, owner, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if resp := decodeProjectBody(t, rec); resp["message"] != "Invalid project data" {
				t.Errorf("message = %v", resp["message"])
			}
			if len(repo.projects) != 0 {
				t.Error("invalid project was stored")
			}
		})
	}
}

func TestGet_OwnerScoped(t *testing.T) {
	store, repo := newMockStorage()
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)
	other := models.NewUser("B", "b@example.com", models.RoleTeacher)
	p := seedProject(repo, owner, "Ana")
	handler := NewHandler(store, ProjectLabels)

	tests := []struct {
		name     string
		user     *models.User
		id       string
		wantCode int
	}{
		{"owner", owner, p.ID.Hex(), http.StatusOK},
		{"other user", other, p.ID.Hex(), http.StatusNotFound},
		{"unknown id", owner, primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"malformed id", owner, "not-an-id", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Get(rec, newRequest("GET", "/", "", tc.user, map[string]string{"id": tc.id}))
			if rec.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}

func TestUpdate_ShallowMerge(t *testing.T) {
	store, repo := newMockStorage()
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)
	p := seedProject(repo, owner, "Ana")
	handler := NewHandler(store, ProjectLabels)

	body := `{"goals":"write a paragraph","user":"` + primitive.NewObjectID().Hex() + `"}`
	rec := httptest.NewRecorder()
	handler.Update(rec, newRequest("PUT", "/", body, owner, map[string]string{"id": p.ID.Hex()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	stored := repo.projects[p.ID]
	if stored.Goals != "write a paragraph" {
		t.Errorf("goals = %q", stored.Goals)
	}
	if stored.Notes != "keep me" || stored.StudentName != "Ana" {
		t.Errorf("untouched fields changed: %+v", stored)
	}
	if stored.User != owner.ID {
		t.Error("owner must not change on update")
	}
	if stored.UpdatedAt.Before(p.CreatedAt) {
		t.Error("updatedAt went backwards")
	}
}

func TestUpdate_Rejects(t *testing.T) {
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)
	other := models.NewUser("B", "b@example.com", models.RoleTeacher)

	tests := []struct {
		name     string
		user     *models.User
		body     string
		wantCode int
	}{
		{"not owner", other, `{"goals":"x"}`, http.StatusNotFound},
		{"type mismatch", owner, `{"studentAge":{"years":8}}`, http.StatusBadRequest},
		{"blanked required field", owner, `{"studentName":""}`, http.StatusBadRequest},
		{"not an object", owner, `["goals"]`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, repo := newMockStorage()
			p := seedProject(repo, owner, "Ana")

			rec := httptest.NewRecorder()
			NewHandler(store, ProjectLabels).Update(rec, newRequest("PUT", "/", tc.body, tc.user, map[string]string{"id": p.ID.Hex()}))

			if rec.Code != tc.wantCode {
				t.Errorf("status = %d, want %d: %s", rec.Code, tc.wantCode, rec.Body.String())
			}
			if repo.projects[p.ID].StudentName != "Ana" {
				t.Error("stored project changed on rejected update")
			}
		})
	}
}

func TestDelete(t *testing.T) {
	store, repo := newMockStorage()
	owner := models.NewUser("Parent", "p@example.com", models.RoleParent)
	other := models.NewUser("B", "b@example.com", models.RoleParent)
	p := seedProject(repo, owner, "Sam")
	handler := NewHandler(store, ChildLabels)

	rec := httptest.NewRecorder()
	handler.Delete(rec, newRequest("DELETE", "/", "", other, map[string]string{"id": p.ID.Hex()}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-owner delete status = %d", rec.Code)
	}
	if resp := decodeProjectBody(t, rec); resp["message"] != "Child profile not found" {
		t.Errorf("message = %v", resp["message"])
	}

	rec = httptest.NewRecorder()
	handler.Delete(rec, newRequest("DELETE", "/", "", owner, map[string]string{"id": p.ID.Hex()}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeProjectBody(t, rec); resp["message"] != "Child profile removed" {
		t.Errorf("message = %v", resp["message"])
	}
	if len(repo.projects) != 0 {
		t.Error("project not deleted")
	}
}

func TestList_OnlyOwn(t *testing.T) {
	store, repo := newMockStorage()
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)
	other := models.NewUser("B", "b@example.com", models.RoleTeacher)
	seedProject(repo, owner, "Ana")
	seedProject(repo, other, "Ben")

	rec := httptest.NewRecorder()
	NewHandler(store, ProjectLabels).List(rec, newRequest("GET", "/", "", owner, nil))

	var resp []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0]["studentName"] != "Ana" {
		t.Errorf("list = %v", resp)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	store, _ := newMockStorage()
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)

	rec := httptest.NewRecorder()
	NewHandler(store, ProjectLabels).List(rec, newRequest("GET", "/", "", owner, nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestStorageError_Opaque(t *testing.T) {
	store, repo := newMockStorage()
	repo.getError = errors.New("dial tcp 10.0.0.5:27017: connection refused")
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)

	rec := httptest.NewRecorder()
	NewHandler(store, ProjectLabels).Get(rec, newRequest("GET", "/", "", owner, map[string]string{"id": primitive.NewObjectID().Hex()}))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestProgressItems(t *testing.T) {
	store, repo := newMockStorage()
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)
	p := seedProject(repo, owner, "Ana")
	handler := NewHandler(store, ProjectLabels)
	params := map[string]string{"id": p.ID.Hex()}

	rec := httptest.NewRecorder()
	handler.AddProgressItem(rec, newRequest("POST", "/", `{"title":"Sight words"}`, owner, params))
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	items := repo.projects[p.ID].ProgressItems
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
	itemID := items[0].ID

	rec = httptest.NewRecorder()
	handler.UpdateProgressItem(rec, newRequest("PUT", "/", `{"status":"completed"}`, owner,
		map[string]string{"id": p.ID.Hex(), "itemId": itemID}))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := repo.projects[p.ID].Progress; got != models.ProgressCompleted {
		t.Errorf("progress = %q, want completed", got)
	}

	rec = httptest.NewRecorder()
	handler.UpdateProgressItem(rec, newRequest("PUT", "/", `{"status":"done"}`, owner,
		map[string]string{"id": p.ID.Hex(), "itemId": itemID}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.DeleteProgressItem(rec, newRequest("DELETE", "/", "", owner,
		map[string]string{"id": p.ID.Hex(), "itemId": "missing"}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing item code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.DeleteProgressItem(rec, newRequest("DELETE", "/", "", owner,
		map[string]string{"id": p.ID.Hex(), "itemId": itemID}))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	history := repo.projects[p.ID].ProgressHistory
	if len(history) != 3 || history[2].Action != models.ProgressActionRemoved {
		t.Errorf("history = %+v", history)
	}
}

func TestAddProgressItem_TitleRequired(t *testing.T) {
	store, repo := newMockStorage()
	owner := models.NewUser("A", "a@example.com", models.RoleTeacher)
	p := seedProject(repo, owner, "Ana")

	rec := httptest.NewRecorder()
	NewHandler(store, ProjectLabels).AddProgressItem(rec, newRequest("POST", "/", `{"title":"  "}`, owner,
		map[string]string{"id": p.ID.Hex()}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
