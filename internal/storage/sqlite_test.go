package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "brightminds-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	store := NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func createUser(t *testing.T, store *SQLiteStorage, email string, role models.Role) *models.User {
	t.Helper()
	user := models.NewUser("Test "+email, email, role)
	user.PasswordHash = "hash"
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func newProject(owner primitive.ObjectID, name string) *models.Project {
	age := models.Age(9)
	return models.NewProject(owner, &models.Project{
		StudentName: name,
		StudentAge:  &age,
		GradeLevel:  "3",
	})
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tables := []string{"users", "projects", "feedback", "schema_migrations"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}

	// Running again is a no-op.
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := createUser(t, store, "Ana.Teacher@Example.com", models.RoleTeacher)

	got, err := store.Users().GetByEmail(ctx, "ana.teacher@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("GetByEmail returned %+v", got)
	}

	now := time.Now().UTC()
	got.Name = "Ana T."
	if err := got.BetaProgram.Accept(now); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	got.UpdatedAt = now
	if err := store.Users().Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := store.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Name != "Ana T." || !reloaded.BetaProgram.HasAccepted || reloaded.BetaProgram.AcceptedAt == nil {
		t.Errorf("update not persisted: %+v", reloaded)
	}

	missing, err := store.Users().GetByID(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	createUser(t, store, "dup@example.com", models.RoleTeacher)

	dup := models.NewUser("Other", "DUP@example.com", models.RoleParent)
	dup.PasswordHash = "hash"
	err := store.Users().Create(context.Background(), dup)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_ListByRole(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	createUser(t, store, "t1@example.com", models.RoleTeacher)
	createUser(t, store, "t2@example.com", models.RoleTeacher)
	createUser(t, store, "p1@example.com", models.RoleParent)

	users, total, err := store.Users().List(ctx, UserFilter{Role: models.RoleTeacher}, Page{Number: 1, Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(users) != 1 {
		t.Errorf("len(users) = %d, want 1", len(users))
	}

	all, total, err := store.Users().List(ctx, UserFilter{}, Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("List all: total=%d len=%d, want 3", total, len(all))
	}
}

func TestProjectRepository_OwnerScoping(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", models.RoleTeacher)
	bob := createUser(t, store, "bob@example.com", models.RoleTeacher)

	project := newProject(alice.ID, "Ana")
	project.RelatedServices = []string{"Speech", "OT"}
	if err := store.Projects().Create(ctx, project); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Projects().GetForOwner(ctx, project.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetForOwner: %v", err)
	}
	if got == nil || got.StudentName != "Ana" || len(got.RelatedServices) != 2 {
		t.Fatalf("GetForOwner returned %+v", got)
	}

	other, err := store.Projects().GetForOwner(ctx, project.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetForOwner as other user: %v", err)
	}
	if other != nil {
		t.Error("non-owner must not see the project")
	}

	// Update and delete are scoped too.
	stolen := *got
	stolen.User = bob.ID
	ok, err := store.Projects().Update(ctx, &stolen)
	if err != nil {
		t.Fatalf("Update as other user: %v", err)
	}
	if ok {
		t.Error("update by non-owner should match nothing")
	}

	ok, err = store.Projects().Delete(ctx, project.ID, bob.ID)
	if err != nil || ok {
		t.Errorf("Delete by non-owner: ok=%v err=%v", ok, err)
	}

	ok, err = store.Projects().Delete(ctx, project.ID, alice.ID)
	if err != nil || !ok {
		t.Errorf("Delete by owner: ok=%v err=%v", ok, err)
	}
}

func TestProjectRepository_ListOrder(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := createUser(t, store, "owner@example.com", models.RoleTeacher)
	base := time.Now().UTC()

	names := []string{"First", "Second", "Third"}
	var created []*models.Project
	for i, name := range names {
		p := newProject(owner.ID, name)
		p.UpdatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.Projects().Create(ctx, p); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		created = append(created, p)
	}

	// Touch the oldest so it moves to the front.
	first := created[0]
	first.UpdatedAt = base.Add(time.Minute)
	if ok, err := store.Projects().Update(ctx, first); err != nil || !ok {
		t.Fatalf("Update: ok=%v err=%v", ok, err)
	}

	list, err := store.Projects().ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	want := []string{"First", "Third", "Second"}
	if len(list) != len(want) {
		t.Fatalf("len = %d, want %d", len(list), len(want))
	}
	for i, p := range list {
		if p.StudentName != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, p.StudentName, want[i])
		}
	}
}

func TestFeedbackRepository_ListAndStatus(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := createUser(t, store, "fb@example.com", models.RoleParent)
	rating := 4

	bug := models.NewFeedback(&user.ID, models.FeedbackBug, "The save button does nothing")
	bug.Rating = &rating
	if err := store.Feedback().Create(ctx, bug); err != nil {
		t.Fatalf("Create bug: %v", err)
	}
	anon := models.NewFeedback(nil, models.FeedbackFeature, "Please add a calendar view")
	anon.Email = "someone@example.com"
	if err := store.Feedback().Create(ctx, anon); err != nil {
		t.Fatalf("Create anon: %v", err)
	}

	mine, total, err := store.Feedback().List(ctx, FeedbackFilter{User: &user.ID}, Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List mine: %v", err)
	}
	if total != 1 || len(mine) != 1 || mine[0].Rating == nil || *mine[0].Rating != 4 {
		t.Fatalf("List mine returned total=%d %+v", total, mine)
	}

	updated, err := store.Feedback().UpdateStatus(ctx, anon.ID, models.FeedbackResolved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated == nil || updated.Status != models.FeedbackResolved || updated.Email != "someone@example.com" {
		t.Fatalf("UpdateStatus returned %+v", updated)
	}

	resolved, total, err := store.Feedback().List(ctx, FeedbackFilter{Status: models.FeedbackResolved}, Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List resolved: %v", err)
	}
	if total != 1 || resolved[0].ID != anon.ID || resolved[0].User != nil {
		t.Errorf("List resolved returned total=%d %+v", total, resolved)
	}

	missing, err := store.Feedback().UpdateStatus(ctx, primitive.NewObjectID(), models.FeedbackClosed)
	if err != nil || missing != nil {
		t.Errorf("UpdateStatus missing: %+v %v", missing, err)
	}
}
