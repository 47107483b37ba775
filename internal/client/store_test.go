package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

func TestStore_SessionPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brightminds", "session.yaml")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	user := models.UserProfile{ID: primitive.NewObjectID().Hex(), Name: "Ms Rivera", Email: "r@example.com", Role: models.RoleTeacher}
	store.SetAuth("tok-123", user)
	store.SetBeta(models.BetaProgram{HasAccepted: true})
	store.prependRecord(KindProjects, &models.Project{ID: primitive.NewObjectID(), StudentName: "Ana"})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session perms = %o, want 600", perm)
	}

	data, _ := os.ReadFile(path)
	for _, leaked := range []string{"Ana", "hasAccepted"} {
		if strings.Contains(string(data), leaked) {
			t.Errorf("session file contains %q:\n%s", leaked, data)
		}
	}

	restored, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore restore: %v", err)
	}
	a := restored.Auth()
	if !a.IsAuthenticated || a.Token != "tok-123" || a.Role != models.RoleTeacher || a.User == nil || a.User.Email != user.Email {
		t.Errorf("restored auth = %+v", a)
	}
	if restored.Beta().Status != nil || len(restored.Projects().Items) != 0 {
		t.Error("non-auth slices should not be restored")
	}

	restored.ClearAuth()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file should be removed on sign out, stat err = %v", err)
	}
}

func TestLoadSession_Missing(t *testing.T) {
	sess, err := LoadSession(filepath.Join(t.TempDir(), "none.yaml"))
	if sess != nil || err != nil {
		t.Errorf("LoadSession = %v, %v", sess, err)
	}
}

func TestLoadSession_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	os.WriteFile(path, []byte("token: [unterminated"), 0o600)
	if _, err := NewStore(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestStore_CopiesAreIndependent(t *testing.T) {
	store, _ := NewStore("")
	store.SetAuth("tok", models.UserProfile{Name: "A"})

	a := store.Auth()
	a.User.Name = "changed"
	if store.Auth().User.Name != "A" {
		t.Error("Auth() leaked internal user")
	}

	p1 := &models.Project{ID: primitive.NewObjectID()}
	p2 := &models.Project{ID: primitive.NewObjectID()}
	store.prependRecord(KindChildren, p1)
	store.prependRecord(KindChildren, p2)

	items := store.Children().Items
	items[0] = nil
	if store.Children().Items[0] != p2 {
		t.Error("Children() leaked internal slice")
	}

	store.removeRecord(KindChildren, p2.ID)
	state := store.Children()
	if len(state.Items) != 1 || state.Items[0] != p1 || state.Current != nil {
		t.Errorf("after remove = %+v", state)
	}
}

func TestStore_Phases(t *testing.T) {
	store, _ := NewStore("")
	if err := store.BeginGenerate(); err != nil {
		t.Fatalf("BeginGenerate: %v", err)
	}
	if err := store.BeginGenerate(); err != ErrBusy {
		t.Errorf("second BeginGenerate = %v", err)
	}
	store.BeginSave()
	if err := store.BeginGenerate(); err != ErrBusy {
		t.Errorf("BeginGenerate while saving = %v", err)
	}
	store.FinishAnalysis(nil)
	if store.Projects().Phase != PhaseIdle {
		t.Error("not idle after finish")
	}
}
