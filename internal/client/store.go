// Package client is a Go client for the BrightMinds API. It keeps the
// signed-in session and the records a front end works with in a Store and
// injects the bearer token into every request.
package client

import (
	"errors"
	"log"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

// ErrBusy is returned when an analysis is already being generated or saved.
var ErrBusy = errors.New("an analysis is already in progress")

// Phase is the state of the generate-then-save sequence.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseSaving     Phase = "saving"
)

// AuthState is the signed-in session.
type AuthState struct {
	Token           string
	User            *models.UserProfile
	IsAuthenticated bool
	Role            models.Role
	Error           string
}

// BetaState holds the last known beta program responses.
type BetaState struct {
	Status *models.BetaProgram
	Error  string
}

// RecordsState holds a list of projects or child profiles.
type RecordsState struct {
	Items   []*models.Project
	Current *models.Project
	Phase   Phase
	Error   string
}

// Store holds client state. All access goes through its methods.
type Store struct {
	mu       sync.RWMutex
	auth     AuthState
	beta     BetaState
	projects RecordsState
	children RecordsState

	sessionPath string
}

// NewStore creates an empty store. When sessionPath is set the auth slice
// is restored from it and written back on every change.
func NewStore(sessionPath string) (*Store, error) {
	s := &Store{
		sessionPath: sessionPath,
		projects:    RecordsState{Phase: PhaseIdle},
		children:    RecordsState{Phase: PhaseIdle},
	}
	if sessionPath == "" {
		return s, nil
	}

	sess, err := LoadSession(sessionPath)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		s.auth = sess.authState()
	}
	return s, nil
}

// Auth returns a copy of the auth slice.
func (s *Store) Auth() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.auth
	if a.User != nil {
		u := *a.User
		a.User = &u
	}
	return a
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth.Token
}

// SetAuth records a successful sign-in.
func (s *Store) SetAuth(token string, user models.UserProfile) {
	s.mu.Lock()
	s.auth = AuthState{
		Token:           token,
		User:            &user,
		IsAuthenticated: true,
		Role:            user.Role,
	}
	s.mu.Unlock()
	s.persist()
}

// SetUser replaces the signed-in user's profile.
func (s *Store) SetUser(user models.UserProfile) {
	s.mu.Lock()
	s.auth.User = &user
	s.auth.Role = user.Role
	s.mu.Unlock()
	s.persist()
}

// SetAuthError records a failed sign-in attempt.
func (s *Store) SetAuthError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth.Error = msg
}

// ClearAuth signs out and drops everything that belonged to the session.
func (s *Store) ClearAuth() {
	s.mu.Lock()
	s.auth = AuthState{}
	s.beta = BetaState{}
	s.projects = RecordsState{Phase: PhaseIdle}
	s.children = RecordsState{Phase: PhaseIdle}
	s.mu.Unlock()
	s.persist()
}

// Beta returns a copy of the beta slice.
func (s *Store) Beta() BetaState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.beta
	if b.Status != nil {
		st := *b.Status
		b.Status = &st
	}
	return b
}

// SetBeta stores the latest beta program responses.
func (s *Store) SetBeta(status models.BetaProgram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beta = BetaState{Status: &status}
}

// SetBetaError records a failed beta call.
func (s *Store) SetBetaError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beta.Error = msg
}

// Projects returns a copy of the projects slice.
func (s *Store) Projects() RecordsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.clone()
}

// Children returns a copy of the child profiles slice.
func (s *Store) Children() RecordsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.children.clone()
}

// BeginGenerate moves the project slice from idle to generating.
func (s *Store) BeginGenerate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projects.Phase != PhaseIdle {
		return ErrBusy
	}
	s.projects.Phase = PhaseGenerating
	s.projects.Error = ""
	return nil
}

// BeginSave moves the project slice from generating to saving.
func (s *Store) BeginSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects.Phase = PhaseSaving
}

// FinishAnalysis returns the project slice to idle, recording err if set.
func (s *Store) FinishAnalysis(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects.Phase = PhaseIdle
	if err != nil {
		s.projects.Error = err.Error()
	}
}

func (s *Store) records(kind Kind) *RecordsState {
	if kind == KindChildren {
		return &s.children
	}
	return &s.projects
}

func (s *Store) setRecords(kind Kind, items []*models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.records(kind)
	rs.Items = items
	rs.Error = ""
}

func (s *Store) setCurrent(kind Kind, p *models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records(kind).Current = p
}

// prependRecord puts a newly created record first, matching server order.
func (s *Store) prependRecord(kind Kind, p *models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.records(kind)
	rs.Items = append([]*models.Project{p}, rs.Items...)
	rs.Current = p
}

func (s *Store) replaceRecord(kind Kind, p *models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.records(kind)
	for i, item := range rs.Items {
		if item.ID == p.ID {
			rs.Items[i] = p
		}
	}
	if rs.Current != nil && rs.Current.ID == p.ID {
		rs.Current = p
	}
}

func (s *Store) removeRecord(kind Kind, id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.records(kind)
	kept := rs.Items[:0]
	for _, item := range rs.Items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	rs.Items = kept
	if rs.Current != nil && rs.Current.ID == id {
		rs.Current = nil
	}
}

func (s *Store) setRecordsError(kind Kind, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records(kind).Error = msg
}

func (s *Store) persist() {
	if s.sessionPath == "" {
		return
	}
	s.mu.RLock()
	sess := sessionFrom(s.auth)
	s.mu.RUnlock()

	if err := SaveSession(s.sessionPath, sess); err != nil {
		log.Printf("client: save session: %v", err)
	}
}

func (rs RecordsState) clone() RecordsState {
	out := rs
	out.Items = make([]*models.Project, len(rs.Items))
	copy(out.Items, rs.Items)
	return out
}
