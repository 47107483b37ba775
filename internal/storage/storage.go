// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

// ErrDuplicateEmail is returned when a user is saved with an email that
// already belongs to another account.
var ErrDuplicateEmail = errors.New("email already registered")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate creates tables or indexes the repositories rely on.
	Migrate() error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	Feedback() FeedbackRepository
}

// Page selects a window of a listing. Page numbers start at 1.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of records to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// UserFilter narrows a user listing.
type UserFilter struct {
	Role models.Role
}

// FeedbackFilter narrows a feedback listing. Zero values match everything.
type FeedbackFilter struct {
	User   *primitive.ObjectID
	Type   models.FeedbackType
	Status models.FeedbackStatus
}

// UserRepository defines operations for user accounts.
// Get methods return nil, nil when no user matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter, page Page) ([]*models.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines owner-scoped operations for project records.
// A project that exists but belongs to someone else is reported exactly
// like a missing one.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	// GetForOwner returns nil, nil when the project is missing or not owned.
	GetForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Project, error)
	// ListByOwner returns the owner's projects, most recently updated first.
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]*models.Project, error)
	// Update replaces the stored record. It reports false if no project
	// with that id and owner exists.
	Update(ctx context.Context, project *models.Project) (bool, error)
	// Delete reports false if no project with that id and owner exists.
	Delete(ctx context.Context, id, owner primitive.ObjectID) (bool, error)
}

// FeedbackRepository defines operations for feedback submissions.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.FeedbackStatus) (*models.Feedback, error)
	// List returns matching feedback, newest first, and the total match count.
	List(ctx context.Context, filter FeedbackFilter, page Page) ([]*models.Feedback, int64, error)
}
