package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents the kind of account a user holds.
type Role string

const (
	RoleTeacher    Role = "teacher"
	RoleParent     Role = "parent"
	RoleSuperAdmin Role = "superadmin"
)

// User represents a registered account.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"` // Never expose in JSON
	Role         Role               `bson:"role" json:"role"`
	BetaProgram  BetaProgram        `bson:"betaProgram" json:"betaProgram"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewUser creates a new User with a fresh id and initialized timestamps.
func NewUser(name, email string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     NormalizeEmail(email),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsSuperAdmin returns true if the user administers the whole service.
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Profile returns the public view of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseRole converts a string to Role. Unknown values map to RoleTeacher.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleParent:
		return RoleParent
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleTeacher
	}
}

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleTeacher, RoleParent, RoleSuperAdmin:
		return true
	}
	return false
}

// Touch bumps the modification time.
func (u *User) Touch() {
	u.UpdatedAt = time.Now().UTC()
}
