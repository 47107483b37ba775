package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackType categorizes a feedback submission.
type FeedbackType string

const (
	FeedbackGeneral     FeedbackType = "general"
	FeedbackBug         FeedbackType = "bug"
	FeedbackFeature     FeedbackType = "feature"
	FeedbackImprovement FeedbackType = "improvement"
	FeedbackQuestion    FeedbackType = "question"
)

// FeedbackStatus is the triage state set by administrators.
type FeedbackStatus string

const (
	FeedbackPending    FeedbackStatus = "pending"
	FeedbackReviewed   FeedbackStatus = "reviewed"
	FeedbackInProgress FeedbackStatus = "in-progress"
	FeedbackResolved   FeedbackStatus = "resolved"
	FeedbackClosed     FeedbackStatus = "closed"
)

// ValidFeedbackType reports whether s names a known feedback type.
func ValidFeedbackType(s string) bool {
	switch FeedbackType(s) {
	case FeedbackGeneral, FeedbackBug, FeedbackFeature, FeedbackImprovement, FeedbackQuestion:
		return true
	}
	return false
}

// ValidFeedbackStatus reports whether s names a known feedback status.
func ValidFeedbackStatus(s string) bool {
	switch FeedbackStatus(s) {
	case FeedbackPending, FeedbackReviewed, FeedbackInProgress, FeedbackResolved, FeedbackClosed:
		return true
	}
	return false
}

// Feedback is a message submitted by a user about the service.
type Feedback struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User         *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Type         FeedbackType        `bson:"type" json:"type"`
	Rating       *int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Message      string              `bson:"message" json:"message"`
	Email        string              `bson:"email,omitempty" json:"email,omitempty"`
	AllowContact bool                `bson:"allowContact" json:"allowContact"`
	Status       FeedbackStatus      `bson:"status" json:"status"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// NewFeedback creates a pending feedback entry.
func NewFeedback(user *primitive.ObjectID, typ FeedbackType, message string) *Feedback {
	now := time.Now().UTC()
	return &Feedback{
		ID:        primitive.NewObjectID(),
		User:      user,
		Type:      typ,
		Message:   message,
		Status:    FeedbackPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
