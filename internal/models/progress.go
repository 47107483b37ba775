package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProgressItemNotFound  = errors.New("progress item not found")
	ErrProgressTitleRequired = errors.New("progress item title is required")
	ErrInvalidProgressStatus = errors.New("invalid progress status")
)

// ProgressStatus is the state of a progress item or of a whole project.
type ProgressStatus string

const (
	ProgressPending    ProgressStatus = "pending"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressPending, ProgressInProgress, ProgressCompleted:
		return true
	}
	return false
}

// Progress history actions.
const (
	ProgressActionAdded         = "added"
	ProgressActionRenamed       = "renamed"
	ProgressActionStatusChanged = "status_changed"
	ProgressActionRemoved       = "removed"
)

// ProgressItem is one tracked goal or task on a project.
type ProgressItem struct {
	ID          string         `bson:"id" json:"id"`
	Title       string         `bson:"title" json:"title"`
	Status      ProgressStatus `bson:"status" json:"status"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
	CompletedAt *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// ProgressEvent is an entry in a project's append-only progress log.
type ProgressEvent struct {
	Action    string         `bson:"action" json:"action"`
	ItemTitle string         `bson:"itemTitle" json:"itemTitle"`
	Status    ProgressStatus `bson:"status,omitempty" json:"status,omitempty"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
}

// AddProgressItem appends a pending item.
func (p *Project) AddProgressItem(title string, now time.Time) (*ProgressItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrProgressTitleRequired
	}

	p.ProgressItems = append(p.ProgressItems, ProgressItem{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    ProgressPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	p.record(ProgressActionAdded, title, ProgressPending, now)
	p.Progress = p.summarize()
	p.UpdatedAt = now

	return &p.ProgressItems[len(p.ProgressItems)-1], nil
}

// UpdateProgressItem renames an item and/or changes its status. Nil
// arguments leave the corresponding field unchanged.
func (p *Project) UpdateProgressItem(id string, title *string, status *ProgressStatus, now time.Time) (*ProgressItem, error) {
	idx := p.progressIndex(id)
	if idx < 0 {
		return nil, ErrProgressItemNotFound
	}
	if status != nil && !status.Valid() {
		return nil, ErrInvalidProgressStatus
	}
	item := &p.ProgressItems[idx]

	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return nil, ErrProgressTitleRequired
		}
		if t != item.Title {
			item.Title = t
			p.record(ProgressActionRenamed, t, "", now)
		}
	}

	if status != nil && *status != item.Status {
		item.Status = *status
		if *status == ProgressCompleted {
			item.CompletedAt = &now
		} else {
			item.CompletedAt = nil
		}
		p.record(ProgressActionStatusChanged, item.Title, *status, now)
	}

	item.UpdatedAt = now
	p.Progress = p.summarize()
	p.UpdatedAt = now
	return item, nil
}

// RemoveProgressItem deletes an item. The history entry is kept.
func (p *Project) RemoveProgressItem(id string, now time.Time) error {
	idx := p.progressIndex(id)
	if idx < 0 {
		return ErrProgressItemNotFound
	}
	title := p.ProgressItems[idx].Title
	p.ProgressItems = append(p.ProgressItems[:idx], p.ProgressItems[idx+1:]...)
	p.record(ProgressActionRemoved, title, "", now)
	p.Progress = p.summarize()
	p.UpdatedAt = now
	return nil
}

func (p *Project) progressIndex(id string) int {
	for i := range p.ProgressItems {
		if p.ProgressItems[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Project) record(action, title string, status ProgressStatus, now time.Time) {
	p.ProgressHistory = append(p.ProgressHistory, ProgressEvent{
		Action:    action,
		ItemTitle: title,
		Status:    status,
		Timestamp: now,
	})
}

// summarize derives the project-level status from its items: completed when
// every item is done, in progress once any work has started.
func (p *Project) summarize() ProgressStatus {
	if len(p.ProgressItems) == 0 {
		return ProgressPending
	}
	completed := 0
	started := false
	for _, item := range p.ProgressItems {
		switch item.Status {
		case ProgressCompleted:
			completed++
			started = true
		case ProgressInProgress:
			started = true
		}
	}
	switch {
	case completed == len(p.ProgressItems):
		return ProgressCompleted
	case started:
		return ProgressInProgress
	default:
		return ProgressPending
	}
}
