package domain

import (
	"time"
)

type IdeaStatus string

const (
	IdeaStatusExploring  IdeaStatus = "exploring"
	IdeaStatusStructured IdeaStatus = "structured"
	IdeaStatusValidated  IdeaStatus = "validated"
)

func ValidIdeaStatus(s string) bool {
	switch IdeaStatus(s) {
	case IdeaStatusExploring, IdeaStatusStructured, IdeaStatusValidated:
		return true
	}
	return false
}

// Idea is a long-lived container for a line of inquiry. Arguments are
// versioned snapshots owned by an Idea; CurrentArgumentID points at the
// focal one. Both sides of the Idea/Argument cycle are opaque ids, never
// object references.
type Idea struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Status            IdeaStatus `json:"status"`
	CurrentArgumentID *string    `json:"current_argument_id,omitempty"`
	ThreadID          *string    `json:"thread_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IdeaUpdate carries the mutable fields of an Idea. Nil means "leave as is".
type IdeaUpdate struct {
	Title             *string
	Status            *IdeaStatus
	ThreadID          *string
	CurrentArgumentID *string
}

// Empty reports whether the update would touch nothing.
func (u IdeaUpdate) Empty() bool {
	return u.Title == nil && u.Status == nil && u.ThreadID == nil && u.CurrentArgumentID == nil
}
