package model

import (
	"strings"
	"time"
)

// Priority levels for tasks
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Status is the progress state of a task
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Task represents a single todo item
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CategoryID  string    `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskFields holds everything a caller supplies when creating a task.
// ID and timestamps are assigned by the store.
type TaskFields struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CategoryID  string    `json:"categoryId"`
}

// TaskPatch is a partial update. Nil fields keep their current value.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	CategoryID  *string    `json:"categoryId,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Status == nil && p.CategoryID == nil
}

// Apply merges the patch onto t and returns the result. UpdatedAt is left alone.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	return t
}

// IsCompleted returns true if the task is done
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsOverdue returns true if the task is past its due date and not completed
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != StatusCompleted
}

// IsValid checks if a priority value is known.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Order returns the sort order for a priority (lower = more important).
func (p Priority) Order() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ParsePriority accepts any casing of HIGH, MEDIUM or LOW.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", InvalidValueError{Field: "priority", Value: s, Allowed: "high, medium, low"}
	}
	return p, nil
}

// IsValid checks if a status value is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Label returns a short human readable form of the status.
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "todo"
	case StatusInProgress:
		return "doing"
	case StatusCompleted:
		return "done"
	default:
		return string(s)
	}
}

// Next cycles NOT_STARTED -> IN_PROGRESS -> COMPLETED -> NOT_STARTED.
func (s Status) Next() Status {
	switch s {
	case StatusNotStarted:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusNotStarted
	}
}

// ParseStatus accepts the canonical names in any casing, with dashes or
// spaces instead of underscores, and the short labels todo/doing/done.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "TODO":
		return StatusNotStarted, nil
	case "DOING":
		return StatusInProgress, nil
	case "DONE":
		return StatusCompleted, nil
	}
	st := Status(norm)
	if !st.IsValid() {
		return "", InvalidValueError{Field: "status", Value: s, Allowed: "not_started, in_progress, completed"}
	}
	return st, nil
}
