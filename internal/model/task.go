package model

import (
	"time"
)

const (
	TaskPriorityHigh   = "High"
	TaskPriorityMedium = "Medium"
	TaskPriorityLow    = "Low"
)

const (
	TaskStatusIncomplete = "Incomplete"
	TaskStatusComplete   = "Complete"
)

const (
	TaskFilterAll        = "all"
	TaskFilterIncomplete = "incomplete"
	TaskFilterComplete   = "complete"
	TaskFilterOverdue    = "overdue"
)

type Task struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	Title        string     `db:"title" json:"title"`
	Description  *string    `db:"description" json:"description"`
	Deadline     *time.Time `db:"deadline" json:"deadline"`
	Priority     string     `db:"priority" json:"priority"`
	Status       string     `db:"status" json:"status"`
	AISuggestion *string    `db:"ai_suggestion" json:"aiSuggestion"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// TaskCounts is the dashboard aggregate over a set of tasks.
type TaskCounts struct {
	All        int `json:"all"`
	Incomplete int `json:"incomplete"`
	Complete   int `json:"complete"`
	Overdue    int `json:"overdue"`
}

func (t *Task) IsComplete() bool {
	return t.Status == TaskStatusComplete
}

// IsOverdue is derived, never stored: a past deadline on an incomplete task.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && !t.IsComplete()
}

func (t *Task) HasSuggestion() bool {
	return t.AISuggestion != nil && *t.AISuggestion != ""
}

// MatchesFilter reports whether the task belongs in the given dashboard filter.
func (t *Task) MatchesFilter(filter string, now time.Time) bool {
	switch filter {
	case TaskFilterIncomplete:
		return !t.IsComplete()
	case TaskFilterComplete:
		return t.IsComplete()
	case TaskFilterOverdue:
		return t.IsOverdue(now)
	default:
		return true
	}
}

func IsValidPriority(p string) bool {
	return p == TaskPriorityHigh || p == TaskPriorityMedium || p == TaskPriorityLow
}

func IsValidStatus(s string) bool {
	return s == TaskStatusIncomplete || s == TaskStatusComplete
}

func IsValidFilter(f string) bool {
	switch f {
	case TaskFilterAll, TaskFilterIncomplete, TaskFilterComplete, TaskFilterOverdue:
		return true
	}
	return false
}

// TaskPatch carries a partial update. Only fields present in the request are applied.
type TaskPatch struct {
	Title       Nullable[string]    `json:"title"`
	Description Nullable[string]    `json:"description"`
	Deadline    Nullable[time.Time] `json:"deadline"`
	Priority    Nullable[string]    `json:"priority"`
	Status      Nullable[string]    `json:"status"`
}

func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Deadline.Set && !p.Priority.Set && !p.Status.Set
}

// Apply merges the patch over t in place.
func (p TaskPatch) Apply(t *Task) {
	if p.Title.Set && p.Title.Value != nil {
		t.Title = *p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Deadline.Set {
		t.Deadline = p.Deadline.Value
	}
	if p.Priority.Set && p.Priority.Value != nil {
		t.Priority = *p.Priority.Value
	}
	if p.Status.Set && p.Status.Value != nil {
		t.Status = *p.Status.Value
	}
}
