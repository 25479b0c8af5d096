package models

import (
	"fmt"
	"strings"
	"time"
)

type Quadrant string

const (
	QuadrantUrgentImportant       Quadrant = "urgent-important"
	QuadrantNotUrgentImportant    Quadrant = "not-urgent-important"
	QuadrantUrgentNotImportant    Quadrant = "urgent-not-important"
	QuadrantNotUrgentNotImportant Quadrant = "not-urgent-not-important"
)

// AllQuadrants lists the quadrants in display order.
var AllQuadrants = []Quadrant{
	QuadrantUrgentImportant,
	QuadrantNotUrgentImportant,
	QuadrantUrgentNotImportant,
	QuadrantNotUrgentNotImportant,
}

func (q Quadrant) Valid() bool {
	for _, known := range AllQuadrants {
		if q == known {
			return true
		}
	}
	return false
}

func (q Quadrant) Title() string {
	switch q {
	case QuadrantUrgentImportant:
		return "Do First"
	case QuadrantNotUrgentImportant:
		return "Schedule"
	case QuadrantUrgentNotImportant:
		return "Delegate"
	case QuadrantNotUrgentNotImportant:
		return "Eliminate"
	}
	return string(q)
}

func ParseQuadrant(s string) (Quadrant, error) {
	q := Quadrant(strings.ToLower(strings.TrimSpace(s)))
	if !q.Valid() {
		return "", fmt.Errorf("unknown quadrant %q", s)
	}
	return q, nil
}

type DueStatus string

const (
	DueOverdue  DueStatus = "overdue"
	DueToday    DueStatus = "due-today"
	DueThisWeek DueStatus = "due-this-week"
	DueFuture   DueStatus = "future"
)

type Task struct {
	Id          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CategoryID  *int      `json:"category_id,omitempty"`
	Quadrant    Quadrant  `json:"quadrant"`
	DueDate     time.Time `json:"due_date"`
	Completed   bool      `json:"completed"`
	ReminderSet bool      `json:"reminder_set"`
	Tags        []string  `json:"tags,omitempty"`
}

// TaskInput carries the fields of a new task. The backend assigns the id.
type TaskInput struct {
	Title       string
	Description string
	Category    string
	DueDate     time.Time
	Quadrant    Quadrant
	ReminderSet bool
	Tags        []string
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Category    *string
	DueDate     *time.Time
	Quadrant    *Quadrant
	Completed   *bool
	ReminderSet *bool
	Tags        *[]string
}

func QuadrantPatch(q Quadrant) TaskPatch {
	return TaskPatch{Quadrant: &q}
}

func CompletedPatch(completed bool) TaskPatch {
	return TaskPatch{Completed: &completed}
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.DueDate == nil &&
		p.Quadrant == nil && p.Completed == nil && p.ReminderSet == nil && p.Tags == nil
}

// dueInputLayouts are the due date forms accepted from users, most precise
// first. Naive forms are read in the local zone.
var dueInputLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDueInput reads a due date typed by a user or sent by a form.
func ParseDueInput(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dueInputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q, expected YYYY-MM-DD[THH:MM]", s)
}
