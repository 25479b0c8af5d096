// Package render derives the displayed board from a store snapshot.
// Everything here is pure: the same inputs always give the same board.
package render

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/store"
)

type Card struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	DueDate     time.Time        `json:"due_date"`
	DueLabel    string           `json:"due_label"`
	DueStatus   models.DueStatus `json:"due_status"`
	Completed   bool             `json:"completed"`
	Tags        []string         `json:"tags,omitempty"`
	// Pending is set when the card sits in a quadrant the server has not
	// confirmed yet.
	Pending  bool `json:"pending,omitempty"`
	Dragging bool `json:"dragging,omitempty"`
}

type Column struct {
	Quadrant models.Quadrant `json:"quadrant"`
	Title    string          `json:"title"`
	Cards    []Card          `json:"cards"`
	DragOver bool            `json:"drag_over"`
}

type Summary struct {
	Overdue     int `json:"overdue"`
	DueToday    int `json:"due_today"`
	DueThisWeek int `json:"due_this_week"`
}

type Board struct {
	Columns   []Column  `json:"quadrants"`
	Summary   Summary   `json:"summary"`
	Cycle     uint64    `json:"cycle"`
	FetchedAt time.Time `json:"fetched_at"`
	Error     string    `json:"error,omitempty"`
	// Unplaced holds view tasks whose quadrant is not one of the four.
	Unplaced []Card `json:"unplaced,omitempty"`
}

// DueStatusOf classifies due relative to now. A zero due date counts as
// future.
func DueStatusOf(due, now time.Time) models.DueStatus {
	if due.IsZero() {
		return models.DueFuture
	}
	if due.Before(now) {
		return models.DueOverdue
	}
	if sameDay(due, now) {
		return models.DueToday
	}
	if !due.After(now.Add(7 * 24 * time.Hour)) {
		return models.DueThisWeek
	}
	return models.DueFuture
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dueLabel(due, now time.Time) string {
	if due.IsZero() {
		return "no due date"
	}
	return "due " + humanize.RelTime(due, now, "ago", "from now")
}

func cardFor(t models.Task, now time.Time) Card {
	return Card{
		ID:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		DueDate:     t.DueDate,
		DueLabel:    dueLabel(t.DueDate, now),
		DueStatus:   DueStatusOf(t.DueDate, now),
		Completed:   t.Completed,
		Tags:        t.Tags,
	}
}

// Render builds the board from the snapshot's filtered view, keeping the
// backend's order inside each quadrant. Overlay moves are applied on top.
func Render(snap store.Snapshot, overlay map[int]models.Quadrant, now time.Time) Board {
	board := Board{
		Columns:   make([]Column, len(models.AllQuadrants)),
		Cycle:     snap.Cycle,
		FetchedAt: snap.FetchedAt,
	}
	index := make(map[models.Quadrant]int, len(models.AllQuadrants))
	for i, q := range models.AllQuadrants {
		board.Columns[i] = Column{Quadrant: q, Title: q.Title(), Cards: []Card{}}
		index[q] = i
	}

	if snap.LoadErr != nil {
		board.Error = "Failed to load tasks: " + client.UserMessage(snap.LoadErr, "please try again")
		return board
	}

	for _, t := range snap.View {
		card := cardFor(t, now)
		q := t.Quadrant
		if moved, ok := overlay[t.Id]; ok && moved != q {
			q = moved
			card.Pending = true
		}
		i, ok := index[q]
		if !ok {
			board.Unplaced = append(board.Unplaced, card)
			continue
		}
		board.Columns[i].Cards = append(board.Columns[i].Cards, card)
	}

	board.Summary = Summarize(snap.AllTasks, now)
	return board
}

// MarkDrag flags the dragged card and the hovered quadrant. A zero taskID or
// empty target leaves the respective marker unset.
func (b *Board) MarkDrag(taskID int, target models.Quadrant) {
	for i := range b.Columns {
		col := &b.Columns[i]
		col.DragOver = target != "" && col.Quadrant == target
		for j := range col.Cards {
			col.Cards[j].Dragging = taskID != 0 && col.Cards[j].ID == taskID
		}
	}
}

// Summarize counts the open tasks that are overdue, due today and due later
// this week.
func Summarize(tasks []models.Task, now time.Time) Summary {
	var s Summary
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		switch DueStatusOf(t.DueDate, now) {
		case models.DueOverdue:
			s.Overdue++
		case models.DueToday:
			s.DueToday++
		case models.DueThisWeek:
			s.DueThisWeek++
		}
	}
	return s
}

// Count returns the number of cards on the board.
func (b Board) Count() int {
	n := len(b.Unplaced)
	for _, col := range b.Columns {
		n += len(col.Cards)
	}
	return n
}
