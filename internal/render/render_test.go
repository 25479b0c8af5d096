package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/store"
)

// 00:30 so that now+23h still falls on the same calendar day.
var now = time.Date(2026, 10, 18, 0, 30, 0, 0, time.Local)

func TestDueStatusBoundaries(t *testing.T) {
	cases := []struct {
		name string
		due  time.Time
		want models.DueStatus
	}{
		{"one second ago", now.Add(-time.Second), models.DueOverdue},
		{"exactly now", now, models.DueToday},
		{"later today", now.Add(23 * time.Hour), models.DueToday},
		{"tomorrow", now.Add(25 * time.Hour), models.DueThisWeek},
		{"exactly a week", now.Add(7 * 24 * time.Hour), models.DueThisWeek},
		{"eight days", now.Add(8 * 24 * time.Hour), models.DueFuture},
		{"no due date", time.Time{}, models.DueFuture},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DueStatusOf(tc.due, now))
		})
	}
}

func sampleSnapshot() store.Snapshot {
	tasks := []models.Task{
		{Id: 1, Title: "Taxes", Quadrant: models.QuadrantUrgentImportant, DueDate: now.Add(-time.Hour)},
		{Id: 2, Title: "Gym", Quadrant: models.QuadrantNotUrgentImportant, DueDate: now.Add(3 * 24 * time.Hour)},
		{Id: 3, Title: "Call bank", Quadrant: models.QuadrantUrgentImportant, DueDate: now.Add(2 * time.Hour)},
		{Id: 4, Title: "Old mail", Quadrant: models.QuadrantNotUrgentNotImportant, DueDate: now.Add(-48 * time.Hour), Completed: true},
	}
	return store.Snapshot{Cycle: 1, AllTasks: tasks, View: tasks[:3]}
}

func TestRenderKeepsServerOrder(t *testing.T) {
	board := Render(sampleSnapshot(), nil, now)

	require.Len(t, board.Columns, 4)
	first := board.Columns[0]
	assert.Equal(t, models.QuadrantUrgentImportant, first.Quadrant)
	assert.Equal(t, "Do First", first.Title)
	require.Len(t, first.Cards, 2)
	assert.Equal(t, 1, first.Cards[0].ID)
	assert.Equal(t, 3, first.Cards[1].ID)
	assert.Equal(t, models.DueOverdue, first.Cards[0].DueStatus)
	assert.Equal(t, models.DueToday, first.Cards[1].DueStatus)
	assert.Equal(t, "due 1 hour ago", first.Cards[0].DueLabel)

	assert.Len(t, board.Columns[1].Cards, 1)
	assert.Empty(t, board.Columns[2].Cards)
	assert.NotNil(t, board.Columns[2].Cards)
	assert.Equal(t, 3, board.Count())
}

func TestRenderAppliesOverlay(t *testing.T) {
	overlay := map[int]models.Quadrant{1: models.QuadrantUrgentNotImportant}
	board := Render(sampleSnapshot(), overlay, now)

	require.Len(t, board.Columns[0].Cards, 1)
	moved := board.Columns[2].Cards
	require.Len(t, moved, 1)
	assert.Equal(t, 1, moved[0].ID)
	assert.True(t, moved[0].Pending)
}

func TestRenderIsPure(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, Render(snap, nil, now), Render(snap, nil, now))
}

func TestRenderLoadError(t *testing.T) {
	snap := store.Snapshot{Cycle: 2, LoadErr: &client.NetworkError{Op: "list tasks", Err: errors.New("refused")}}
	board := Render(snap, nil, now)

	assert.Equal(t, "Failed to load tasks: Could not reach the server", board.Error)
	assert.Equal(t, 0, board.Count())
}

func TestSummaryCountsOpenTasks(t *testing.T) {
	board := Render(sampleSnapshot(), nil, now)

	// the completed overdue task is not counted
	assert.Equal(t, Summary{Overdue: 1, DueToday: 1, DueThisWeek: 1}, board.Summary)
}

func TestMarkDrag(t *testing.T) {
	board := Render(sampleSnapshot(), nil, now)
	board.MarkDrag(2, models.QuadrantUrgentImportant)

	assert.True(t, board.Columns[0].DragOver)
	assert.False(t, board.Columns[1].DragOver)
	assert.True(t, board.Columns[1].Cards[0].Dragging)
	assert.False(t, board.Columns[0].Cards[0].Dragging)

	board.MarkDrag(0, "")
	assert.False(t, board.Columns[0].DragOver)
	assert.False(t, board.Columns[1].Cards[0].Dragging)
}

func TestWriteBoardPlain(t *testing.T) {
	board := Render(sampleSnapshot(), nil, now)
	board.MarkDrag(0, models.QuadrantNotUrgentImportant)

	var buf bytes.Buffer
	require.NoError(t, WriteBoard(&buf, board, false))
	out := buf.String()

	assert.Contains(t, out, "Do First (urgent-important) [2]")
	assert.Contains(t, out, "Schedule (not-urgent-important) [1] <- drop here")
	assert.Contains(t, out, "#1    Taxes")
	assert.Contains(t, out, "no tasks")
	assert.Contains(t, out, "overdue: 1  due today: 1  this week: 1")
	assert.NotContains(t, out, "\x1b[")
	assert.False(t, ColorEnabled(&buf))
}
