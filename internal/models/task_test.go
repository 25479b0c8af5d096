package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuadrant(t *testing.T) {
	q, err := ParseQuadrant(" Urgent-Important ")
	require.NoError(t, err)
	assert.Equal(t, QuadrantUrgentImportant, q)
	assert.Equal(t, "Do First", q.Title())

	_, err = ParseQuadrant("urgent")
	assert.Error(t, err)
}

func TestParseDueInput(t *testing.T) {
	want := time.Date(2026, 10, 20, 14, 30, 0, 0, time.Local)

	for _, in := range []string{"2026-10-20T14:30", "2026-10-20T14:30:00", "2026-10-20 14:30"} {
		got, err := ParseDueInput(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	day, err := ParseDueInput("2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, 20, day.Day())

	_, err = ParseDueInput("next tuesday")
	assert.Error(t, err)
}

func TestTaskPatchIsEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())
	assert.False(t, QuadrantPatch(QuadrantNotUrgentImportant).IsEmpty())
	assert.False(t, CompletedPatch(false).IsEmpty())
}

func TestParseFilterControls(t *testing.T) {
	k, err := ParseFilterKind("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, k)

	_, err = ParseSortField("priority")
	assert.Error(t, err)

	o, err := ParseSortOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, o)
	assert.True(t, TaskQuery{}.IsZero())
}
