package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/eisenhower-matrix/internal/models"
)

func recordChanges(s *State) *[]models.TaskQuery {
	var got []models.TaskQuery
	s.OnChange(func(q models.TaskQuery) { got = append(got, q) })
	return &got
}

func TestDefaults(t *testing.T) {
	q := New().Query()

	assert.Equal(t, models.FilterAll, q.Filter)
	assert.Equal(t, models.SortByDueDate, q.SortBy)
	assert.Equal(t, models.SortAsc, q.SortOrder)
	require.NotNil(t, q.ShowCompleted)
	assert.True(t, *q.ShowCompleted)
	assert.Empty(t, q.Categories)
}

func TestSettersFireOnChange(t *testing.T) {
	s := New()
	got := recordChanges(s)

	s.SetSearch("  report ")
	require.NoError(t, s.SetFilter("overdue"))
	require.NoError(t, s.SetSortBy("title"))
	require.NoError(t, s.SetSortOrder("desc"))
	s.SetShowCompleted(false)

	require.Len(t, *got, 5)
	last := (*got)[4]
	assert.Equal(t, "report", last.Search)
	assert.Equal(t, models.FilterOverdue, last.Filter)
	assert.Equal(t, models.SortByTitle, last.SortBy)
	assert.Equal(t, models.SortDesc, last.SortOrder)
	assert.False(t, *last.ShowCompleted)
}

func TestUnchangedValueDoesNotFire(t *testing.T) {
	s := New()
	got := recordChanges(s)

	s.SetSearch("")
	require.NoError(t, s.SetFilter("all"))
	s.SetShowCompleted(true)
	s.SetCategories(nil)

	assert.Empty(t, *got)
}

func TestInvalidEnumRejected(t *testing.T) {
	s := New()
	got := recordChanges(s)

	assert.Error(t, s.SetFilter("someday"))
	assert.Error(t, s.SetSortBy("priority"))
	assert.Error(t, s.SetSortOrder("sideways"))

	assert.Empty(t, *got)
	assert.Equal(t, models.FilterAll, s.Query().Filter)
}

func TestToggleCategory(t *testing.T) {
	s := New()
	got := recordChanges(s)

	s.ToggleCategory(3)
	s.ToggleCategory(1)
	assert.Equal(t, []int{1, 3}, s.Query().Categories)

	s.ToggleCategory(3)
	assert.Equal(t, []int{1}, s.Query().Categories)
	assert.Len(t, *got, 3)
}

func TestDateRange(t *testing.T) {
	s := New()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(2026, 10, 31, 0, 0, 0, 0, time.Local)

	require.NoError(t, s.SetDateRange(&from, &to))
	q := s.Query()
	require.NotNil(t, q.DateFrom)
	assert.True(t, q.DateFrom.Equal(from))

	assert.Error(t, s.SetDateRange(&to, &from))
	assert.True(t, s.Query().DateTo.Equal(to))
}

func TestApplyFiresOnce(t *testing.T) {
	s := New()
	got := recordChanges(s)

	err := s.Apply(Settings{
		Search:        "tax",
		Filter:        "week",
		DateFrom:      "2026-10-01",
		Categories:    []int{2, 2, 5},
		ShowCompleted: false,
		SortBy:        "category",
		SortOrder:     "desc",
	})
	require.NoError(t, err)
	require.Len(t, *got, 1)

	settings := s.Settings()
	assert.Equal(t, "tax", settings.Search)
	assert.Equal(t, "week", settings.Filter)
	assert.Equal(t, "2026-10-01", settings.DateFrom)
	assert.Empty(t, settings.DateTo)
	assert.Equal(t, []int{2, 5}, settings.Categories)
	assert.Equal(t, "category", settings.SortBy)

	require.NoError(t, s.Apply(settings))
	assert.Len(t, *got, 1, "re-applying the same settings is not a change")
}

func TestApplyRejectsInvalidWithoutChanging(t *testing.T) {
	s := New()
	got := recordChanges(s)

	assert.Error(t, s.Apply(Settings{Filter: "soon"}))
	assert.Error(t, s.Apply(Settings{DateFrom: "10/01/2026"}))
	assert.Error(t, s.Apply(Settings{DateFrom: "2026-10-05", DateTo: "2026-10-01"}))

	assert.Empty(t, *got)
}

func TestReset(t *testing.T) {
	s := New()
	s.SetSearch("x")
	s.ToggleCategory(1)

	s.Reset()
	assert.Equal(t, New().Query(), s.Query())
}
