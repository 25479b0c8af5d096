package models

import (
	"fmt"
	"strings"
	"time"
)

type FilterKind string

const (
	FilterAll       FilterKind = "all"
	FilterOverdue   FilterKind = "overdue"
	FilterToday     FilterKind = "today"
	FilterWeek      FilterKind = "week"
	FilterCompleted FilterKind = "completed"
)

func ParseFilterKind(s string) (FilterKind, error) {
	switch k := FilterKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return FilterAll, nil
	case FilterAll, FilterOverdue, FilterToday, FilterWeek, FilterCompleted:
		return k, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

type SortField string

const (
	SortByDueDate  SortField = "due_date"
	SortByTitle    SortField = "title"
	SortByCategory SortField = "category"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortByDueDate, nil
	case SortByDueDate, SortByTitle, SortByCategory:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortAsc, nil
	case SortAsc, SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// TaskQuery is the parameter set of a task listing. The zero value asks the
// backend for every task, unfiltered.
type TaskQuery struct {
	Search        string
	Filter        FilterKind
	DateFrom      *time.Time
	DateTo        *time.Time
	Categories    []int
	ShowCompleted *bool
	SortBy        SortField
	SortOrder     SortOrder
}

func (q TaskQuery) IsZero() bool {
	return q.Search == "" && q.Filter == "" && q.DateFrom == nil && q.DateTo == nil &&
		len(q.Categories) == 0 && q.ShowCompleted == nil && q.SortBy == "" && q.SortOrder == ""
}
