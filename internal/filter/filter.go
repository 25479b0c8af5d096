// Package filter holds the search, filter and sort controls of the board.
package filter

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/TWRT/eisenhower-matrix/internal/models"
)

const dateLayout = "2006-01-02"

// Settings is the serializable form of the controls, used for the filter
// endpoint and for restoring the last filter at startup.
type Settings struct {
	Search        string `json:"search"`
	Filter        string `json:"filter"`
	DateFrom      string `json:"date_from,omitempty"`
	DateTo        string `json:"date_to,omitempty"`
	Categories    []int  `json:"categories"`
	ShowCompleted bool   `json:"show_completed"`
	SortBy        string `json:"sort_by"`
	SortOrder     string `json:"sort_order"`
}

// State is safe for concurrent use. Every change fires the registered
// listeners with the resulting query.
type State struct {
	mu            sync.Mutex
	search        string
	kind          models.FilterKind
	from          *time.Time
	to            *time.Time
	categories    map[int]struct{}
	showCompleted bool
	sortBy        models.SortField
	sortOrder     models.SortOrder
	listeners     []func(models.TaskQuery)
}

func New() *State {
	return &State{
		kind:          models.FilterAll,
		categories:    map[int]struct{}{},
		showCompleted: true,
		sortBy:        models.SortByDueDate,
		sortOrder:     models.SortAsc,
	}
}

// OnChange registers fn. Listeners run on the caller's goroutine, after the
// state lock is released.
func (s *State) OnChange(fn func(models.TaskQuery)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// update applies mutate under the lock and fires the listeners when it
// reports a change.
func (s *State) update(mutate func() bool) {
	s.mu.Lock()
	changed := mutate()
	q := s.queryLocked()
	listeners := append([]func(models.TaskQuery){}, s.listeners...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(q)
	}
}

func (s *State) SetSearch(text string) {
	text = strings.TrimSpace(text)
	s.update(func() bool {
		if s.search == text {
			return false
		}
		s.search = text
		return true
	})
}

func (s *State) SetFilter(kind string) error {
	k, err := models.ParseFilterKind(kind)
	if err != nil {
		return err
	}
	s.update(func() bool {
		if s.kind == k {
			return false
		}
		s.kind = k
		return true
	})
	return nil
}

// SetDateRange sets the inclusive due-date bounds. Either may be nil.
func (s *State) SetDateRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return fmt.Errorf("date range ends (%s) before it starts (%s)", to.Format(dateLayout), from.Format(dateLayout))
	}
	s.update(func() bool {
		if sameDay(s.from, from) && sameDay(s.to, to) {
			return false
		}
		s.from = copyTime(from)
		s.to = copyTime(to)
		return true
	})
	return nil
}

// ToggleCategory adds the category to the selection, or removes it when it
// is already selected.
func (s *State) ToggleCategory(id int) {
	s.update(func() bool {
		if _, ok := s.categories[id]; ok {
			delete(s.categories, id)
		} else {
			s.categories[id] = struct{}{}
		}
		return true
	})
}

func (s *State) SetCategories(ids []int) {
	s.update(func() bool {
		next := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			next[id] = struct{}{}
		}
		if sameSet(s.categories, next) {
			return false
		}
		s.categories = next
		return true
	})
}

func (s *State) SetShowCompleted(show bool) {
	s.update(func() bool {
		if s.showCompleted == show {
			return false
		}
		s.showCompleted = show
		return true
	})
}

func (s *State) SetSortBy(field string) error {
	f, err := models.ParseSortField(field)
	if err != nil {
		return err
	}
	s.update(func() bool {
		if s.sortBy == f {
			return false
		}
		s.sortBy = f
		return true
	})
	return nil
}

func (s *State) SetSortOrder(order string) error {
	o, err := models.ParseSortOrder(order)
	if err != nil {
		return err
	}
	s.update(func() bool {
		if s.sortOrder == o {
			return false
		}
		s.sortOrder = o
		return true
	})
	return nil
}

// Query builds the listing parameters for the current controls.
func (s *State) Query() models.TaskQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked()
}

func (s *State) queryLocked() models.TaskQuery {
	q := models.TaskQuery{
		Search:    s.search,
		Filter:    s.kind,
		DateFrom:  copyTime(s.from),
		DateTo:    copyTime(s.to),
		SortBy:    s.sortBy,
		SortOrder: s.sortOrder,
	}
	show := s.showCompleted
	q.ShowCompleted = &show
	for id := range s.categories {
		q.Categories = append(q.Categories, id)
	}
	slices.Sort(q.Categories)
	return q
}

func (s *State) Settings() Settings {
	q := s.Query()
	out := Settings{
		Search:        q.Search,
		Filter:        string(q.Filter),
		Categories:    q.Categories,
		ShowCompleted: *q.ShowCompleted,
		SortBy:        string(q.SortBy),
		SortOrder:     string(q.SortOrder),
	}
	if out.Categories == nil {
		out.Categories = []int{}
	}
	if q.DateFrom != nil {
		out.DateFrom = q.DateFrom.Format(dateLayout)
	}
	if q.DateTo != nil {
		out.DateTo = q.DateTo.Format(dateLayout)
	}
	return out
}

// Apply validates every field of in and replaces the whole state at once.
// Listeners fire a single time, and only if something changed.
func (s *State) Apply(in Settings) error {
	kind, err := models.ParseFilterKind(in.Filter)
	if err != nil {
		return err
	}
	sortBy, err := models.ParseSortField(in.SortBy)
	if err != nil {
		return err
	}
	sortOrder, err := models.ParseSortOrder(in.SortOrder)
	if err != nil {
		return err
	}
	from, err := parseDate(in.DateFrom)
	if err != nil {
		return fmt.Errorf("date_from: %w", err)
	}
	to, err := parseDate(in.DateTo)
	if err != nil {
		return fmt.Errorf("date_to: %w", err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return fmt.Errorf("date range ends (%s) before it starts (%s)", in.DateTo, in.DateFrom)
	}
	cats := make(map[int]struct{}, len(in.Categories))
	for _, id := range in.Categories {
		cats[id] = struct{}{}
	}
	search := strings.TrimSpace(in.Search)

	s.update(func() bool {
		changed := s.search != search || s.kind != kind || !sameDay(s.from, from) || !sameDay(s.to, to) ||
			!sameSet(s.categories, cats) || s.showCompleted != in.ShowCompleted ||
			s.sortBy != sortBy || s.sortOrder != sortOrder
		s.search = search
		s.kind = kind
		s.from = from
		s.to = to
		s.categories = cats
		s.showCompleted = in.ShowCompleted
		s.sortBy = sortBy
		s.sortOrder = sortOrder
		return changed
	})
	return nil
}

// Reset restores the defaults.
func (s *State) Reset() {
	_ = s.Apply(Settings{ShowCompleted: true})
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}

// ParseDate reads a YYYY-MM-DD bound as used by the date range controls.
func ParseDate(s string) (*time.Time, error) {
	return parseDate(s)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Format(dateLayout) == b.Format(dateLayout)
}

func sameSet(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
