// Package store keeps the client's cached copy of the remote task set.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/notify"
)

// CategoryLister is the slice of the remote service the store needs for
// categories.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Snapshot is one committed fetch cycle. AllTasks and View always come from
// the same cycle. Callers must not modify the slices.
type Snapshot struct {
	Cycle     uint64
	Query     models.TaskQuery
	AllTasks  []models.Task
	View      []models.Task
	FetchedAt time.Time
	LoadErr   error
}

// Loaded reports whether the snapshot holds data from a successful fetch.
func (s Snapshot) Loaded() bool {
	return s.Cycle > 0 && s.LoadErr == nil
}

type TaskStore struct {
	tasks      client.TaskLister
	categories CategoryLister
	notifier   notify.Notifier
	logger     *slog.Logger

	mu       sync.RWMutex
	cycle    uint64
	snapshot Snapshot
	byID     map[int]models.Task
	overlay  map[int]models.Quadrant
	cats     []models.Category
	subs     []func(Snapshot)
	catSubs  []func([]models.Category)

	// serializes subscriber delivery so listeners never observe commits out of order
	deliverMu sync.Mutex
}

func NewTaskStore(tasks client.TaskLister, categories CategoryLister, notifier notify.Notifier, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		tasks:      tasks,
		categories: categories,
		notifier:   notifier,
		logger:     logger,
		byID:       map[int]models.Task{},
	}
}

// Refresh fetches the unfiltered task set and the view for q concurrently
// and commits both together. Whichever Refresh completes last wins; in-flight
// fetches are never cancelled by a newer one.
func (s *TaskStore) Refresh(ctx context.Context, q models.TaskQuery) error {
	var (
		all  []models.Task
		view []models.Task
		g    errgroup.Group
	)
	g.Go(func() error {
		tasks, err := s.tasks.ListTasks(ctx, models.TaskQuery{})
		if err != nil {
			return fmt.Errorf("fetch all tasks: %w", err)
		}
		all = tasks
		return nil
	})
	g.Go(func() error {
		tasks, err := s.tasks.ListTasks(ctx, q)
		if err != nil {
			return fmt.Errorf("fetch filtered tasks: %w", err)
		}
		view = tasks
		return nil
	})
	err := g.Wait()

	snap := Snapshot{Query: q, FetchedAt: time.Now()}
	if err != nil {
		snap.LoadErr = err
	} else {
		snap.AllTasks = all
		snap.View = view
	}
	s.commit(snap)

	if err != nil {
		s.logger.Error("refresh tasks", "error", err)
		if s.notifier != nil {
			s.notifier.Notify(notify.LevelError, "Failed to load tasks: "+client.UserMessage(err, "please try again"))
		}
		return err
	}
	s.logger.Debug("refresh tasks", "all", len(all), "view", len(view))
	return nil
}

func (s *TaskStore) commit(snap Snapshot) {
	byID := make(map[int]models.Task, len(snap.AllTasks))
	for _, t := range snap.AllTasks {
		byID[t.Id] = t
	}

	s.mu.Lock()
	s.cycle++
	snap.Cycle = s.cycle
	s.snapshot = snap
	s.byID = byID
	s.overlay = nil
	subs := append([]func(Snapshot){}, s.subs...)
	s.mu.Unlock()

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	current := s.Snapshot()
	for _, fn := range subs {
		fn(current)
	}
}

// Snapshot returns the current committed state.
func (s *TaskStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// GetByID looks a task up in the unfiltered set, so a card dragged out of
// the current view can still be resolved.
func (s *TaskStore) GetByID(id int) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	return t, ok
}

// Subscribe registers fn to be called after every commit.
func (s *TaskStore) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SetProvisional records a pending quadrant move. It lives outside the
// snapshot and is discarded by the next commit, success or not.
func (s *TaskStore) SetProvisional(taskID int, q models.Quadrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay == nil {
		s.overlay = map[int]models.Quadrant{}
	}
	s.overlay[taskID] = q
}

// Overlay returns a copy of the pending quadrant moves.
func (s *TaskStore) Overlay() map[int]models.Quadrant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]models.Quadrant, len(s.overlay))
	for id, q := range s.overlay {
		out[id] = q
	}
	return out
}

func (s *TaskStore) RefreshCategories(ctx context.Context) error {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		s.logger.Error("refresh categories", "error", err)
		if s.notifier != nil {
			s.notifier.Notify(notify.LevelError, "Failed to load categories: "+client.UserMessage(err, "please try again"))
		}
		return fmt.Errorf("fetch categories: %w", err)
	}

	s.mu.Lock()
	s.cats = cats
	subs := append([]func([]models.Category){}, s.catSubs...)
	s.mu.Unlock()

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	current := s.Categories()
	for _, fn := range subs {
		fn(current)
	}
	return nil
}

func (s *TaskStore) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.cats))
	copy(out, s.cats)
	return out
}

// CategoryByName finds a loaded category by exact name.
func (s *TaskStore) CategoryByName(name string) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cats {
		if c.Name == name {
			return c, true
		}
	}
	return models.Category{}, false
}

// SubscribeCategories registers fn to be called whenever the category list
// is reloaded.
func (s *TaskStore) SubscribeCategories(fn func([]models.Category)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catSubs = append(s.catSubs, fn)
}
