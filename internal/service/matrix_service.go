package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/drag"
	"github.com/TWRT/eisenhower-matrix/internal/filter"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/notify"
	"github.com/TWRT/eisenhower-matrix/internal/render"
	"github.com/TWRT/eisenhower-matrix/internal/repository"
	"github.com/TWRT/eisenhower-matrix/internal/store"
)

const serverFailure = "Something went wrong on the server, please try again"

type Options struct {
	// Preferences and Exports are optional; without them the theme and last
	// filter are not persisted and exports are not recorded.
	Preferences *repository.PreferenceRepository
	Exports     *repository.ExportRepository
	ExportDir   string
	Logger      *slog.Logger
}

// MatrixService wires the store, filter controls and drag controller
// together and runs every user mutation through the same policy: notify,
// then refresh from the server whatever the outcome.
type MatrixService struct {
	remote    client.RemoteTaskService
	notifier  notify.Notifier
	store     *store.TaskStore
	filter    *filter.State
	drag      *drag.Controller
	prefs     *repository.PreferenceRepository
	exports   *repository.ExportRepository
	exportDir string
	logger    *slog.Logger

	transientFilter atomic.Bool
}

func NewMatrixService(remote client.RemoteTaskService, notifier notify.Notifier, opts Options) *MatrixService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	taskStore := store.NewTaskStore(remote, remote, notifier, logger.With("component", "store"))
	filterState := filter.New()

	s := &MatrixService{
		remote:    remote,
		notifier:  notifier,
		store:     taskStore,
		filter:    filterState,
		prefs:     opts.Preferences,
		exports:   opts.Exports,
		exportDir: exportDir,
		logger:    logger,
	}
	s.drag = drag.NewController(taskStore, remote, notifier, filterState.Query, logger.With("component", "drag"))
	return s
}

func (s *MatrixService) Store() *store.TaskStore { return s.store }

func (s *MatrixService) Filter() *filter.State { return s.filter }

func (s *MatrixService) Drag() *drag.Controller { return s.drag }

// Start restores the last saved filter, hooks filter changes up to the
// store and loads categories and tasks.
func (s *MatrixService) Start(ctx context.Context) error {
	if s.prefs != nil {
		var saved filter.Settings
		ok, err := s.prefs.LoadLastFilter(&saved)
		switch {
		case err != nil:
			s.logger.Warn("load last filter", "error", err)
		case ok:
			if err := s.filter.Apply(saved); err != nil {
				s.logger.Warn("restore last filter", "error", err)
			}
		}
	}

	s.filter.OnChange(s.onFilterChange)

	if err := s.store.RefreshCategories(ctx); err != nil {
		s.logger.Warn("initial category load", "error", err)
	}
	return s.store.Refresh(ctx, s.filter.Query())
}

// OverrideFilter applies settings for this process only. From then on
// filter changes are no longer saved as the last filter.
func (s *MatrixService) OverrideFilter(settings filter.Settings) error {
	s.transientFilter.Store(true)
	return s.filter.Apply(settings)
}

func (s *MatrixService) onFilterChange(q models.TaskQuery) {
	if s.prefs != nil && !s.transientFilter.Load() {
		if err := s.prefs.SaveLastFilter(s.filter.Settings()); err != nil {
			s.logger.Warn("save last filter", "error", err)
		}
	}
	if err := s.store.Refresh(context.Background(), q); err != nil {
		s.logger.Debug("refresh after filter change", "error", err)
	}
}

// Refresh reloads the board with the current filter.
func (s *MatrixService) Refresh(ctx context.Context) error {
	return s.store.Refresh(ctx, s.filter.Query())
}

// Board renders the current snapshot with pending moves and drag markers.
func (s *MatrixService) Board(now time.Time) render.Board {
	board := render.Render(s.store.Snapshot(), s.store.Overlay(), now)
	st := s.drag.State()
	board.MarkDrag(st.TaskID, st.Target)
	return board
}

// GetTask returns the cached task, as the edit dialog does.
func (s *MatrixService) GetTask(id int) (models.Task, error) {
	task, ok := s.store.GetByID(id)
	if !ok {
		return models.Task{}, &client.NotFoundError{Resource: "task", Id: id}
	}
	return task, nil
}

// mutate runs fn, reports the outcome and refreshes unconditionally.
func (s *MatrixService) mutate(ctx context.Context, op, success string, reloadCategories bool, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		s.logger.Error(op, "error", err)
		s.notify(notify.LevelError, client.UserMessage(err, serverFailure))
	} else {
		s.logger.Info(op)
		s.notify(notify.LevelSuccess, success)
	}

	// The reload runs even if the caller gave up once the mutation was sent.
	reload := context.WithoutCancel(ctx)
	if reloadCategories {
		if cerr := s.store.RefreshCategories(reload); cerr != nil {
			s.logger.Warn("reload categories", "op", op, "error", cerr)
		}
	}
	if rerr := s.store.Refresh(reload, s.filter.Query()); rerr != nil {
		s.logger.Warn("reload tasks", "op", op, "error", rerr)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *MatrixService) notify(level notify.Level, msg string) {
	if s.notifier != nil && msg != "" {
		s.notifier.Notify(level, msg)
	}
}

func (s *MatrixService) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	var created *models.Task
	err := s.mutate(ctx, "create task", "Task created successfully", false, func(ctx context.Context) error {
		task, err := s.remote.CreateTask(ctx, input)
		created = task
		return err
	})
	return created, err
}

func (s *MatrixService) UpdateTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	var updated *models.Task
	err := s.mutate(ctx, "update task", "Task updated successfully", false, func(ctx context.Context) error {
		task, err := s.remote.UpdateTask(ctx, id, patch)
		updated = task
		return err
	})
	return updated, err
}

// SetCompleted sends a completed-only update.
func (s *MatrixService) SetCompleted(ctx context.Context, id int, completed bool) (*models.Task, error) {
	var updated *models.Task
	msg := "Task marked as not completed"
	if completed {
		msg = "Task marked as completed"
	}
	err := s.mutate(ctx, "set task completed", msg, false, func(ctx context.Context) error {
		task, err := s.remote.UpdateTask(ctx, id, models.CompletedPatch(completed))
		updated = task
		return err
	})
	return updated, err
}

// ToggleCompleted flips the completed flag of a task known to the store.
func (s *MatrixService) ToggleCompleted(ctx context.Context, id int) (*models.Task, error) {
	task, ok := s.store.GetByID(id)
	if !ok {
		err := &client.NotFoundError{Resource: "task", Id: id}
		return nil, s.mutate(ctx, "toggle task", "", false, func(context.Context) error { return err })
	}
	return s.SetCompleted(ctx, id, !task.Completed)
}

func (s *MatrixService) DeleteTask(ctx context.Context, id int) error {
	return s.mutate(ctx, "delete task", "Task deleted successfully", false, func(ctx context.Context) error {
		return s.remote.DeleteTask(ctx, id)
	})
}

// MoveTask runs a complete drag gesture from the task's current quadrant to
// target.
func (s *MatrixService) MoveTask(ctx context.Context, id int, target models.Quadrant) (drag.DropOutcome, error) {
	if !target.Valid() {
		return drag.DropIgnored, &client.ValidationError{Field: "quadrant", Message: fmt.Sprintf("unknown quadrant %q", target)}
	}
	if !s.drag.DragStart(id) {
		return drag.DropIgnored, &client.NotFoundError{Resource: "task", Id: id}
	}
	defer s.drag.DragEnd()

	s.drag.DragEnter(target)
	return s.drag.Drop(ctx, target)
}

func (s *MatrixService) CreateCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	var created *models.Category
	err := s.mutate(ctx, "create category", "Category created successfully", true, func(ctx context.Context) error {
		cat, err := s.remote.CreateCategory(ctx, input)
		created = cat
		return err
	})
	return created, err
}

func (s *MatrixService) UpdateCategory(ctx context.Context, id int, input models.CategoryInput) (*models.Category, error) {
	var updated *models.Category
	err := s.mutate(ctx, "update category", "Category updated successfully", true, func(ctx context.Context) error {
		cat, err := s.remote.UpdateCategory(ctx, id, input)
		updated = cat
		return err
	})
	return updated, err
}

func (s *MatrixService) DeleteCategory(ctx context.Context, id int) error {
	return s.mutate(ctx, "delete category", "Category deleted successfully", true, func(ctx context.Context) error {
		return s.remote.DeleteCategory(ctx, id)
	})
}

func (s *MatrixService) Categories() []models.Category {
	return s.store.Categories()
}

// ExportResult describes an export written to disk.
type ExportResult struct {
	Path  string
	Bytes int64
}

// Export downloads the CSV for the current filter into the export
// directory under the filename the server suggests.
func (s *MatrixService) Export(ctx context.Context) (ExportResult, error) {
	var recordID int64
	if s.exports != nil {
		settings, err := json.Marshal(s.filter.Settings())
		if err != nil {
			s.logger.Warn("encode export filter", "error", err)
		}
		id, err := s.exports.Create(&repository.Export{Path: s.exportDir, Query: string(settings)})
		if err != nil {
			s.logger.Warn("record export", "error", err)
		}
		recordID = id
	}

	result, err := s.exportTo(ctx)
	if err != nil {
		s.logger.Error("export tasks", "error", err)
		s.notify(notify.LevelError, "Export failed: "+client.UserMessage(err, serverFailure))
		if recordID != 0 {
			if ferr := s.exports.Fail(recordID, err.Error()); ferr != nil {
				s.logger.Warn("record export failure", "error", ferr)
			}
		}
		return ExportResult{}, fmt.Errorf("export tasks: %w", err)
	}

	if recordID != 0 {
		if cerr := s.exports.Complete(recordID, filepath.Base(result.Path), result.Path, result.Bytes); cerr != nil {
			s.logger.Warn("record export completion", "error", cerr)
		}
	}
	s.logger.Info("export tasks", "path", result.Path, "bytes", result.Bytes)
	s.notify(notify.LevelSuccess, fmt.Sprintf("Exported %s to %s", humanize.Bytes(uint64(result.Bytes)), result.Path))
	return result, nil
}

func (s *MatrixService) exportTo(ctx context.Context) (ExportResult, error) {
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.exportDir, ".export-*.csv")
	if err != nil {
		return ExportResult{}, fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	res, err := s.remote.ExportTasks(ctx, s.filter.Query(), tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close export file: %w", cerr)
	}
	if err != nil {
		return ExportResult{}, err
	}

	path := filepath.Join(s.exportDir, res.Filename)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return ExportResult{}, fmt.Errorf("move export into place: %w", err)
	}
	return ExportResult{Path: path, Bytes: res.Bytes}, nil
}

// WriteExport streams the CSV for the current filter into w without
// touching the export directory.
func (s *MatrixService) WriteExport(ctx context.Context, w io.Writer) (client.ExportResult, error) {
	res, err := s.remote.ExportTasks(ctx, s.filter.Query(), w)
	if err != nil {
		s.logger.Error("stream export", "error", err)
		return client.ExportResult{}, fmt.Errorf("export tasks: %w", err)
	}
	return res, nil
}

// RecentExports lists recorded exports, newest first.
func (s *MatrixService) RecentExports(limit int) ([]repository.Export, error) {
	if s.exports == nil {
		return nil, nil
	}
	return s.exports.GetExports(limit)
}

func (s *MatrixService) Theme() (repository.Theme, error) {
	if s.prefs == nil {
		return repository.ThemeLight, nil
	}
	return s.prefs.Theme()
}

func (s *MatrixService) SetTheme(theme string) (repository.Theme, error) {
	t, err := repository.ParseTheme(theme)
	if err != nil {
		return "", &client.ValidationError{Field: "theme", Message: err.Error()}
	}
	if s.prefs == nil {
		return t, nil
	}
	if err := s.prefs.SetTheme(t); err != nil {
		return "", err
	}
	return t, nil
}

// StartAutoRefresh schedules a board refresh every interval. Each run may
// take up to the larger of interval and requestTimeout. The returned
// scheduler must be stopped by the caller.
func (s *MatrixService) StartAutoRefresh(interval, requestTimeout time.Duration) (*SchedulerService, error) {
	timeout := refreshTimeout(interval, requestTimeout)
	scheduler := NewSchedulerService(time.Local)
	_, err := scheduler.ScheduleInterval(interval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("scheduled refresh", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule refresh: %w", err)
	}
	scheduler.Start()
	s.logger.Info("auto refresh enabled", "interval", interval)
	return scheduler, nil
}

func refreshTimeout(interval, requestTimeout time.Duration) time.Duration {
	return max(interval, requestTimeout)
}
