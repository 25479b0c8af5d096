package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/client/matrix"
	"github.com/TWRT/eisenhower-matrix/internal/drag"
	"github.com/TWRT/eisenhower-matrix/internal/filter"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/notify"
	"github.com/TWRT/eisenhower-matrix/internal/repository"
	"github.com/TWRT/eisenhower-matrix/internal/testutil"
)

type env struct {
	api    *testutil.FakeAPI
	center *notify.Center
	svc    *MatrixService
	prefs  *repository.PreferenceRepository
	dir    string
}

func newEnv(t *testing.T) env {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	api.AddCategory(testutil.FakeCategory{Name: "Work"})
	api.AddTask(testutil.FakeTask{Title: "Write report", Category: "Work", Quadrant: "urgent-important", DueDate: time.Now().Add(time.Hour)})
	api.AddTask(testutil.FakeTask{Title: "Read book", Quadrant: "not-urgent-not-important", DueDate: time.Now().Add(240 * time.Hour)})

	dir := t.TempDir()
	db, err := repository.InitDB(filepath.Join(dir, "matrix.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	prefs := repository.NewPreferenceRepository(db)
	center := notify.NewCenter(nil)
	svc := NewMatrixService(matrix.NewMatrixClient(api.URL(), time.Second, nil), center, Options{
		Preferences: prefs,
		Exports:     repository.NewExportRepository(db),
		ExportDir:   filepath.Join(dir, "exports"),
	})
	require.NoError(t, svc.Start(context.Background()))
	api.ResetRequests()

	return env{api: api, center: center, svc: svc, prefs: prefs, dir: dir}
}

func lastNotification(t *testing.T, c *notify.Center) notify.Notification {
	t.Helper()
	n, ok := c.Last()
	require.True(t, ok)
	return n
}

func TestStartLoadsBoardAndCategories(t *testing.T) {
	e := newEnv(t)

	board := e.svc.Board(time.Now())
	assert.Equal(t, 2, board.Count())
	assert.Len(t, board.Columns[0].Cards, 1)
	assert.Equal(t, "Work", board.Columns[0].Cards[0].Category)
	require.Len(t, e.svc.Categories(), 1)
}

func TestCreateTaskRefreshes(t *testing.T) {
	e := newEnv(t)

	task, err := e.svc.CreateTask(context.Background(), models.TaskInput{
		Title:    "Book flights",
		DueDate:  time.Now().Add(48 * time.Hour),
		Quadrant: models.QuadrantNotUrgentImportant,
	})
	require.NoError(t, err)
	require.NotNil(t, task)

	got, err := e.svc.GetTask(task.Id)
	require.NoError(t, err)
	assert.Equal(t, "Book flights", got.Title)
	assert.Equal(t, "Task created successfully", lastNotification(t, e.center).Message)
}

func TestCreateTaskValidationStillRefreshes(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateTask(context.Background(), models.TaskInput{Title: "No due date", Quadrant: models.QuadrantUrgentImportant})
	require.Error(t, err)
	assert.True(t, client.IsValidation(err))

	assert.Equal(t, 0, e.api.CountRequests("POST", "/tasks"))
	assert.Equal(t, 2, e.api.CountRequests("GET", "/tasks"))
	n := lastNotification(t, e.center)
	assert.Equal(t, notify.LevelError, n.Level)
	assert.Equal(t, "due date is required", n.Message)
}

func TestUpdateMissingTaskNotifiesNotFound(t *testing.T) {
	e := newEnv(t)
	title := "x"

	_, err := e.svc.UpdateTask(context.Background(), 999, models.TaskPatch{Title: &title})
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Equal(t, "Task not found", lastNotification(t, e.center).Message)
}

func TestServerErrorMessage(t *testing.T) {
	e := newEnv(t)
	e.api.FailNext("DELETE", "/tasks/", 503, "")

	err := e.svc.DeleteTask(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, serverFailure, lastNotification(t, e.center).Message)

	// nothing was deleted and the board was reloaded
	_, ok := e.api.Task(1)
	assert.True(t, ok)
	assert.Equal(t, 2, e.svc.Board(time.Now()).Count())
}

func TestToggleCompleted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	task, err := e.svc.ToggleCompleted(ctx, 2)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	puts := 0
	for _, r := range e.api.Requests() {
		if r.Method == "PUT" {
			puts++
			assert.Equal(t, map[string]any{"completed": true}, r.Body)
		}
	}
	assert.Equal(t, 1, puts)

	cached, err := e.svc.GetTask(2)
	require.NoError(t, err)
	assert.True(t, cached.Completed)

	_, err = e.svc.ToggleCompleted(ctx, 77)
	assert.True(t, client.IsNotFound(err))
}

func TestDuplicateCategoryName(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateCategory(context.Background(), models.CategoryInput{Name: "Work"})
	require.Error(t, err)
	assert.True(t, client.IsDuplicateName(err))

	n := lastNotification(t, e.center)
	assert.Equal(t, notify.LevelError, n.Level)
	assert.Equal(t, "Category name must be unique", n.Message)
	assert.Equal(t, 1, e.api.CategoryCount())
	assert.Len(t, e.svc.Categories(), 1)
}

func TestCategoryLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cat, err := e.svc.CreateCategory(ctx, models.CategoryInput{Name: "Home", Color: "#00ff00"})
	require.NoError(t, err)
	assert.Len(t, e.svc.Categories(), 2)

	_, err = e.svc.UpdateCategory(ctx, cat.Id, models.CategoryInput{Name: "House"})
	require.NoError(t, err)
	_, ok := e.svc.Store().CategoryByName("House")
	assert.True(t, ok)

	require.NoError(t, e.svc.DeleteCategory(ctx, cat.Id))
	assert.Len(t, e.svc.Categories(), 1)

	err = e.svc.DeleteCategory(ctx, cat.Id)
	assert.True(t, client.IsNotFound(err))
	assert.Equal(t, "Category not found", lastNotification(t, e.center).Message)
}

func TestMoveTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	outcome, err := e.svc.MoveTask(ctx, 1, models.QuadrantNotUrgentImportant)
	require.NoError(t, err)
	assert.Equal(t, drag.DropMoved, outcome)
	assert.Equal(t, drag.PhaseIdle, e.svc.Drag().State().Phase)

	outcome, err = e.svc.MoveTask(ctx, 1, models.QuadrantNotUrgentImportant)
	require.NoError(t, err)
	assert.Equal(t, drag.DropNoOp, outcome)
	assert.Equal(t, 1, e.api.CountRequests("PUT", "/tasks"))

	_, err = e.svc.MoveTask(ctx, 42, models.QuadrantUrgentImportant)
	assert.True(t, client.IsNotFound(err))
}

func TestFilterChangeRefreshesAndPersists(t *testing.T) {
	e := newEnv(t)

	e.svc.Filter().SetSearch("report")

	board := e.svc.Board(time.Now())
	assert.Equal(t, 1, board.Count())
	assert.Equal(t, "report", e.svc.Store().Snapshot().Query.Search)

	var saved filter.Settings
	ok, err := e.prefs.LoadLastFilter(&saved)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "report", saved.Search)
}

func TestStartRestoresLastFilter(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.prefs.SaveLastFilter(filter.Settings{Search: "book", ShowCompleted: true}))

	svc := NewMatrixService(matrix.NewMatrixClient(e.api.URL(), time.Second, nil), e.center, Options{Preferences: e.prefs})
	require.NoError(t, svc.Start(context.Background()))

	assert.Equal(t, "book", svc.Filter().Query().Search)
	assert.Equal(t, 1, svc.Board(time.Now()).Count())
}

func TestExport(t *testing.T) {
	e := newEnv(t)

	res, err := e.svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.dir, "exports", "tasks_export.csv"), res.Path)

	raw, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "id,title,quadrant,completed")
	assert.Equal(t, int64(len(raw)), res.Bytes)

	exports, err := e.svc.RecentExports(5)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, repository.ExportCompleted, exports[0].Status)
	assert.Equal(t, notify.LevelSuccess, lastNotification(t, e.center).Level)
}

func TestExportFailureIsRecorded(t *testing.T) {
	e := newEnv(t)
	e.api.FailNext("GET", "/tasks/export", 500, `{"error":"disk full"}`)

	_, err := e.svc.Export(context.Background())
	require.Error(t, err)

	exports, err := e.svc.RecentExports(5)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, repository.ExportFailed, exports[0].Status)

	entries, err := os.ReadDir(filepath.Join(e.dir, "exports"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTheme(t *testing.T) {
	e := newEnv(t)

	theme, err := e.svc.Theme()
	require.NoError(t, err)
	assert.Equal(t, repository.ThemeLight, theme)

	_, err = e.svc.SetTheme("dark")
	require.NoError(t, err)
	theme, _ = e.svc.Theme()
	assert.Equal(t, repository.ThemeDark, theme)

	_, err = e.svc.SetTheme("neon")
	assert.True(t, client.IsValidation(err))
}

func TestSchedulerInterval(t *testing.T) {
	s := NewSchedulerService(nil)
	_, err := s.ScheduleInterval(0, func() {})
	assert.Error(t, err)

	_, err = s.ScheduleInterval(500*time.Millisecond, func() {})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())
}

type cancelAfterDelete struct {
	client.RemoteTaskService
	cancel context.CancelFunc
}

func (r cancelAfterDelete) DeleteTask(ctx context.Context, id int) error {
	err := r.RemoteTaskService.DeleteTask(ctx, id)
	r.cancel()
	return err
}

func TestMutationReloadsAfterCallerCancels(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote := cancelAfterDelete{RemoteTaskService: matrix.NewMatrixClient(e.api.URL(), time.Second, nil), cancel: cancel}
	svc := NewMatrixService(remote, e.center, Options{})
	require.NoError(t, svc.Start(context.Background()))

	require.NoError(t, svc.DeleteTask(ctx, 1))
	require.Error(t, ctx.Err())

	require.NoError(t, svc.Store().Snapshot().LoadErr)
	assert.Equal(t, 1, svc.Board(time.Now()).Count())
	assert.Equal(t, "Task deleted successfully", lastNotification(t, e.center).Message)
}

func TestOverrideFilterIsNotSaved(t *testing.T) {
	e := newEnv(t)

	settings := e.svc.Filter().Settings()
	settings.Search = "report"
	require.NoError(t, e.svc.OverrideFilter(settings))
	assert.Equal(t, 1, e.svc.Board(time.Now()).Count())

	require.NoError(t, e.svc.Filter().SetSortOrder("desc"))

	var saved filter.Settings
	ok, err := e.prefs.LoadLastFilter(&saved)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExportRecordsFilter(t *testing.T) {
	e := newEnv(t)
	e.svc.Filter().SetSearch("report")

	_, err := e.svc.Export(context.Background())
	require.NoError(t, err)

	exports, err := e.svc.RecentExports(1)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Contains(t, exports[0].Query, `"search":"report"`)
	assert.Contains(t, exports[0].Query, `"sort_by":"due_date"`)
}

func TestRefreshTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, refreshTimeout(time.Second, 10*time.Second))
	assert.Equal(t, time.Minute, refreshTimeout(time.Minute, 10*time.Second))
}
