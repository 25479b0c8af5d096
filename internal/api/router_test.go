package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/eisenhower-matrix/internal/client/matrix"
	"github.com/TWRT/eisenhower-matrix/internal/notify"
	"github.com/TWRT/eisenhower-matrix/internal/service"
	"github.com/TWRT/eisenhower-matrix/internal/testutil"
)

type board struct {
	Quadrants []struct {
		Quadrant string `json:"quadrant"`
		DragOver bool   `json:"drag_over"`
		Cards    []struct {
			ID        int    `json:"id"`
			Title     string `json:"title"`
			DueStatus string `json:"due_status"`
		} `json:"cards"`
	} `json:"quadrants"`
	Error string `json:"error"`
}

func setup(t *testing.T) (*httptest.Server, *testutil.FakeAPI, *notify.Center) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	api.AddCategory(testutil.FakeCategory{Name: "Work"})
	api.AddTask(testutil.FakeTask{Title: "Pay rent", Quadrant: "urgent-important", DueDate: time.Now().Add(-time.Hour)})
	api.AddTask(testutil.FakeTask{Title: "Stretch", Quadrant: "not-urgent-important", DueDate: time.Now().Add(30 * 24 * time.Hour)})

	center := notify.NewCenter(nil)
	svc := service.NewMatrixService(matrix.NewMatrixClient(api.URL(), time.Second, nil), center, service.Options{ExportDir: t.TempDir()})
	require.NoError(t, svc.Start(context.Background()))

	srv := httptest.NewServer(SetupRouter(svc, center, nil))
	t.Cleanup(srv.Close)
	return srv, api, center
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestGetBoard(t *testing.T) {
	srv, _, _ := setup(t)

	resp, raw := call(t, srv, "GET", "/board", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var b board
	require.NoError(t, json.Unmarshal(raw, &b))
	require.Len(t, b.Quadrants, 4)
	require.Len(t, b.Quadrants[0].Cards, 1)
	assert.Equal(t, "Pay rent", b.Quadrants[0].Cards[0].Title)
	assert.Equal(t, "overdue", b.Quadrants[0].Cards[0].DueStatus)
	assert.Equal(t, "future", b.Quadrants[1].Cards[0].DueStatus)
}

func TestDragGestureOverHTTP(t *testing.T) {
	srv, api, _ := setup(t)

	resp, _ := call(t, srv, "POST", "/drag/start", `{"task_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, raw := call(t, srv, "POST", "/drag/enter", `{"quadrant":"urgent-not-important"}`)
	assert.Contains(t, string(raw), `"accepted":true`)

	b := board{}
	_, raw = call(t, srv, "GET", "/board", "")
	require.NoError(t, json.Unmarshal(raw, &b))
	assert.True(t, b.Quadrants[2].DragOver)

	resp, raw = call(t, srv, "POST", "/drag/drop", `{"quadrant":"urgent-not-important"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var drop struct {
		Outcome string `json:"outcome"`
		Board   board  `json:"board"`
		State   struct {
			Phase string `json:"phase"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(raw, &drop))
	assert.Equal(t, "moved", drop.Outcome)
	assert.Equal(t, "idle", drop.State.Phase)
	require.Len(t, drop.Board.Quadrants[2].Cards, 1)
	assert.Equal(t, 1, drop.Board.Quadrants[2].Cards[0].ID)

	task, _ := api.Task(1)
	assert.Equal(t, "urgent-not-important", task.Quadrant)
}

func TestDragStartUnknownTask(t *testing.T) {
	srv, _, _ := setup(t)

	resp, raw := call(t, srv, "POST", "/drag/start", `{"task_id":99}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(raw), "Task not found")
}

func TestFailedDropReportsError(t *testing.T) {
	srv, api, _ := setup(t)
	api.FailNext("PUT", "/tasks/", 500, "")

	call(t, srv, "POST", "/drag/start", `{"task_id":1}`)
	resp, raw := call(t, srv, "POST", "/drag/drop", `{"quadrant":"not-urgent-important"}`)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(raw), `"outcome":"failed"`)
	assert.Contains(t, string(raw), "Something went wrong on the server")
}

func TestCreateTaskValidation(t *testing.T) {
	srv, _, _ := setup(t)

	resp, raw := call(t, srv, "POST", "/tasks", `{"title":"","due_date":"2026-10-20","quadrant":"urgent-important"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "title is required")

	resp, _ = call(t, srv, "POST", "/tasks", `{"title":"Call mom","due_date":"2026-10-20T18:00","quadrant":"urgent-important"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUpdateToggleDeleteTask(t *testing.T) {
	srv, api, _ := setup(t)

	resp, _ := call(t, srv, "PUT", "/tasks/2", `{"title":"Stretch daily"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task, _ := api.Task(2)
	assert.Equal(t, "Stretch daily", task.Title)

	resp, raw := call(t, srv, "POST", "/tasks/2/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"completed":true`)

	resp, _ = call(t, srv, "GET", "/tasks/2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, srv, "DELETE", "/tasks/2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = call(t, srv, "GET", "/tasks/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, srv, "DELETE", "/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDuplicateCategoryConflict(t *testing.T) {
	srv, _, center := setup(t)

	resp, raw := call(t, srv, "POST", "/categories", `{"name":"Work"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "Category name must be unique")

	_, raw = call(t, srv, "GET", "/notifications?limit=1", "")
	assert.Contains(t, string(raw), "Category name must be unique")
	assert.Equal(t, 1, center.Count(notify.LevelError))

	_, raw = call(t, srv, "GET", "/categories", "")
	assert.Equal(t, 1, strings.Count(string(raw), `"name"`))
}

func TestFilterEndpoint(t *testing.T) {
	srv, _, _ := setup(t)

	resp, raw := call(t, srv, "PUT", "/filter", `{"search":"rent","show_completed":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Board board `json:"board"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out.Board.Quadrants[0].Cards, 1)
	assert.Empty(t, out.Board.Quadrants[1].Cards)

	resp, _ = call(t, srv, "PUT", "/filter", `{"filter":"someday"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, raw = call(t, srv, "GET", "/filter", "")
	assert.Contains(t, string(raw), `"search":"rent"`)
}

func TestExportPassThrough(t *testing.T) {
	srv, _, _ := setup(t)

	resp, raw := call(t, srv, "GET", "/tasks/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "tasks_export.csv")
	assert.True(t, strings.HasPrefix(string(raw), "id,title,quadrant,completed"))
}

func TestThemePreference(t *testing.T) {
	srv, _, _ := setup(t)

	_, raw := call(t, srv, "GET", "/preferences/theme", "")
	assert.JSONEq(t, `{"theme":"light"}`, string(raw))

	resp, _ := call(t, srv, "PUT", "/preferences/theme", `{"theme":"purple"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefreshShowsLoadError(t *testing.T) {
	srv, api, _ := setup(t)
	api.FailNext("GET", "/tasks", 500, "")

	resp, raw := call(t, srv, "POST", "/board/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var b board
	require.NoError(t, json.Unmarshal(raw, &b))
	assert.Contains(t, b.Error, "Failed to load tasks")
}
