package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/models"
)

const (
	resourceTask     = "task"
	resourceCategory = "category"

	defaultExportName = "tasks_export.csv"
)

type MatrixClient struct {
	baseUrl    string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.RWMutex
	categoryNames map[int]string
}

var _ client.RemoteTaskService = (*MatrixClient)(nil)

func NewMatrixClient(baseUrl string, timeout time.Duration, logger *slog.Logger) *MatrixClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MatrixClient{
		baseUrl:       strings.TrimRight(baseUrl, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
		categoryNames: make(map[int]string),
	}
}

// failure describes what a non-2xx response on a given call means.
type failure struct {
	op       string
	resource string
	id       int
	name     string
}

func (c *MatrixClient) do(ctx context.Context, f failure, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request (matrix): %w", f.op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request (matrix): %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &client.NetworkError{Op: f.op, Err: err}
	}
	c.logger.Debug("matrix api call",
		"method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		errorBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read error body (matrix): %w", err)
		}
		return nil, classify(f, resp.StatusCode, errorBody)
	}
	return resp, nil
}

// doJSON runs a request and decodes a 2xx JSON body into out.
func (c *MatrixClient) doJSON(ctx context.Context, f failure, method, path string, payload, out any) error {
	resp, err := c.do(ctx, f, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body (matrix): %w", err)
	}

	// Some revisions answer 200 with {"error": "..."}.
	if msg := errorMessage(body); msg != "" {
		return &client.HTTPError{Op: f.op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response (matrix): %w", f.op, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error", "errors.0.message"} {
		res := gjson.GetBytes(body, path)
		if res.Type == gjson.String && strings.TrimSpace(res.String()) != "" {
			return strings.TrimSpace(res.String())
		}
	}
	return ""
}

func looksLikeDuplicate(msg string) bool {
	msg = strings.ToLower(msg)
	for _, hint := range []string{"unique", "already exists", "duplicate", "taken"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func classify(f failure, status int, body []byte) error {
	msg := errorMessage(body)
	if msg == "" && gjson.ValidBytes(body) {
		msg = strings.TrimSpace(gjson.GetBytes(body, "message").String())
	} else if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}

	switch {
	case status == http.StatusNotFound && f.resource != "":
		return &client.NotFoundError{Resource: f.resource, Id: f.id}
	case status == http.StatusConflict && f.resource == resourceCategory:
		return &client.DuplicateNameError{Name: f.name}
	case status == http.StatusBadRequest && f.resource == resourceCategory && f.name != "" && looksLikeDuplicate(msg):
		return &client.DuplicateNameError{Name: f.name}
	case status == http.StatusBadRequest:
		if msg == "" {
			msg = "request rejected by server"
		}
		return &client.ValidationError{Message: msg}
	}
	return &client.HTTPError{Op: f.op, Status: status, Message: msg}
}

func encodeQuery(q models.TaskQuery) url.Values {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Filter != "" {
		values.Set("filter", string(q.Filter))
	}
	if q.DateFrom != nil {
		values.Set("date_from", q.DateFrom.Format("2006-01-02"))
	}
	if q.DateTo != nil {
		values.Set("date_to", q.DateTo.Format("2006-01-02"))
	}
	if len(q.Categories) > 0 {
		ids := make([]string, len(q.Categories))
		for i, id := range q.Categories {
			ids[i] = strconv.Itoa(id)
		}
		values.Set("categories", strings.Join(ids, ","))
	}
	if q.ShowCompleted != nil {
		values.Set("show_completed", strconv.FormatBool(*q.ShowCompleted))
	}
	if q.SortBy != "" {
		values.Set("sort_by", string(q.SortBy))
	}
	if q.SortOrder != "" {
		values.Set("sort_order", string(q.SortOrder))
	}
	return values
}

func withQuery(path string, q models.TaskQuery) string {
	if encoded := encodeQuery(q).Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

func (c *MatrixClient) ListTasks(ctx context.Context, query models.TaskQuery) ([]models.Task, error) {
	var records []TaskRecord
	if err := c.doJSON(ctx, failure{op: "list tasks"}, http.MethodGet, withQuery("/tasks", query), nil, &records); err != nil {
		return nil, err
	}

	if c.missingCategoryNames(records) {
		if _, err := c.ListCategories(ctx); err != nil {
			c.logger.Warn("resolve task categories", "error", err)
		}
	}

	tasks := make([]models.Task, 0, len(records))
	for _, rec := range records {
		task, err := c.toTask(rec)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c *MatrixClient) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	if err := ValidateTaskInput(input); err != nil {
		return nil, err
	}

	reqBody := CreateTaskRequest{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    input.Category,
		DueDate:     formatDueDate(input.DueDate),
		Quadrant:    string(input.Quadrant),
		ReminderSet: input.ReminderSet,
		Tags:        input.Tags,
	}

	var rec TaskRecord
	if err := c.doJSON(ctx, failure{op: "create task", resource: resourceTask}, http.MethodPost, "/tasks", reqBody, &rec); err != nil {
		return nil, err
	}
	return c.toTaskResolved(ctx, rec)
}

func (c *MatrixClient) UpdateTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	if err := ValidateTaskPatch(patch); err != nil {
		return nil, err
	}

	var rec TaskRecord
	path := "/tasks/" + strconv.Itoa(id)
	f := failure{op: "update task", resource: resourceTask, id: id}
	if err := c.doJSON(ctx, f, http.MethodPut, path, patchBody(patch), &rec); err != nil {
		return nil, err
	}
	return c.toTaskResolved(ctx, rec)
}

func (c *MatrixClient) DeleteTask(ctx context.Context, id int) error {
	path := "/tasks/" + strconv.Itoa(id)
	return c.doJSON(ctx, failure{op: "delete task", resource: resourceTask, id: id}, http.MethodDelete, path, nil, nil)
}

func (c *MatrixClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	var records []CategoryRecord
	if err := c.doJSON(ctx, failure{op: "list categories"}, http.MethodGet, "/categories", nil, &records); err != nil {
		return nil, err
	}

	categories := make([]models.Category, len(records))
	names := make(map[int]string, len(records))
	for i, rec := range records {
		categories[i] = toCategory(rec)
		names[rec.Id] = rec.Name
	}

	c.mu.Lock()
	c.categoryNames = names
	c.mu.Unlock()

	return categories, nil
}

func (c *MatrixClient) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	var rec CategoryRecord
	path := "/categories/" + strconv.Itoa(id)
	if err := c.doJSON(ctx, failure{op: "get category", resource: resourceCategory, id: id}, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	c.rememberCategory(rec)
	category := toCategory(rec)
	return &category, nil
}

func (c *MatrixClient) CreateCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	if err := ValidateCategoryInput(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)

	var rec CategoryRecord
	f := failure{op: "create category", resource: resourceCategory, name: name}
	reqBody := CategoryRequest{Name: name, Color: input.Color, Icon: input.Icon}
	if err := c.doJSON(ctx, f, http.MethodPost, "/categories", reqBody, &rec); err != nil {
		return nil, err
	}
	c.rememberCategory(rec)
	category := toCategory(rec)
	return &category, nil
}

func (c *MatrixClient) UpdateCategory(ctx context.Context, id int, input models.CategoryInput) (*models.Category, error) {
	if err := ValidateCategoryInput(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)

	var rec CategoryRecord
	path := "/categories/" + strconv.Itoa(id)
	f := failure{op: "update category", resource: resourceCategory, id: id, name: name}
	reqBody := CategoryRequest{Name: name, Color: input.Color, Icon: input.Icon}
	if err := c.doJSON(ctx, f, http.MethodPut, path, reqBody, &rec); err != nil {
		return nil, err
	}
	c.rememberCategory(rec)
	category := toCategory(rec)
	return &category, nil
}

func (c *MatrixClient) DeleteCategory(ctx context.Context, id int) error {
	path := "/categories/" + strconv.Itoa(id)
	if err := c.doJSON(ctx, failure{op: "delete category", resource: resourceCategory, id: id}, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.categoryNames, id)
	c.mu.Unlock()
	return nil
}

// ExportTasks streams the CSV export for query into w.
func (c *MatrixClient) ExportTasks(ctx context.Context, query models.TaskQuery, w io.Writer) (client.ExportResult, error) {
	resp, err := c.do(ctx, failure{op: "export tasks"}, http.MethodGet, withQuery("/tasks/export", query), nil)
	if err != nil {
		return client.ExportResult{}, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return client.ExportResult{}, fmt.Errorf("download export (matrix): %w", err)
	}
	return client.ExportResult{
		Filename: exportFilename(resp.Header.Get("Content-Disposition")),
		Bytes:    n,
	}, nil
}

func exportFilename(disposition string) string {
	if disposition == "" {
		return defaultExportName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return defaultExportName
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" || strings.ContainsAny(name, `/\`) {
		return defaultExportName
	}
	return name
}

func patchBody(p models.TaskPatch) map[string]any {
	body := make(map[string]any)
	if p.Title != nil {
		body["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Category != nil {
		body["category"] = *p.Category
	}
	if p.DueDate != nil {
		body["due_date"] = formatDueDate(*p.DueDate)
	}
	if p.Quadrant != nil {
		body["quadrant"] = string(*p.Quadrant)
	}
	if p.Completed != nil {
		body["completed"] = *p.Completed
	}
	if p.ReminderSet != nil {
		body["reminder_set"] = *p.ReminderSet
	}
	if p.Tags != nil {
		tags := *p.Tags
		if tags == nil {
			tags = []string{}
		}
		body["tags"] = tags
	}
	return body
}

func toCategory(rec CategoryRecord) models.Category {
	return models.Category{Id: rec.Id, Name: rec.Name, Color: rec.Color, Icon: rec.Icon}
}

func (c *MatrixClient) rememberCategory(rec CategoryRecord) {
	c.mu.Lock()
	c.categoryNames[rec.Id] = rec.Name
	c.mu.Unlock()
}

func (c *MatrixClient) categoryName(id int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.categoryNames[id]
	return name, ok
}
