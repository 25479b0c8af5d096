// Package testutil provides an in-memory stand-in for the matrix REST API.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeTask is the server-side record. Category is stored by name.
type FakeTask struct {
	Id          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Quadrant    string    `json:"quadrant"`
	DueDate     time.Time `json:"-"`
	Completed   bool      `json:"completed"`
	ReminderSet bool      `json:"reminder_set"`
	Tags        []string  `json:"tags"`
}

type FakeCategory struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// RecordedRequest is one call the fake API received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

type injectedFailure struct {
	method string
	prefix string
	status int
	body   string
}

// FakeAPI serves the task/category contract from memory.
type FakeAPI struct {
	Server *httptest.Server

	// CategoryAsID makes task payloads carry the category id instead of its name.
	CategoryAsID bool

	mu         sync.Mutex
	nextTask   int
	nextCat    int
	tasks      map[int]*FakeTask
	categories map[int]*FakeCategory
	requests   []RecordedRequest
	failures   []injectedFailure
}

func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	api := &FakeAPI{
		tasks:      make(map[int]*FakeTask),
		categories: make(map[int]*FakeCategory),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", api.listTasks)
	mux.HandleFunc("GET /tasks/export", api.exportTasks)
	mux.HandleFunc("POST /tasks", api.createTask)
	mux.HandleFunc("PUT /tasks/{id}", api.updateTask)
	mux.HandleFunc("DELETE /tasks/{id}", api.deleteTask)
	mux.HandleFunc("GET /categories", api.listCategories)
	mux.HandleFunc("POST /categories", api.createCategory)
	mux.HandleFunc("GET /categories/{id}", api.getCategory)
	mux.HandleFunc("PUT /categories/{id}", api.updateCategory)
	mux.HandleFunc("DELETE /categories/{id}", api.deleteCategory)

	api.Server = httptest.NewServer(api.intercept(mux))
	t.Cleanup(api.Server.Close)
	return api
}

func (a *FakeAPI) URL() string {
	return a.Server.URL
}

// AddTask seeds a task and returns its id.
func (a *FakeAPI) AddTask(task FakeTask) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextTask++
	task.Id = a.nextTask
	a.tasks[task.Id] = &task
	return task.Id
}

func (a *FakeAPI) AddCategory(cat FakeCategory) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextCat++
	cat.Id = a.nextCat
	a.categories[cat.Id] = &cat
	return cat.Id
}

func (a *FakeAPI) Task(id int) (FakeTask, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	task, ok := a.tasks[id]
	if !ok {
		return FakeTask{}, false
	}
	return *task, true
}

func (a *FakeAPI) CategoryCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.categories)
}

// FailNext makes the next request matching method and path prefix answer
// with status and body.
func (a *FakeAPI) FailNext(method, prefix string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, injectedFailure{method: method, prefix: prefix, status: status, body: body})
}

func (a *FakeAPI) Requests() []RecordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RecordedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

// CountRequests counts recorded requests with the given method and path prefix.
func (a *FakeAPI) CountRequests(method, prefix string) int {
	n := 0
	for _, r := range a.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

func (a *FakeAPI) ResetRequests() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = nil
}

func (a *FakeAPI) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
				raw, _ := json.Marshal(body)
				r.Body = io.NopCloser(strings.NewReader(string(raw)))
			}
		}

		a.mu.Lock()
		a.requests = append(a.requests, rec)
		for i, f := range a.failures {
			if f.method == r.Method && strings.HasPrefix(r.URL.Path, f.prefix) {
				a.failures = append(a.failures[:i], a.failures[i+1:]...)
				a.mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(f.status)
				_, _ = w.Write([]byte(f.body))
				return
			}
		}
		a.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (a *FakeAPI) payload(t *FakeTask) map[string]any {
	out := map[string]any{
		"id":           t.Id,
		"title":        t.Title,
		"description":  t.Description,
		"category":     t.Category,
		"quadrant":     t.Quadrant,
		"due_date":     t.DueDate.Format("2006-01-02T15:04:05"),
		"completed":    t.Completed,
		"reminder_set": t.ReminderSet,
		"tags":         t.Tags,
	}
	if a.CategoryAsID {
		out["category"] = nil
		for _, c := range a.categories {
			if c.Name == t.Category {
				out["category"] = c.Id
			}
		}
	}
	return out
}

func (a *FakeAPI) sortedTasks() []*FakeTask {
	out := make([]*FakeTask, 0, len(a.tasks))
	for _, t := range a.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (a *FakeAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	showCompleted := q.Get("show_completed") != "false"

	out := make([]map[string]any, 0, len(a.tasks))
	for _, t := range a.sortedTasks() {
		if search != "" && !strings.Contains(strings.ToLower(t.Title+" "+t.Description), search) {
			continue
		}
		if !showCompleted && t.Completed {
			continue
		}
		if q.Get("filter") == "completed" && !t.Completed {
			continue
		}
		out = append(out, a.payload(t))
	}
	if q.Get("sort_by") == "title" {
		sort.SliceStable(out, func(i, j int) bool {
			less := out[i]["title"].(string) < out[j]["title"].(string)
			if q.Get("sort_order") == "desc" {
				return !less
			}
			return less
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *FakeAPI) exportTasks(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks_export.csv"`)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "id,title,quadrant,completed")
	for _, t := range a.sortedTasks() {
		fmt.Fprintf(w, "%d,%s,%s,%t\n", t.Id, t.Title, t.Quadrant, t.Completed)
	}
}

func (a *FakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	title, _ := body["title"].(string)
	quadrant, _ := body["quadrant"].(string)
	dueRaw, _ := body["due_date"].(string)
	if title == "" || quadrant == "" || dueRaw == "" {
		writeErr(w, http.StatusBadRequest, "title, due_date and quadrant are required")
		return
	}
	due, err := time.ParseInLocation("2006-01-02T15:04:05", dueRaw, time.Local)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid due_date")
		return
	}

	task := FakeTask{Title: title, Quadrant: quadrant, DueDate: due}
	task.Description, _ = body["description"].(string)
	task.Category, _ = body["category"].(string)
	task.ReminderSet, _ = body["reminder_set"].(bool)
	id := a.AddTask(task)

	a.mu.Lock()
	defer a.mu.Unlock()
	writeJSON(w, http.StatusCreated, a.payload(a.tasks[id]))
}

func (a *FakeAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	task, ok := a.tasks[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}
	if v, ok := body["title"].(string); ok {
		task.Title = v
	}
	if v, ok := body["description"].(string); ok {
		task.Description = v
	}
	if v, ok := body["category"].(string); ok {
		task.Category = v
	}
	if v, ok := body["quadrant"].(string); ok {
		task.Quadrant = v
	}
	if v, ok := body["completed"].(bool); ok {
		task.Completed = v
	}
	if v, ok := body["reminder_set"].(bool); ok {
		task.ReminderSet = v
	}
	if v, ok := body["due_date"].(string); ok {
		if due, err := time.ParseInLocation("2006-01-02T15:04:05", v, time.Local); err == nil {
			task.DueDate = due
		}
	}
	writeJSON(w, http.StatusOK, a.payload(task))
}

func (a *FakeAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.tasks[id]; !ok {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}
	delete(a.tasks, id)
	writeJSON(w, http.StatusOK, map[string]any{"result": true})
}

func (a *FakeAPI) listCategories(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]FakeCategory, 0, len(a.categories))
	for _, c := range a.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	writeJSON(w, http.StatusOK, out)
}

func (a *FakeAPI) nameTaken(name string, except int) bool {
	for _, c := range a.categories {
		if c.Id != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (a *FakeAPI) createCategory(w http.ResponseWriter, r *http.Request) {
	var cat FakeCategory
	if err := json.NewDecoder(r.Body).Decode(&cat); err != nil || cat.Name == "" {
		writeErr(w, http.StatusBadRequest, "name is required")
		return
	}
	a.mu.Lock()
	taken := a.nameTaken(cat.Name, 0)
	a.mu.Unlock()
	if taken {
		writeErr(w, http.StatusBadRequest, "Category name must be unique")
		return
	}
	cat.Id = a.AddCategory(cat)
	writeJSON(w, http.StatusCreated, cat)
}

func (a *FakeAPI) getCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	cat, ok := a.categories[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "Category not found")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (a *FakeAPI) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	var in FakeCategory
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cat, ok := a.categories[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "Category not found")
		return
	}
	if a.nameTaken(in.Name, id) {
		writeErr(w, http.StatusBadRequest, "Category name must be unique")
		return
	}
	cat.Name, cat.Color, cat.Icon = in.Name, in.Color, in.Icon
	writeJSON(w, http.StatusOK, cat)
}

func (a *FakeAPI) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.categories[id]; !ok {
		writeErr(w, http.StatusNotFound, "Category not found")
		return
	}
	delete(a.categories, id)
	writeJSON(w, http.StatusOK, map[string]any{})
}
