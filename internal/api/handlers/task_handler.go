package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/service"
)

type CreateTaskRequestBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	DueDate     string   `json:"due_date"`
	Quadrant    string   `json:"quadrant"`
	ReminderSet bool     `json:"reminder_set"`
	Tags        []string `json:"tags"`
}

// UpdateTaskRequestBody carries only the fields being changed.
type UpdateTaskRequestBody struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	DueDate     *string   `json:"due_date"`
	Quadrant    *string   `json:"quadrant"`
	Completed   *bool     `json:"completed"`
	ReminderSet *bool     `json:"reminder_set"`
	Tags        *[]string `json:"tags"`
}

func (b UpdateTaskRequestBody) patch() (models.TaskPatch, error) {
	p := models.TaskPatch{
		Title:       b.Title,
		Description: b.Description,
		Category:    b.Category,
		Completed:   b.Completed,
		ReminderSet: b.ReminderSet,
		Tags:        b.Tags,
	}
	if b.DueDate != nil {
		due, err := models.ParseDueInput(*b.DueDate)
		if err != nil {
			return models.TaskPatch{}, err
		}
		p.DueDate = &due
	}
	if b.Quadrant != nil {
		q := models.Quadrant(strings.TrimSpace(*b.Quadrant))
		p.Quadrant = &q
	}
	return p, nil
}

type TaskHandler struct {
	matrixService *service.MatrixService
}

func NewTaskHandler(matrixService *service.MatrixService) *TaskHandler {
	return &TaskHandler{
		matrixService: matrixService,
	}
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := h.matrixService.GetTask(id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var body CreateTaskRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := models.TaskInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		Quadrant:    models.Quadrant(strings.TrimSpace(body.Quadrant)),
		ReminderSet: body.ReminderSet,
		Tags:        body.Tags,
	}
	if strings.TrimSpace(body.DueDate) != "" {
		due, err := models.ParseDueInput(body.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input.DueDate = due
	}

	task, err := h.matrixService.CreateTask(r.Context(), input)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body UpdateTaskRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := body.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.matrixService.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := h.matrixService.ToggleCompleted(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.matrixService.DeleteTask(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"result": true})
}

// ExportTasks passes the backend CSV for the current filter through.
func (h *TaskHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	res, err := h.matrixService.WriteExport(r.Context(), &buf)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(res.Bytes, 10))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// SaveExport writes the export into the configured directory.
func (h *TaskHandler) SaveExport(w http.ResponseWriter, r *http.Request) {
	res, err := h.matrixService.Export(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"path":  res.Path,
		"bytes": res.Bytes,
	})
}

type exportRecord struct {
	Id          int64      `json:"id"`
	Filename    string     `json:"filename"`
	Path        string     `json:"path"`
	Status      string     `json:"status"`
	Bytes       int64      `json:"bytes"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (h *TaskHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.matrixService.RecentExports(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error trying to list exports: "+err.Error())
		return
	}
	out := make([]exportRecord, 0, len(exports))
	for _, e := range exports {
		out = append(out, exportRecord{
			Id:          e.Id,
			Filename:    e.Filename,
			Path:        e.Path,
			Status:      e.Status,
			Bytes:       e.Bytes,
			Error:       e.ErrorMessage,
			StartedAt:   e.StartedAt,
			CompletedAt: e.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exports": out})
}
