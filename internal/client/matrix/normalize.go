package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/models"
)

// Due dates come back as Python isoformat strings, with or without a zone.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dueDateLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse due_date (matrix): unrecognized timestamp %q", s)
}

func formatDueDate(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02T15:04:05")
}

// categoryField is the decoded shape of a task's category, whichever
// representation the server used.
type categoryField struct {
	name string
	id   *int
}

func decodeCategory(raw json.RawMessage) (categoryField, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return categoryField{}, nil
	}

	switch raw[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return categoryField{}, err
		}
		return categoryField{name: strings.TrimSpace(name)}, nil
	case '{':
		var ref CategoryRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return categoryField{}, err
		}
		id := ref.Id
		return categoryField{name: strings.TrimSpace(ref.Name), id: &id}, nil
	default:
		var id int
		if err := json.Unmarshal(raw, &id); err != nil {
			return categoryField{}, err
		}
		return categoryField{id: &id}, nil
	}
}

// missingCategoryNames reports whether any record references a category only
// by an id the client cannot name yet.
func (c *MatrixClient) missingCategoryNames(records []TaskRecord) bool {
	for _, rec := range records {
		field, err := decodeCategory(rec.Category)
		if err != nil {
			continue
		}
		if field.id == nil && rec.CategoryID != nil {
			field.id = rec.CategoryID
		}
		if field.name == "" && field.id != nil {
			if _, ok := c.categoryName(*field.id); !ok {
				return true
			}
		}
	}
	return false
}

func (c *MatrixClient) toTaskResolved(ctx context.Context, rec TaskRecord) (*models.Task, error) {
	if c.missingCategoryNames([]TaskRecord{rec}) {
		if _, err := c.ListCategories(ctx); err != nil {
			c.logger.Warn("resolve task category", "task_id", rec.Id, "error", err)
		}
	}
	task, err := c.toTask(rec)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// toTask normalizes a wire record. The category always ends up as a name.
func (c *MatrixClient) toTask(rec TaskRecord) (models.Task, error) {
	field, err := decodeCategory(rec.Category)
	if err != nil {
		return models.Task{}, fmt.Errorf("parse category of task %d (matrix): %w", rec.Id, err)
	}
	if field.id == nil && rec.CategoryID != nil {
		id := *rec.CategoryID
		field.id = &id
	}
	if field.name == "" && field.id != nil {
		field.name, _ = c.categoryName(*field.id)
	}

	var due time.Time
	if rec.DueDate != nil {
		due, err = parseDueDate(*rec.DueDate)
		if err != nil {
			return models.Task{}, err
		}
	}

	var description string
	if rec.Description != nil {
		description = *rec.Description
	}

	return models.Task{
		Id:          rec.Id,
		Title:       rec.Title,
		Description: description,
		Category:    field.name,
		CategoryID:  field.id,
		Quadrant:    models.Quadrant(rec.Quadrant),
		DueDate:     due,
		Completed:   rec.Completed,
		ReminderSet: rec.ReminderSet,
		Tags:        []string(rec.Tags),
	}, nil
}

// ValidateTaskInput runs the presence checks the server would otherwise
// reject with a 400.
func ValidateTaskInput(input models.TaskInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return &client.ValidationError{Field: "title", Message: "title is required"}
	}
	if input.DueDate.IsZero() {
		return &client.ValidationError{Field: "due_date", Message: "due date is required"}
	}
	if input.Quadrant == "" {
		return &client.ValidationError{Field: "quadrant", Message: "quadrant is required"}
	}
	if !input.Quadrant.Valid() {
		return &client.ValidationError{Field: "quadrant", Message: fmt.Sprintf("unknown quadrant %q", input.Quadrant)}
	}
	return nil
}

func ValidateTaskPatch(p models.TaskPatch) error {
	if p.IsEmpty() {
		return &client.ValidationError{Message: "nothing to update"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &client.ValidationError{Field: "title", Message: "title cannot be empty"}
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return &client.ValidationError{Field: "due_date", Message: "due date cannot be empty"}
	}
	if p.Quadrant != nil && !p.Quadrant.Valid() {
		return &client.ValidationError{Field: "quadrant", Message: fmt.Sprintf("unknown quadrant %q", *p.Quadrant)}
	}
	return nil
}

func ValidateCategoryInput(input models.CategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return &client.ValidationError{Field: "name", Message: "category name is required"}
	}
	return nil
}
