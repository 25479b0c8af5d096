package matrix

import (
	"encoding/json"
	"strings"
)

type TaskRecord struct {
	Id          int             `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Category    json.RawMessage `json:"category"`
	CategoryID  *int            `json:"category_id"`
	Quadrant    string          `json:"quadrant"`
	DueDate     *string         `json:"due_date"`
	Completed   bool            `json:"completed"`
	ReminderSet bool            `json:"reminder_set"`
	Tags        TagList         `json:"tags"`
}

// CategoryRef is the object form some API revisions use for a task's category.
type CategoryRef struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

type CategoryRecord struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	DueDate     string   `json:"due_date"`
	Quadrant    string   `json:"quadrant"`
	ReminderSet bool     `json:"reminder_set,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type CategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// TagList accepts either a JSON array of strings or a comma separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	var tags []string
	for _, part := range strings.Split(joined, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	*t = tags
	return nil
}
