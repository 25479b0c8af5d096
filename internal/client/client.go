package client

import (
	"context"
	"io"

	"github.com/TWRT/eisenhower-matrix/internal/models"
)

type TaskLister interface {
	ListTasks(ctx context.Context, query models.TaskQuery) ([]models.Task, error)
}

type TaskWriter interface {
	CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int) error
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	CreateCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int, input models.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// ExportResult describes a finished export download.
type ExportResult struct {
	Filename string
	Bytes    int64
}

type Exporter interface {
	ExportTasks(ctx context.Context, query models.TaskQuery, w io.Writer) (ExportResult, error)
}

// RemoteTaskService is the only path through which task and category data
// crosses the network boundary.
type RemoteTaskService interface {
	TaskLister
	TaskWriter
	CategoryService
	Exporter
}
