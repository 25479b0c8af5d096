package repository

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	ExportRunning   = "running"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

// Export records one CSV download written to disk.
type Export struct {
	Id           int64
	Filename     string
	Path         string
	Query        string
	Status       string
	Bytes        int64
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

type ExportRepository struct {
	db *sql.DB
}

func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Create(export *Export) (int64, error) {
	query := `
	INSERT INTO exports (filename, path, query, status, started_at)
        VALUES (?, ?, ?, ?, ?)
	`
	if export.StartedAt.IsZero() {
		export.StartedAt = time.Now()
	}
	if export.Status == "" {
		export.Status = ExportRunning
	}

	result, err := r.db.Exec(query,
		export.Filename,
		export.Path,
		export.Query,
		export.Status,
		export.StartedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("create export: %w", err)
	}
	return result.LastInsertId()
}

func (r *ExportRepository) Complete(id int64, filename, path string, bytes int64) error {
	query := `
	UPDATE exports SET status = ?, filename = ?, path = ?, bytes = ?, completed_at = ?
        WHERE id = ?
	`
	_, err := r.db.Exec(query, ExportCompleted, filename, path, bytes, time.Now(), id)
	return err
}

func (r *ExportRepository) Fail(id int64, message string) error {
	query := `UPDATE exports SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`
	_, err := r.db.Exec(query, ExportFailed, message, time.Now(), id)
	return err
}

// GetExports returns up to limit exports, newest first.
func (r *ExportRepository) GetExports(limit int) ([]Export, error) {
	query := `
	SELECT id, filename, path, query, status, bytes, error_message, started_at, completed_at
        FROM exports ORDER BY id DESC LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("get exports: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		var e Export
		var completed sql.NullTime
		err := rows.Scan(
			&e.Id,
			&e.Filename,
			&e.Path,
			&e.Query,
			&e.Status,
			&e.Bytes,
			&e.ErrorMessage,
			&e.StartedAt,
			&completed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			e.CompletedAt = &t
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
