package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TWRT/eisenhower-matrix/internal/notify"
)

// NotificationRepository keeps the notification history across runs. It is
// a notify.Sink.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Save(ctx context.Context, n notify.Notification) error {
	query := `
	INSERT INTO notifications (id, level, message, created_at)
        VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, n.ID, string(n.Level), n.Message, n.CreatedAt); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// ListRecent returns up to limit notifications, newest first.
func (r *NotificationRepository) ListRecent(limit int) ([]notify.Notification, error) {
	query := `
	SELECT id, level, message, created_at FROM notifications
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []notify.Notification
	for rows.Next() {
		var n notify.Notification
		var level string
		if err := rows.Scan(&n.ID, &level, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Level = notify.Level(level)
		out = append(out, n)
	}
	return out, rows.Err()
}
