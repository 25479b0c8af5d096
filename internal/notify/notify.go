// Package notify carries user-visible notifications to the log, a bounded
// in-memory history and any extra sinks.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Notifier interface {
	Notify(level Level, message string) Notification
}

// Sink persists notifications somewhere outside the process.
type Sink interface {
	Save(ctx context.Context, n Notification) error
}

const defaultHistory = 50

type Center struct {
	logger *slog.Logger
	sinks  []Sink
	limit  int

	mu     sync.Mutex
	recent []Notification
}

func NewCenter(logger *slog.Logger, sinks ...Sink) *Center {
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{logger: logger, sinks: sinks, limit: defaultHistory}
}

func (c *Center) Notify(level Level, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if level == LevelError {
		c.logger.Warn("notification", "id", n.ID, "level", level, "message", message)
	} else {
		c.logger.Info("notification", "id", n.ID, "level", level, "message", message)
	}

	c.mu.Lock()
	c.recent = append(c.recent, n)
	if len(c.recent) > c.limit {
		c.recent = c.recent[len(c.recent)-c.limit:]
	}
	c.mu.Unlock()

	for _, sink := range c.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := sink.Save(ctx, n); err != nil {
			c.logger.Error("persist notification", "id", n.ID, "error", err)
		}
		cancel()
	}
	return n
}

func (c *Center) Success(message string) Notification {
	return c.Notify(LevelSuccess, message)
}

func (c *Center) Error(message string) Notification {
	return c.Notify(LevelError, message)
}

// Recent returns up to n notifications, newest last. n <= 0 returns all kept.
func (c *Center) Recent(n int) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := 0
	if n > 0 && len(c.recent) > n {
		start = len(c.recent) - n
	}
	out := make([]Notification, len(c.recent)-start)
	copy(out, c.recent[start:])
	return out
}

// Last returns the newest notification, if any.
func (c *Center) Last() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.recent) == 0 {
		return Notification{}, false
	}
	return c.recent[len(c.recent)-1], true
}

// Count returns how many kept notifications have the given level.
func (c *Center) Count(level Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.recent {
		if item.Level == level {
			n++
		}
	}
	return n
}
