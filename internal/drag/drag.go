// Package drag turns card drag gestures into quadrant moves.
package drag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/notify"
)

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseDragging Phase = "dragging"
	PhaseHovering Phase = "hovering"
)

// State is the current gesture. Target is set only while hovering.
type State struct {
	Phase  Phase           `json:"phase"`
	TaskID int             `json:"task_id,omitempty"`
	Source models.Quadrant `json:"source,omitempty"`
	Target models.Quadrant `json:"target,omitempty"`
}

type DropOutcome string

const (
	DropMoved   DropOutcome = "moved"
	DropNoOp    DropOutcome = "no-op"
	DropIgnored DropOutcome = "ignored"
	DropFailed  DropOutcome = "failed"
)

// Store is what the controller needs from the task cache.
type Store interface {
	GetByID(id int) (models.Task, bool)
	Overlay() map[int]models.Quadrant
	SetProvisional(taskID int, q models.Quadrant)
	Refresh(ctx context.Context, q models.TaskQuery) error
}

type TaskUpdater interface {
	UpdateTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error)
}

type Controller struct {
	store    Store
	remote   TaskUpdater
	notifier notify.Notifier
	query    func() models.TaskQuery
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// NewController wires a controller. query supplies the current filter for
// the refresh that follows every drop; nil means unfiltered.
func NewController(store Store, remote TaskUpdater, notifier notify.Notifier, query func() models.TaskQuery, logger *slog.Logger) *Controller {
	if query == nil {
		query = func() models.TaskQuery { return models.TaskQuery{} }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    store,
		remote:   remote,
		notifier: notifier,
		query:    query,
		logger:   logger,
		state:    State{Phase: PhaseIdle},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DragStart begins dragging taskID. It returns false, leaving the controller
// idle, when the task is not in the store.
func (c *Controller) DragStart(taskID int) bool {
	task, ok := c.store.GetByID(taskID)
	if !ok {
		c.logger.Warn("drag start on unknown task", "task_id", taskID)
		c.reset()
		return false
	}

	source := task.Quadrant
	if q, pending := c.store.Overlay()[taskID]; pending {
		source = q
	}

	c.mu.Lock()
	c.state = State{Phase: PhaseDragging, TaskID: taskID, Source: source}
	c.mu.Unlock()
	return true
}

// DragEnter marks q as the hovered quadrant.
func (c *Controller) DragEnter(q models.Quadrant) bool {
	if !q.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseIdle {
		return false
	}
	c.state.Phase = PhaseHovering
	c.state.Target = q
	return true
}

func (c *Controller) DragLeave(q models.Quadrant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseHovering && c.state.Target == q {
		c.state.Phase = PhaseDragging
		c.state.Target = ""
	}
}

// DragEnd clears the gesture however it ended.
func (c *Controller) DragEnd() {
	c.reset()
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.state = State{Phase: PhaseIdle}
	c.mu.Unlock()
}

// Drop finishes the gesture over target. A move sends one quadrant-only
// update and then refreshes the store whether or not the update succeeded.
// The gesture is released before any network call.
func (c *Controller) Drop(ctx context.Context, target models.Quadrant) (DropOutcome, error) {
	c.mu.Lock()
	state := c.state
	if state.Phase == PhaseIdle || !target.Valid() {
		c.mu.Unlock()
		return DropIgnored, nil
	}
	c.state = State{Phase: PhaseIdle}
	c.mu.Unlock()

	if state.Source == target {
		return DropNoOp, nil
	}

	c.store.SetProvisional(state.TaskID, target)
	_, err := c.remote.UpdateTask(ctx, state.TaskID, models.QuadrantPatch(target))
	if err != nil {
		c.logger.Error("move task", "task_id", state.TaskID, "from", state.Source, "to", target, "error", err)
		c.notify(notify.LevelError, "Failed to move task: "+client.UserMessage(err, "please try again"))
	} else {
		c.logger.Info("move task", "task_id", state.TaskID, "from", state.Source, "to", target)
		c.notify(notify.LevelSuccess, "Task moved successfully")
	}

	// The update may already be applied server-side, so the reload must
	// survive a caller that has gone away.
	if rerr := c.store.Refresh(context.WithoutCancel(ctx), c.query()); rerr != nil {
		c.logger.Warn("refresh after drop", "error", rerr)
	}

	if err != nil {
		return DropFailed, fmt.Errorf("move task %d to %s: %w", state.TaskID, target, err)
	}
	return DropMoved, nil
}

func (c *Controller) notify(level notify.Level, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(level, msg)
	}
}
