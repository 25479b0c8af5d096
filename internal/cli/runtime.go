package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/TWRT/eisenhower-matrix/internal/client/matrix"
	"github.com/TWRT/eisenhower-matrix/internal/config"
	"github.com/TWRT/eisenhower-matrix/internal/notify"
	"github.com/TWRT/eisenhower-matrix/internal/render"
	"github.com/TWRT/eisenhower-matrix/internal/repository"
	"github.com/TWRT/eisenhower-matrix/internal/service"
)

// Runtime is everything a command needs, built once per invocation.
type Runtime struct {
	Config        config.Config
	Logger        *slog.Logger
	Service       *service.MatrixService
	Center        *notify.Center
	Notifications *repository.NotificationRepository
	db            *sql.DB
}

func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Builder creates the runtime after flags are parsed. out receives
// user-facing notifications.
type Builder func(ctx context.Context, out io.Writer, verbose bool) (*Runtime, error)

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// DefaultBuilder wires the real backend client and the local database
// described by cfg.
func DefaultBuilder(cfg config.Config) Builder {
	return func(ctx context.Context, out io.Writer, verbose bool) (*Runtime, error) {
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger := NewLogger(os.Stderr, level)
		return Bootstrap(cfg, logger, out)
	}
}

func Bootstrap(cfg config.Config, logger *slog.Logger, out io.Writer) (*Runtime, error) {
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init local db: %w", err)
	}

	notifications := repository.NewNotificationRepository(db)
	center := notify.NewCenter(logger.With("component", "notify"), notifications, newPrintSink(out))
	remote := matrix.NewMatrixClient(cfg.APIURL, cfg.HTTPTimeout, logger.With("component", "matrix"))

	svc := service.NewMatrixService(remote, center, service.Options{
		Preferences: repository.NewPreferenceRepository(db),
		Exports:     repository.NewExportRepository(db),
		ExportDir:   cfg.ExportDir,
		Logger:      logger,
	})

	return &Runtime{
		Config:        cfg,
		Logger:        logger,
		Service:       svc,
		Center:        center,
		Notifications: notifications,
		db:            db,
	}, nil
}

// printSink shows notifications to the person at the terminal.
type printSink struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
}

func newPrintSink(out io.Writer) *printSink {
	s := &printSink{
		out:     out,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
	if !render.ColorEnabled(out) {
		s.success.DisableColor()
		s.failure.DisableColor()
	} else {
		s.success.EnableColor()
		s.failure.EnableColor()
	}
	return s
}

func (s *printSink) Save(_ context.Context, n notify.Notification) error {
	if s.out == nil {
		return nil
	}
	var line string
	switch n.Level {
	case notify.LevelError:
		line = s.failure.Sprint("✗ " + n.Message)
	case notify.LevelSuccess:
		line = s.success.Sprint("✓ " + n.Message)
	default:
		line = n.Message
	}
	_, err := fmt.Fprintln(s.out, line)
	return err
}
