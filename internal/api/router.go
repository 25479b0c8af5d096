package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/TWRT/eisenhower-matrix/internal/api/handlers"
	"github.com/TWRT/eisenhower-matrix/internal/service"
)

func SetupRouter(matrixService *service.MatrixService, notifications handlers.NotificationLister, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	boardHandler := handlers.NewBoardHandler(matrixService, notifications)
	taskHandler := handlers.NewTaskHandler(matrixService)
	dragHandler := handlers.NewDragHandler(matrixService)
	categoryHandler := handlers.NewCategoryHandler(matrixService)

	mux.HandleFunc("GET /board", boardHandler.GetBoard)
	mux.HandleFunc("POST /board/refresh", boardHandler.RefreshBoard)
	mux.HandleFunc("GET /filter", boardHandler.GetFilter)
	mux.HandleFunc("PUT /filter", boardHandler.UpdateFilter)
	mux.HandleFunc("GET /notifications", boardHandler.ListNotifications)
	mux.HandleFunc("GET /preferences/theme", boardHandler.GetTheme)
	mux.HandleFunc("PUT /preferences/theme", boardHandler.UpdateTheme)

	mux.HandleFunc("GET /tasks/export", taskHandler.ExportTasks)
	mux.HandleFunc("POST /exports", taskHandler.SaveExport)
	mux.HandleFunc("GET /exports", taskHandler.ListExports)
	mux.HandleFunc("GET /tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("POST /tasks", taskHandler.CreateTask)
	mux.HandleFunc("PUT /tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("POST /tasks/{id}/toggle", taskHandler.ToggleTask)
	mux.HandleFunc("DELETE /tasks/{id}", taskHandler.DeleteTask)

	mux.HandleFunc("POST /drag/start", dragHandler.Start)
	mux.HandleFunc("POST /drag/enter", dragHandler.Enter)
	mux.HandleFunc("POST /drag/leave", dragHandler.Leave)
	mux.HandleFunc("POST /drag/drop", dragHandler.Drop)
	mux.HandleFunc("POST /drag/end", dragHandler.End)

	mux.HandleFunc("GET /categories", categoryHandler.ListCategories)
	mux.HandleFunc("POST /categories", categoryHandler.CreateCategory)
	mux.HandleFunc("PUT /categories/{id}", categoryHandler.UpdateCategory)
	mux.HandleFunc("DELETE /categories/{id}", categoryHandler.DeleteCategory)

	return logRequests(mux, logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(started))
	})
}
