package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/TWRT/eisenhower-matrix/internal/filter"
	"github.com/TWRT/eisenhower-matrix/internal/notify"
	"github.com/TWRT/eisenhower-matrix/internal/service"
)

type NotificationLister interface {
	Recent(n int) []notify.Notification
}

type BoardHandler struct {
	matrixService *service.MatrixService
	notifications NotificationLister
	now           func() time.Time
}

func NewBoardHandler(matrixService *service.MatrixService, notifications NotificationLister) *BoardHandler {
	return &BoardHandler{
		matrixService: matrixService,
		notifications: notifications,
		now:           time.Now,
	}
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.matrixService.Board(h.now()))
}

// RefreshBoard reloads from the server. A failed load is still a board, with
// its error field set.
func (h *BoardHandler) RefreshBoard(w http.ResponseWriter, r *http.Request) {
	_ = h.matrixService.Refresh(r.Context())
	writeJSON(w, http.StatusOK, h.matrixService.Board(h.now()))
}

func (h *BoardHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.matrixService.Filter().Settings())
}

func (h *BoardHandler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	var settings filter.Settings
	if err := decodeBody(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.matrixService.Filter().Apply(settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filter": h.matrixService.Filter().Settings(),
		"board":  h.matrixService.Board(h.now()),
	})
}

func (h *BoardHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": h.notifications.Recent(limit),
	})
}

func (h *BoardHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.matrixService.Theme()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error trying to read the theme: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(theme)})
}

func (h *BoardHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	theme, err := h.matrixService.SetTheme(body.Theme)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(theme)})
}
