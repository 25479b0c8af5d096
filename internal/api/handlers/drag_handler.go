package handlers

import (
	"net/http"
	"time"

	"github.com/TWRT/eisenhower-matrix/internal/client"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/service"
)

type DragRequestBody struct {
	TaskID   int    `json:"task_id"`
	Quadrant string `json:"quadrant"`
}

// DragHandler exposes the gesture events of a card drag.
type DragHandler struct {
	matrixService *service.MatrixService
}

func NewDragHandler(matrixService *service.MatrixService) *DragHandler {
	return &DragHandler{
		matrixService: matrixService,
	}
}

func (h *DragHandler) writeState(w http.ResponseWriter, status int, extra map[string]interface{}) {
	body := map[string]interface{}{
		"state": h.matrixService.Drag().State(),
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func (h *DragHandler) Start(w http.ResponseWriter, r *http.Request) {
	var body DragRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.matrixService.Drag().DragStart(body.TaskID) {
		writeFailure(w, &client.NotFoundError{Resource: "task", Id: body.TaskID})
		return
	}
	h.writeState(w, http.StatusOK, nil)
}

func (h *DragHandler) Enter(w http.ResponseWriter, r *http.Request) {
	var body DragRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	accepted := h.matrixService.Drag().DragEnter(models.Quadrant(body.Quadrant))
	h.writeState(w, http.StatusOK, map[string]interface{}{"accepted": accepted})
}

func (h *DragHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var body DragRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.matrixService.Drag().DragLeave(models.Quadrant(body.Quadrant))
	h.writeState(w, http.StatusOK, nil)
}

// Drop answers with the outcome and the reconciled board. A failed move is
// reported in the body; the board already shows the server's state.
func (h *DragHandler) Drop(w http.ResponseWriter, r *http.Request) {
	var body DragRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome, err := h.matrixService.Drag().Drop(r.Context(), models.Quadrant(body.Quadrant))
	resp := map[string]interface{}{
		"outcome": outcome,
		"board":   h.matrixService.Board(time.Now()),
	}
	status := http.StatusOK
	if err != nil {
		resp["error"] = client.UserMessage(err, serverFailure)
		status = statusFor(err)
	}
	h.writeState(w, status, resp)
}

func (h *DragHandler) End(w http.ResponseWriter, r *http.Request) {
	h.matrixService.Drag().DragEnd()
	h.writeState(w, http.StatusOK, nil)
}
