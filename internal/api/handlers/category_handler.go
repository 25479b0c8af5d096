package handlers

import (
	"net/http"

	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/service"
)

type CategoryRequestBody struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (b CategoryRequestBody) input() models.CategoryInput {
	return models.CategoryInput{Name: b.Name, Color: b.Color, Icon: b.Icon}
}

type CategoryHandler struct {
	matrixService *service.MatrixService
}

func NewCategoryHandler(matrixService *service.MatrixService) *CategoryHandler {
	return &CategoryHandler{
		matrixService: matrixService,
	}
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.matrixService.Categories(),
	})
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body CategoryRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cat, err := h.matrixService.CreateCategory(r.Context(), body.input())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body CategoryRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cat, err := h.matrixService.UpdateCategory(r.Context(), id, body.input())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.matrixService.DeleteCategory(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"result": true})
}
