package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/TWRT/eisenhower-matrix/internal/client"
)

const serverFailure = "Something went wrong on the server, please try again"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps a service error to a status and the user-facing message.
func writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), client.UserMessage(err, serverFailure))
}

func statusFor(err error) int {
	switch {
	case client.IsDuplicateName(err):
		return http.StatusConflict
	case client.IsValidation(err):
		return http.StatusBadRequest
	case client.IsNotFound(err):
		return http.StatusNotFound
	case client.IsNetwork(err):
		return http.StatusBadGateway
	}
	status := client.StatusOf(err)
	switch {
	case status >= 500:
		return http.StatusBadGateway
	case status >= 400:
		return status
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("JSON error: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}
