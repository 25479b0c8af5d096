package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response that no narrower error type describes.
type HTTPError struct {
	Op      string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

func (e *HTTPError) Transient() bool {
	return e.Status >= http.StatusInternalServerError
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

type NotFoundError struct {
	Resource string
	Id       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.Id)
}

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("category name %q must be unique", e.Name)
}

func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsDuplicateName(err error) bool {
	var target *DuplicateNameError
	return errors.As(err, &target)
}

// StatusOf returns the HTTP status carried by err, or 0 when there is none.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsValidation(err), IsDuplicateName(err):
		return http.StatusBadRequest
	}
	return 0
}

// UserMessage turns err into the text shown to the user. fallback is used
// when err carries nothing more specific.
func UserMessage(err error, fallback string) string {
	var (
		netErr  *NetworkError
		dupErr  *DuplicateNameError
		valErr  *ValidationError
		nfErr   *NotFoundError
		httpErr *HTTPError
	)
	switch {
	case err == nil:
		return fallback
	case errors.As(err, &netErr):
		return "Could not reach the server"
	case errors.As(err, &dupErr):
		return "Category name must be unique"
	case errors.As(err, &valErr):
		if valErr.Message == "" {
			return "Invalid request"
		}
		return valErr.Message
	case errors.As(err, &nfErr):
		if nfErr.Resource == "" {
			return "Not found"
		}
		return strings.ToUpper(nfErr.Resource[:1]) + nfErr.Resource[1:] + " not found"
	case errors.As(err, &httpErr):
		if httpErr.Transient() {
			return "Something went wrong on the server, please try again"
		}
		if httpErr.Message != "" {
			return httpErr.Message
		}
	}
	return fallback
}
