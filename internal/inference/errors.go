package inference

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest is returned when a request fails validation before any backend call.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidResponse is returned when the backend answers with a payload the study tools cannot use.
	ErrInvalidResponse = errors.New("invalid response from generation backend")
)

// APIError is an error response parsed from the generation backend.
type APIError struct {
	StatusCode int    `json:"code"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("generation backend error %d %s: %s", e.StatusCode, status, e.Message)
}
