package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/at-ishikawa/studyset/internal/inference"
)

// Kind is the classification of a failed backend call.
type Kind int

const (
	KindFatal Kind = iota
	KindOverloaded
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindOverloaded:
		return "overloaded"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "fatal"
	}
}

// Retryable reports whether a failure of this kind is worth another attempt.
func (k Kind) Retryable() bool {
	return k == KindOverloaded || k == KindRateLimited
}

var (
	// ErrRateLimited matches terminal errors caused by exhausting retries on quota errors.
	ErrRateLimited = errors.New("generation backend rate limited")
	// ErrRequestFailed matches every other terminal error.
	ErrRequestFailed = errors.New("generation backend request failed")
)

const (
	rateLimitedMessage = "The system is busy right now. Please wait a moment and try again."
	failedMessage      = "Something went wrong while contacting the study assistant. Please try again."
)

// Error is the terminal error of an executed operation.
type Error struct {
	Operation string
	Kind      Kind
	Attempts  uint
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s) (%s): %v", e.Operation, e.Attempts, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrRequestFailed:
		return e.Kind != KindRateLimited
	}
	return false
}

// UserMessage returns the text shown to the end user for this failure.
func (e *Error) UserMessage() string {
	if e.Kind == KindRateLimited {
		return rateLimitedMessage
	}
	return failedMessage
}

// UserMessage returns the user-facing text for any error returned by Execute.
func UserMessage(err error) string {
	if errors.Is(err, ErrRateLimited) {
		return rateLimitedMessage
	}
	return failedMessage
}

var (
	rateLimitMarkers = []string{"429", "resource_exhausted", "quota"}
	overloadMarkers  = []string{"503", "unavailable", "overloaded", "deadline exceeded"}
)

// Classify maps a backend failure to a Kind.
//
// The backend does not document its error shape, so this is best-effort: a parsed
// *inference.APIError is inspected first, then the error text is searched for known markers.
// Validation failures and anything unrecognised are fatal.
func Classify(err error) Kind {
	if err == nil || errors.Is(err, context.Canceled) {
		return KindFatal
	}
	if errors.Is(err, inference.ErrInvalidRequest) || errors.Is(err, inference.ErrInvalidResponse) {
		return KindFatal
	}

	var apiErr *inference.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED"):
			return KindRateLimited
		case apiErr.StatusCode == http.StatusServiceUnavailable || strings.EqualFold(apiErr.Status, "UNAVAILABLE"):
			return KindOverloaded
		}
	}

	text := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(text, marker) {
			return KindRateLimited
		}
	}
	for _, marker := range overloadMarkers {
		if strings.Contains(text, marker) {
			return KindOverloaded
		}
	}
	return KindFatal
}
