package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TransportError is a failure to reach the backend at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response. Message carries the server-provided
// error field when there was one.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// EnvelopeError is a 2xx response whose envelope reported success:false.
type EnvelopeError struct {
	Op      string
	Message string
}

func (e *EnvelopeError) Error() string {
	return e.Message
}

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func httpStatusMessage(code int) string {
	return fmt.Sprintf("HTTP error! status: %d", code)
}

// Message normalizes any error into the string shown to the visitor.
// fallback is used when err carries nothing displayable.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var (
		statusErr     *StatusError
		envelopeErr   *EnvelopeError
		validationErr *ValidationError
		transportErr  *TransportError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &envelopeErr):
		if envelopeErr.Message != "" {
			return envelopeErr.Message
		}
	case errors.As(err, &statusErr):
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return httpStatusMessage(statusErr.Code)
	case errors.As(err, &transportErr):
		if errors.Is(err, context.DeadlineExceeded) {
			return "The events service took too long to respond"
		}
		return "Could not reach the events service"
	}
	if fallback != "" {
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "An error occurred"
}

// HTTPStatus picks the status a page should be served with for err.
func HTTPStatus(err error) int {
	var (
		statusErr     *StatusError
		envelopeErr   *EnvelopeError
		validationErr *ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &statusErr):
		if statusErr.Code == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.As(err, &envelopeErr):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

var validate = validator.New()

var fieldMessages = map[string]string{
	"Email":     "Please enter a valid email address",
	"EventID":   "Email and eventId are required",
	"Page":      "Page must be at least 1",
	"Limit":     "Limit must be greater than zero",
	"StartDate": "Start date must be a calendar day (YYYY-MM-DD)",
	"EndDate":   "End date must be a calendar day (YYYY-MM-DD)",
}

// Validate runs struct tag validation and converts the first failure into a ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	field := fieldErrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return &ValidationError{Field: field, Message: msg}
}
