package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrTaskNotFound is returned when a task does not exist or belongs to another user.
	ErrTaskNotFound = errors.New("Task not found")
	// ErrTitleRequired is returned when a task title is missing or blank.
	ErrTitleRequired = errors.New("Title is required")
	// ErrTitleEmpty is returned when an update would blank out the title.
	ErrTitleEmpty = errors.New("Title cannot be empty")
	// ErrTitleTooLong is returned when a task title exceeds the limit.
	ErrTitleTooLong = errors.New("Title must be less than 200 characters")
	// ErrInvalidStatus is returned when a task status is not a known value.
	ErrInvalidStatus = errors.New("Invalid status. Must be TODO, IN_PROGRESS, or COMPLETED")
	// ErrInvalidPriority is returned when a task priority is not a known value.
	ErrInvalidPriority = errors.New("Invalid priority. Must be low, medium, or high")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch err {
	case ErrTaskNotFound:
		return NewHTTPError(http.StatusNotFound, err.Error(), "TASK_NOT_FOUND")
	case ErrTitleRequired:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TITLE_REQUIRED")
	case ErrTitleEmpty:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TITLE_EMPTY")
	case ErrTitleTooLong:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TITLE_TOO_LONG")
	case ErrInvalidStatus:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	case ErrInvalidPriority:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_PRIORITY")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
