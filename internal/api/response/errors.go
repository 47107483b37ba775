package response

import "net/http"

// Error represents an API error response.
type Error struct {
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Standard errors
var (
	ErrUnauthorized = &Error{
		Message: "Not authorized",
		Status:  http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &Error{
		Message: "Invalid email or password",
		Status:  http.StatusUnauthorized,
	}

	ErrForbidden = &Error{
		Message: "Access denied",
		Status:  http.StatusForbidden,
	}

	ErrUserNotFound = &Error{
		Message: "User not found",
		Status:  http.StatusNotFound,
	}

	ErrInternalServer = &Error{
		Message: "Server error",
		Status:  http.StatusInternalServerError,
	}

	ErrRateLimited = &Error{
		Message: "Too many requests",
		Status:  http.StatusTooManyRequests,
	}
)

// NewBadRequest creates a bad request error with custom message.
func NewBadRequest(message string) *Error {
	return &Error{
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewValidationError creates a 400 whose detail carries the underlying
// validation failure.
func NewValidationError(message string, cause error) *Error {
	e := NewBadRequest(message)
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// NewConflict creates a conflict error with custom message.
func NewConflict(message string) *Error {
	return &Error{
		Message: message,
		Status:  http.StatusConflict,
	}
}

// NewNotFound creates a not found error with custom message.
func NewNotFound(message string) *Error {
	return &Error{
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewUnavailable creates a 503 for a missing or failing upstream.
func NewUnavailable(message string) *Error {
	return &Error{
		Message: message,
		Status:  http.StatusServiceUnavailable,
	}
}
