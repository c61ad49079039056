package api

import "fmt"

// ErrorType classifies an API failure so callers can branch on the
// condition instead of matching message strings.
type ErrorType int

const (
	ErrNetworkError ErrorType = iota
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInternalServer
	ErrServiceUnavailable
)

// APIError carries the failure kind, the server's message and the HTTP
// status it arrived with. Status is 0 when the request never reached the
// server.
type APIError struct {
	Type    ErrorType
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(errorType ErrorType, message string, status int) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
		Status:  status,
	}
}

// NewNetworkError wraps a transport fault that produced no HTTP response.
func NewNetworkError(err error) *APIError {
	return NewAPIError(ErrNetworkError, fmt.Sprintf("Network error: %v", err), 0)
}
