package apierr

import (
	"fmt"
	"net/http"
)

// Error carries an explicit HTTP status and code for failures detected at the edge,
// before any service is called.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// InvalidRequest is a 400 for malformed paths, queries or bodies.
func InvalidRequest(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "invalid_request", fmt.Errorf(format, args...))
}
