package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode classifies a failed ledger write so callers can decide what to do next.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

// Error renders "op: code: message", dropping empty parts.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Op, string(e.Code), e.Message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap classifies err under code. The cause stays reachable through errors.Is/As.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// CodeOf returns the code of the outermost *Error in the chain, or "".
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Retryable reports whether the same write may be submitted again unchanged. A conflict
// never is: the caller has to re-read the high-water mark and pick a new number.
func Retryable(err error) bool {
	return IsCode(err, CodeRetryable)
}
