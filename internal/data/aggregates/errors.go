package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
)

var (
	ErrValidation   = errors.New("counter validation")
	ErrInvariant    = errors.New("counter invariant violation")
	ErrConflict     = errors.New("counter conflict")
	ErrRetryable    = errors.New("counter retryable")
	ErrPrecondition = errors.New("counter precondition failed")
)

func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

func InvariantError(msg string) error {
	return errors.Join(ErrInvariant, errors.New(strings.TrimSpace(msg)))
}

func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

func PreconditionError(msg string) error {
	return errors.Join(ErrPrecondition, errors.New(strings.TrimSpace(msg)))
}

// MapError classifies storage and domain failures into aggregate error codes. A unique
// violation is a conflict on every backend; lost connections and lock contention are retryable.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, ErrInvariant):
		return domainagg.Wrap(domainagg.CodeInvariantViolation, op, err)
	case errors.Is(err, ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, ErrPrecondition):
		return domainagg.Wrap(domainagg.CodePreconditionFailed, op, err)
	case errors.Is(err, ErrRetryable):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	case errors.Is(err, context.Canceled):
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case code == "23505":
			return domainagg.Wrap(domainagg.CodeConflict, op, err) // unique_violation
		case code == "40001", code == "40P01", code == "55P03":
			return domainagg.Wrap(domainagg.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		case strings.HasPrefix(code, "08"), code == "57P01", code == "53300":
			return domainagg.Wrap(domainagg.CodeRetryable, op, err) // connection exception/admin shutdown/too many connections
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "bad connection"),
		strings.Contains(msg, "database is locked"):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	default:
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
}
