package services

import (
	"errors"
	"fmt"

	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
)

var (
	// ErrStorageUnavailable means retries against the backend were exhausted. It is distinct
	// from a validation rejection, which is a normal result and not an error.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrLedgerNotEmpty     = errors.New("ledger is not empty")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
)

// translate maps an aggregate failure onto the service error vocabulary.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case domainagg.CodeNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case domainagg.CodePreconditionFailed:
		return fmt.Errorf("%w: %w", ErrLedgerNotEmpty, err)
	case domainagg.CodeRetryable:
		return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
