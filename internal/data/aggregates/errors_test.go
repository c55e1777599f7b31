package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{name: "validation", err: ValidationError("bad"), want: domainagg.CodeValidation},
		{name: "precondition", err: PreconditionError("ledger not empty"), want: domainagg.CodePreconditionFailed},
		{name: "translated duplicate", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: domainagg.CodeConflict},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505"}, want: domainagg.CodeConflict},
		{name: "sqlite unique message", err: errors.New("UNIQUE constraint failed: count_ledger.sequence_number"), want: domainagg.CodeConflict},
		{name: "pg serialization", err: &pgconn.PgError{Code: "40001"}, want: domainagg.CodeRetryable},
		{name: "pg connection exception", err: &pgconn.PgError{Code: "08006"}, want: domainagg.CodeRetryable},
		{name: "deadline", err: context.DeadlineExceeded, want: domainagg.CodeRetryable},
		{name: "canceled", err: context.Canceled, want: domainagg.CodeInternal},
		{name: "sqlite busy", err: errors.New("database is locked"), want: domainagg.CodeRetryable},
		{name: "refused", err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), want: domainagg.CodeRetryable},
		{name: "not found", err: gorm.ErrRecordNotFound, want: domainagg.CodeNotFound},
		{name: "other", err: errors.New("syntax error"), want: domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("counter.test", tc.err)
			if !domainagg.IsCode(got, tc.want) {
				t.Fatalf("want=%s got=%v", tc.want, got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("mapped error lost its cause: %v", got)
			}
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	if MapError("op", nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestMapErrorPassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeNotFound, "op", "missing", nil)
	if got := MapError("other", fmt.Errorf("wrapped: %w", in)); !domainagg.IsCode(got, domainagg.CodeNotFound) {
		t.Fatalf("want passthrough not_found got=%v", got)
	}
}
