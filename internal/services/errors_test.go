package services

import (
	"errors"
	"testing"

	"github.com/yungbote/tally-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", domainagg.NewError(domainagg.CodeValidation, "op", "bad", nil), ErrInvalidArgument},
		{"not found", domainagg.NewError(domainagg.CodeNotFound, "op", "gone", nil), ErrNotFound},
		{"precondition", aggregates.MapError("op", aggregates.PreconditionError("not empty")), ErrLedgerNotEmpty},
		{"retryable", aggregates.MapError("op", aggregates.RetryableError("reset")), ErrStorageUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate("op", tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("want=%v got=%v", tt.want, got)
			}
		})
	}

	if translate("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	plain := errors.New("plain")
	if got := translate("op", plain); !errors.Is(got, plain) {
		t.Fatalf("unclassified error must wrap the cause: got=%v", got)
	}
}
