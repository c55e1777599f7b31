package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Code: CodeConflict, Op: "Counting.Counter.Claim", Message: "sequence 7 taken"}, "Counting.Counter.Claim: conflict: sequence 7 taken"},
		{&Error{Code: CodeRetryable, Op: "Counting.Counter.Claim"}, "Counting.Counter.Claim: retryable"},
		{&Error{Code: CodeInternal}, "internal"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Fatalf("got=%q want=%q", got, tt.want)
		}
	}
}

func TestCodeThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := fmt.Errorf("claim 12: %w", Wrap(CodeRetryable, "Counting.Counter.Claim", cause))

	if !IsCode(err, CodeRetryable) || !Retryable(err) {
		t.Fatalf("code lost through fmt wrapping: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable: %v", err)
	}
	if Retryable(Wrap(CodeConflict, "Counting.Counter.Claim", cause)) {
		t.Fatalf("conflict reported retryable")
	}
	if CodeOf(cause) != "" || IsCode(nil, CodeInternal) || Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("plain or nil errors must carry no code")
	}
}
