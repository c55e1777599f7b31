package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/tally-backend/internal/domain/ledger"
)

// CounterAggregate owns every ledger mutation together with its contributor total update.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodePreconditionFailed, CodeRetryable, CodeInternal.
// A lost claim race is CodeConflict and must not be retried with the same number.
type CounterAggregate interface {
	Aggregate

	// Claim inserts a record at the requested sequence number and increments the contributor total.
	Claim(ctx context.Context, in ClaimInput) (ClaimResult, error)

	// Bootstrap seeds an empty ledger at an arbitrary number. CodePreconditionFailed when not empty.
	Bootstrap(ctx context.Context, in SeedInput) (ClaimResult, error)

	// ForceSet truncates every record >= Number, inserts a fresh one at Number and rebuilds totals.
	ForceSet(ctx context.Context, in SeedInput) (ForceSetResult, error)

	// RevertBySeq deletes one record by number and decrements its contributor.
	RevertBySeq(ctx context.Context, number int64, actor string) (RevertResult, error)

	// RevertByRef deletes one record by external ref and decrements its contributor.
	RevertByRef(ctx context.Context, ref string, actor string) (RevertResult, error)

	// SetTotal overrides a contributor total without touching the ledger.
	SetTotal(ctx context.Context, in SetTotalInput) (ledger.ContributorAggregate, error)

	// Recalculate rebuilds every contributor total from the ledger and prunes empty contributors.
	Recalculate(ctx context.Context, actor string) (RecalcResult, error)
}

type ClaimInput struct {
	SequenceNumber  int64
	ContributorID   string
	ContributorName *string
	ExternalRef     *string
	HasEvidence     bool
	ClaimedAt       time.Time
}

type ClaimResult struct {
	Record           ledger.LedgerRecord
	ContributorTotal int64
}

type SeedInput struct {
	Number          int64
	ContributorID   string
	ContributorName *string
	Actor           string
}

type ForceSetResult struct {
	Record  ledger.LedgerRecord
	Removed int64
	Rebuilt int
}

type RevertResult struct {
	Record ledger.LedgerRecord
	// ContributorTotal is the total after the decrement, 0 when the aggregate was missing.
	ContributorTotal int64
}

type SetTotalInput struct {
	ContributorID string
	Total         int64
	Actor         string
}

type RecalcResult struct {
	Rebuilt int
	Pruned  int64
}
