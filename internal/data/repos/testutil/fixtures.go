package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/tally-backend/internal/domain"
)

// SeedRecords inserts one ledger record per number, all attributed to contributorID, and
// bumps that contributor's aggregate to match. Records are spaced one second apart from base.
func SeedRecords(tb testing.TB, ctx context.Context, db *gorm.DB, contributorID string, base time.Time, numbers ...int64) []*types.LedgerRecord {
	tb.Helper()
	out := make([]*types.LedgerRecord, 0, len(numbers))
	for i, n := range numbers {
		rec := &types.LedgerRecord{
			SequenceNumber:  n,
			ContributorID:   contributorID,
			ContributorName: Ptr("name-" + contributorID),
			CreatedAt:       base.Add(time.Duration(i) * time.Second).UTC(),
		}
		if err := db.WithContext(ctx).Create(rec).Error; err != nil {
			tb.Fatalf("seed record %d: %v", n, err)
		}
		out = append(out, rec)
	}
	if len(out) > 0 {
		SeedAggregate(tb, ctx, db, contributorID, int64(len(out)), out[len(out)-1].CreatedAt)
	}
	return out
}

// SeedAggregate writes an aggregate row directly, bypassing the ledger. Useful to set up drift.
func SeedAggregate(tb testing.TB, ctx context.Context, db *gorm.DB, contributorID string, total int64, at time.Time) *types.ContributorAggregate {
	tb.Helper()
	row := &types.ContributorAggregate{
		ContributorID:  contributorID,
		DisplayName:    Ptr("name-" + contributorID),
		TotalCount:     total,
		LastActivityAt: at.UTC(),
	}
	if err := db.WithContext(ctx).Save(row).Error; err != nil {
		tb.Fatalf("seed aggregate %s: %v", contributorID, err)
	}
	return row
}

func Ptr[T any](v T) *T { return &v }
