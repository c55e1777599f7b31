package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/tally-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

func TestLedgerRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewLedgerRepo(db, testutil.Logger(t))

	high, err := repo.MaxSequence(dbc)
	if err != nil {
		t.Fatalf("MaxSequence: %v", err)
	}
	if high != 0 {
		t.Fatalf("MaxSequence on empty ledger: want=0 got=%d", high)
	}

	created, err := repo.Create(dbc, &types.LedgerRecord{
		SequenceNumber:  1,
		ContributorID:   "alice",
		ContributorName: testutil.Ptr("Alice"),
		ExternalRef:     testutil.Ptr("msg-1"),
		HasEvidence:     true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Origin != types.OriginClaim || created.CreatedAt.IsZero() {
		t.Fatalf("Create: defaults not applied: %+v", created)
	}

	for _, dup := range []*types.LedgerRecord{
		{SequenceNumber: 1, ContributorID: "bob"},
		{SequenceNumber: 2, ContributorID: "bob", ExternalRef: testutil.Ptr("msg-1")},
	} {
		sp := tx.SavePoint("dup")
		if sp.Error != nil {
			t.Fatalf("SavePoint: %v", sp.Error)
		}
		_, err = repo.Create(dbc, dup)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			t.Fatalf("Create duplicate %+v: want ErrDuplicatedKey got %v", dup, err)
		}
		if err := tx.RollbackTo("dup").Error; err != nil {
			t.Fatalf("RollbackTo: %v", err)
		}
	}

	if _, err := repo.Create(dbc, &types.LedgerRecord{SequenceNumber: 0, ContributorID: "bob"}); err == nil {
		t.Fatalf("Create with zero sequence: expected error")
	}
	if _, err := repo.Create(dbc, &types.LedgerRecord{SequenceNumber: 3, ContributorID: " "}); err == nil {
		t.Fatalf("Create without contributor: expected error")
	}
}

func TestLedgerRepoQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLedgerRepo(db, testutil.Logger(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.SeedRecords(t, ctx, tx, "alice", base, 1, 2, 3)
	testutil.SeedRecords(t, ctx, tx, "bob", base.Add(time.Hour), 4, 5)
	if _, err := repo.Create(dbc, &types.LedgerRecord{
		SequenceNumber: 6,
		ContributorID:  "carol",
		ExternalRef:    testutil.Ptr("msg-6"),
		CreatedAt:      base.Add(48 * time.Hour),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	high, err := repo.MaxSequence(dbc)
	if err != nil || high != 6 {
		t.Fatalf("MaxSequence: want=6 got=%d err=%v", high, err)
	}
	n, err := repo.Count(dbc)
	if err != nil || n != 6 {
		t.Fatalf("Count: want=6 got=%d err=%v", n, err)
	}
	n, err = repo.CountByContributor(dbc, "alice")
	if err != nil || n != 3 {
		t.Fatalf("CountByContributor: want=3 got=%d err=%v", n, err)
	}

	bySeq, err := repo.GetBySeq(dbc, 4)
	if err != nil || bySeq == nil || bySeq.ContributorID != "bob" {
		t.Fatalf("GetBySeq: unexpected %+v err=%v", bySeq, err)
	}
	missing, err := repo.GetBySeq(dbc, 99)
	if err != nil || missing != nil {
		t.Fatalf("GetBySeq missing: want nil got %+v err=%v", missing, err)
	}
	byRef, err := repo.GetByRef(dbc, "msg-6")
	if err != nil || byRef == nil || byRef.SequenceNumber != 6 {
		t.Fatalf("GetByRef: unexpected %+v err=%v", byRef, err)
	}

	recent, err := repo.Recent(dbc, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].SequenceNumber != 6 || recent[1].SequenceNumber != 5 {
		t.Fatalf("Recent: unexpected order %+v", recent)
	}

	stats, err := repo.WindowStats(dbc, base, base.Add(24*time.Hour), 0)
	if err != nil {
		t.Fatalf("WindowStats: %v", err)
	}
	if stats.Total != 5 || stats.MinSequence != 1 || stats.MaxSequence != 5 {
		t.Fatalf("WindowStats summary: unexpected %+v", stats)
	}
	if len(stats.Contributors) != 2 || stats.Contributors[0].ContributorID != "alice" || stats.Contributors[0].Count != 3 {
		t.Fatalf("WindowStats breakdown: unexpected %+v", stats.Contributors)
	}

	empty, err := repo.WindowStats(dbc, base.Add(-48*time.Hour), base.Add(-24*time.Hour), 0)
	if err != nil || empty.Total != 0 || len(empty.Contributors) != 0 {
		t.Fatalf("WindowStats empty: unexpected %+v err=%v", empty, err)
	}

	listed, err := repo.ListBetween(dbc, base, base.Add(24*time.Hour), 0)
	if err != nil || len(listed) != 5 || listed[0].SequenceNumber != 1 {
		t.Fatalf("ListBetween: unexpected len=%d err=%v", len(listed), err)
	}

	tallies, err := repo.Tally(dbc, 2)
	if err != nil {
		t.Fatalf("Tally: %v", err)
	}
	got := map[string]*ContributorTally{}
	for _, tl := range tallies {
		got[tl.ContributorID] = tl
	}
	if got["alice"] == nil || got["alice"].Count != 3 || !got["alice"].LastActivityAt.Equal(base.Add(2*time.Second)) {
		t.Fatalf("Tally alice: unexpected %+v", got["alice"])
	}
	if got["carol"] == nil || got["carol"].Count != 1 || got["carol"].DisplayName != nil {
		t.Fatalf("Tally carol: unexpected %+v", got["carol"])
	}
}

func TestLedgerRepoDeletes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLedgerRepo(db, testutil.Logger(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.SeedRecords(t, ctx, tx, "alice", base, 98, 99, 100, 101)
	if _, err := repo.Create(dbc, &types.LedgerRecord{SequenceNumber: 102, ContributorID: "bob", ExternalRef: testutil.Ptr("ref-102")}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := repo.DeleteByRef(dbc, "ref-102")
	if err != nil || deleted == nil || deleted.SequenceNumber != 102 {
		t.Fatalf("DeleteByRef: unexpected %+v err=%v", deleted, err)
	}
	again, err := repo.DeleteByRef(dbc, "ref-102")
	if err != nil || again != nil {
		t.Fatalf("DeleteByRef twice: want nil got %+v err=%v", again, err)
	}

	deleted, err = repo.DeleteBySeq(dbc, 99)
	if err != nil || deleted == nil || deleted.ContributorID != "alice" {
		t.Fatalf("DeleteBySeq: unexpected %+v err=%v", deleted, err)
	}
	high, _ := repo.MaxSequence(dbc)
	if high != 101 {
		t.Fatalf("MaxSequence after gap: want=101 got=%d", high)
	}

	removed, err := repo.DeleteFrom(dbc, 100)
	if err != nil || removed != 2 {
		t.Fatalf("DeleteFrom: want=2 got=%d err=%v", removed, err)
	}
	high, _ = repo.MaxSequence(dbc)
	if high != 98 {
		t.Fatalf("MaxSequence after truncate: want=98 got=%d", high)
	}
}
