package contributor

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/tally-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

func TestContributorRepoIncrementDecrement(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewContributorRepo(db, testutil.Logger(t))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	total, err := repo.Increment(dbc, "alice", testutil.Ptr("Alice"), at)
	if err != nil || total != 1 {
		t.Fatalf("Increment first: want=1 got=%d err=%v", total, err)
	}
	total, err = repo.Increment(dbc, "alice", nil, at.Add(time.Minute))
	if err != nil || total != 2 {
		t.Fatalf("Increment second: want=2 got=%d err=%v", total, err)
	}

	row, err := repo.Get(dbc, "alice")
	if err != nil || row == nil {
		t.Fatalf("Get: %+v err=%v", row, err)
	}
	if row.Name() != "Alice" {
		t.Fatalf("Get: nil name should keep last seen, got %q", row.Name())
	}
	if !row.LastActivityAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("Get: last activity want=%v got=%v", at.Add(time.Minute), row.LastActivityAt)
	}

	if _, err := repo.Increment(dbc, "alice", testutil.Ptr("Alice B"), at.Add(2*time.Minute)); err != nil {
		t.Fatalf("Increment rename: %v", err)
	}
	row, _ = repo.Get(dbc, "alice")
	if row.Name() != "Alice B" || row.TotalCount != 3 {
		t.Fatalf("Get after rename: unexpected %+v", row)
	}

	for i := 0; i < 3; i++ {
		ok, err := repo.Decrement(dbc, "alice")
		if err != nil || !ok {
			t.Fatalf("Decrement %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := repo.Decrement(dbc, "alice")
	if err != nil || ok {
		t.Fatalf("Decrement at zero: want no-op got ok=%v err=%v", ok, err)
	}
	row, _ = repo.Get(dbc, "alice")
	if row.TotalCount != 0 {
		t.Fatalf("Decrement floor: want=0 got=%d", row.TotalCount)
	}

	ok, err = repo.Decrement(dbc, "nobody")
	if err != nil || ok {
		t.Fatalf("Decrement missing: want no-op got ok=%v err=%v", ok, err)
	}
	missing, err := repo.Get(dbc, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("Get missing: want nil got %+v err=%v", missing, err)
	}
}

func TestContributorRepoLeaderboard(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewContributorRepo(db, testutil.Logger(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.SeedAggregate(t, ctx, tx, "dave", 5, base.Add(3*time.Hour))
	testutil.SeedAggregate(t, ctx, tx, "alice", 10, base)
	testutil.SeedAggregate(t, ctx, tx, "carol", 5, base.Add(time.Hour))
	testutil.SeedAggregate(t, ctx, tx, "bob", 5, base.Add(time.Hour))

	top, err := repo.Top(dbc, 3)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	if len(top) != len(want) {
		t.Fatalf("Top: want %d rows got %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].ContributorID != id {
			t.Fatalf("Top[%d]: want=%s got=%s", i, id, top[i].ContributorID)
		}
	}

	cases := map[string]int{"alice": 1, "bob": 2, "carol": 2, "dave": 2, "nobody": 0}
	for id, wantRank := range cases {
		rank, err := repo.Rank(dbc, id)
		if err != nil || rank != wantRank {
			t.Fatalf("Rank(%s): want=%d got=%d err=%v", id, wantRank, rank, err)
		}
	}

	n, err := repo.Count(dbc)
	if err != nil || n != 4 {
		t.Fatalf("Count: want=4 got=%d err=%v", n, err)
	}

	many, err := repo.GetMany(dbc, []string{"alice", "dave", "nobody"})
	if err != nil || len(many) != 2 {
		t.Fatalf("GetMany: want 2 got %d err=%v", len(many), err)
	}

	byName, err := repo.FindByName(dbc, "NAME-CAROL")
	if err != nil || byName == nil || byName.ContributorID != "carol" {
		t.Fatalf("FindByName: unexpected %+v err=%v", byName, err)
	}

	ok, err := repo.SetTotal(dbc, "carol", 42)
	if err != nil || !ok {
		t.Fatalf("SetTotal: ok=%v err=%v", ok, err)
	}
	ok, err = repo.SetTotal(dbc, "nobody", 42)
	if err != nil || ok {
		t.Fatalf("SetTotal missing: want false got ok=%v err=%v", ok, err)
	}
	rank, _ := repo.Rank(dbc, "carol")
	if rank != 1 {
		t.Fatalf("Rank after SetTotal: want=1 got=%d", rank)
	}
}

func TestContributorRepoRebuild(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewContributorRepo(db, testutil.Logger(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.SeedRecords(t, ctx, tx, "alice", base, 1, 2)
	testutil.SeedAggregate(t, ctx, tx, "alice", 99, base)
	testutil.SeedAggregate(t, ctx, tx, "ghost", 7, base)

	err := repo.UpsertMany(dbc, []*types.ContributorAggregate{
		{ContributorID: "alice", DisplayName: testutil.Ptr("Alice"), TotalCount: 2, LastActivityAt: base.Add(time.Second)},
	})
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	row, _ := repo.Get(dbc, "alice")
	if row == nil || row.TotalCount != 2 || row.Name() != "Alice" {
		t.Fatalf("UpsertMany: unexpected %+v", row)
	}

	pruned, err := repo.PruneAbsentFromLedger(dbc)
	if err != nil || pruned != 1 {
		t.Fatalf("PruneAbsentFromLedger: want=1 got=%d err=%v", pruned, err)
	}
	ghost, _ := repo.Get(dbc, "ghost")
	if ghost != nil {
		t.Fatalf("PruneAbsentFromLedger: ghost still present")
	}
}
