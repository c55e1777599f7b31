package services

import (
	"context"
	"errors"
	"testing"
	"time"

	repotest "github.com/yungbote/tally-backend/internal/data/repos/testutil"
)

func newStatsFixture(t *testing.T) (counterFixture, StatsService) {
	t.Helper()
	f := newCounterFixture(t, nil)
	stats := NewStatsService(StatsServiceDeps{
		Log:          repotest.Logger(t),
		Counter:      f.svc,
		Ledger:       f.repos.Ledger,
		Contributors: f.repos.Contributors,
		Audit:        f.repos.Audit,
		Goal:         200,
		Retry:        testRetryPolicy(),
	})
	return f, stats
}

func TestStatsLeaderboard(t *testing.T) {
	f, stats := newStatsFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repotest.SeedRecords(t, ctx, f.db, "late", base.Add(time.Hour), 1, 2)
	repotest.SeedRecords(t, ctx, f.db, "early", base, 3, 4)
	repotest.SeedRecords(t, ctx, f.db, "top", base, 5, 6, 7)
	repotest.SeedRecords(t, ctx, f.db, "one", base, 8)

	top, err := stats.TopContributors(ctx, 0)
	if err != nil {
		t.Fatalf("TopContributors: %v", err)
	}
	want := []string{"top", "early", "late", "one"}
	if len(top) != len(want) {
		t.Fatalf("len: want=%d got=%d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].ContributorID != id {
			t.Fatalf("position %d: want=%s got=%s", i+1, id, top[i].ContributorID)
		}
	}

	ranks := map[string]int{"top": 1, "early": 2, "late": 2, "one": 4, "nobody": 0}
	for id, wantRank := range ranks {
		got, err := stats.RankOf(ctx, id)
		if err != nil {
			t.Fatalf("RankOf(%s): %v", id, err)
		}
		if got != wantRank {
			t.Fatalf("RankOf(%s): want=%d got=%d", id, wantRank, got)
		}
	}

	cs, err := stats.ContributorStats(ctx, "top")
	if err != nil {
		t.Fatalf("ContributorStats: %v", err)
	}
	if cs.Rank != 1 || cs.Contributor.TotalCount != 3 || cs.Share != 37.5 {
		t.Fatalf("ContributorStats: got=%+v", cs)
	}
	if cs.Tier.Name != "Sparkling Water" || cs.NextTier == nil || cs.NextTier.Name != "Beginner" || cs.ToNextTier != 7 {
		t.Fatalf("ContributorStats tier: got tier=%+v next=%+v to_next=%d", cs.Tier, cs.NextTier, cs.ToNextTier)
	}
	if _, err := stats.ContributorStats(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ContributorStats(nobody): want=%v got=%v", ErrNotFound, err)
	}

	n, err := stats.Participants(ctx)
	if err != nil || n != 4 {
		t.Fatalf("Participants: want=4 got=%d err=%v", n, err)
	}
	p, err := stats.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.Current != 8 || p.Goal != 200 || p.Percentage != 4 {
		t.Fatalf("Progress: got=%+v", p)
	}
}

func TestStatsForWindow(t *testing.T) {
	f, stats := newStatsFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repotest.SeedRecords(t, ctx, f.db, "a", base, 1, 2, 3)
	repotest.SeedRecords(t, ctx, f.db, "b", base.Add(10*time.Second), 4, 5, 6)
	repotest.SeedRecords(t, ctx, f.db, "c", base.Add(time.Hour), 7)

	ws, err := stats.StatsForWindow(ctx, base, base.Add(time.Minute), 0)
	if err != nil {
		t.Fatalf("StatsForWindow: %v", err)
	}
	if ws.Total != 6 || ws.MinSequence != 1 || ws.MaxSequence != 6 {
		t.Fatalf("summary: got=%+v", ws)
	}
	if len(ws.Contributors) != 2 {
		t.Fatalf("breakdown: want=2 got=%d", len(ws.Contributors))
	}
	first := ws.Contributors[0]
	if first.ContributorID != "a" || first.Count != 3 || first.DisplayName != "name-a" {
		t.Fatalf("first row: got=%+v", first)
	}

	capped, err := stats.StatsForWindow(ctx, base, base.Add(2*time.Hour), 1)
	if err != nil {
		t.Fatalf("StatsForWindow capped: %v", err)
	}
	if capped.Total != 7 || len(capped.Contributors) != 1 {
		t.Fatalf("capped: got=%+v", capped)
	}

	if _, err := stats.StatsForWindow(ctx, base, base, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty window: want=%v got=%v", ErrInvalidArgument, err)
	}
}

func TestStatsRecentAndAudit(t *testing.T) {
	f, stats := newStatsFixture(t)
	ctx := context.Background()
	var numbers []int64
	for n := int64(1); n <= 20; n++ {
		numbers = append(numbers, n)
	}
	repotest.SeedRecords(t, ctx, f.db, "a", time.Now().Add(-time.Hour), numbers...)

	recent, err := stats.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != defaultRecentN || recent[0].SequenceNumber != 20 {
		t.Fatalf("Recent: want %d rows starting at 20 got=%d", defaultRecentN, len(recent))
	}

	if _, err := f.svc.DeleteBySeq(ctx, 20, "ops"); err != nil {
		t.Fatalf("DeleteBySeq: %v", err)
	}
	if _, err := f.svc.RecalculateAll(ctx, "ops"); err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	entries, err := stats.AuditLog(ctx, 10)
	if err != nil {
		t.Fatalf("AuditLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("audit entries: want=2 got=%d", len(entries))
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Action] = true
		if e.Actor != "ops" {
			t.Fatalf("actor: want=ops got=%s", e.Actor)
		}
	}
	if !seen["delete_by_seq"] || !seen["recalculate_all"] {
		t.Fatalf("audit actions: got=%v", seen)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ n, want int }{{0, 10}, {-3, 10}, {5, 5}, {500, 100}}
	for _, tt := range tests {
		if got := clampLimit(tt.n, 10, 100); got != tt.want {
			t.Fatalf("clampLimit(%d): want=%d got=%d", tt.n, tt.want, got)
		}
	}
}
