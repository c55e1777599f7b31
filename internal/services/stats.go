package services

import (
	"context"
	"time"

	"github.com/yungbote/tally-backend/internal/data/repos"
	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/domain/counting"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
	"github.com/yungbote/tally-backend/internal/platform/logger"
	"github.com/yungbote/tally-backend/internal/platform/retry"
)

const (
	defaultTopN     = 10
	maxTopN         = 100
	defaultRecentN  = 15
	maxRecentN      = 200
	defaultAuditN   = 20
	maxAuditN       = 200
	maxWindowGroups = 1000
)

type ContributorStats struct {
	types.ContributorStanding
	// Share is the contributor's percentage of the current count.
	Share      float64        `json:"share"`
	Tier       counting.Tier  `json:"tier"`
	NextTier   *counting.Tier `json:"next_tier,omitempty"`
	ToNextTier int64          `json:"to_next_tier"`
}

// StatsService serves the read side: leaderboard, ranks, window reports and the audit tail.
type StatsService interface {
	TopContributors(ctx context.Context, n int) ([]*types.ContributorAggregate, error)
	RankOf(ctx context.Context, contributorID string) (int, error)
	ContributorStats(ctx context.Context, contributorID string) (*ContributorStats, error)
	StatsForWindow(ctx context.Context, start, end time.Time, limit int) (*types.WindowStats, error)
	Progress(ctx context.Context) (counting.Progress, error)
	Participants(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]*types.LedgerRecord, error)
	AuditLog(ctx context.Context, n int) ([]*types.AdminAuditEntry, error)
}

type StatsServiceDeps struct {
	Log          *logger.Logger
	Counter      CounterService
	Ledger       repos.LedgerRepo
	Contributors repos.ContributorRepo
	Audit        repos.AdminAuditRepo
	Metrics      *observability.Metrics
	Goal         int64
	Retry        retry.Policy
}

type statsService struct {
	log          *logger.Logger
	counter      CounterService
	ledger       repos.LedgerRepo
	contributors repos.ContributorRepo
	audit        repos.AdminAuditRepo
	goal         int64
	storage      storageCaller
}

func NewStatsService(deps StatsServiceDeps) StatsService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceLog := log.With("service", "StatsService")
	goal := deps.Goal
	if goal <= 0 {
		goal = counting.DefaultGoal
	}
	return &statsService{
		log:          serviceLog,
		counter:      deps.Counter,
		ledger:       deps.Ledger,
		contributors: deps.Contributors,
		audit:        deps.Audit,
		goal:         goal,
		storage:      newStorageCaller(deps.Retry, serviceLog, deps.Metrics),
	}
}

func (s *statsService) TopContributors(ctx context.Context, n int) ([]*types.ContributorAggregate, error) {
	n = clampLimit(n, defaultTopN, maxTopN)
	return read(ctx, s.storage, "top_contributors", func(dbc dbctx.Context) ([]*types.ContributorAggregate, error) {
		return s.contributors.Top(dbc, n)
	})
}

// RankOf returns the 1-based competition rank, or 0 when the contributor has no total.
func (s *statsService) RankOf(ctx context.Context, contributorID string) (int, error) {
	if contributorID == "" {
		return 0, invalidArgument("missing contributor_id")
	}
	return read(ctx, s.storage, "rank_of", func(dbc dbctx.Context) (int, error) {
		return s.contributors.Rank(dbc, contributorID)
	})
}

func (s *statsService) ContributorStats(ctx context.Context, contributorID string) (*ContributorStats, error) {
	if contributorID == "" {
		return nil, invalidArgument("missing contributor_id")
	}
	agg, err := read(ctx, s.storage, "contributor_get", func(dbc dbctx.Context) (*types.ContributorAggregate, error) {
		return s.contributors.Get(dbc, contributorID)
	})
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, notFound("contributor %q", contributorID)
	}
	rank, err := s.RankOf(ctx, contributorID)
	if err != nil {
		return nil, err
	}
	current, err := s.counter.CurrentCount(ctx)
	if err != nil {
		return nil, err
	}
	out := &ContributorStats{
		ContributorStanding: types.ContributorStanding{Contributor: *agg, Rank: rank},
		Share:               counting.Share(agg.TotalCount, current),
		Tier:                counting.TierFor(agg.TotalCount),
		ToNextTier:          counting.ToNextTier(agg.TotalCount),
	}
	if next, ok := counting.NextTier(agg.TotalCount); ok {
		out.NextTier = &next
	}
	return out, nil
}

// StatsForWindow summarises records created in [start, end). limit caps the per-contributor
// breakdown; 0 keeps every contributor up to an upper bound.
func (s *statsService) StatsForWindow(ctx context.Context, start, end time.Time, limit int) (*types.WindowStats, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, invalidArgument("window end must be after start")
	}
	limit = clampLimit(limit, maxWindowGroups, maxWindowGroups)
	stats, err := read(ctx, s.storage, "window_stats", func(dbc dbctx.Context) (*types.WindowStats, error) {
		return s.ledger.WindowStats(dbc, start, end, limit)
	})
	if err != nil {
		return nil, err
	}
	if len(stats.Contributors) == 0 {
		return stats, nil
	}

	ids := make([]string, 0, len(stats.Contributors))
	for _, c := range stats.Contributors {
		ids = append(ids, c.ContributorID)
	}
	aggs, err := read(ctx, s.storage, "contributor_get_many", func(dbc dbctx.Context) ([]*types.ContributorAggregate, error) {
		return s.contributors.GetMany(dbc, ids)
	})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(aggs))
	for _, a := range aggs {
		names[a.ContributorID] = a.Name()
	}
	for i := range stats.Contributors {
		stats.Contributors[i].DisplayName = names[stats.Contributors[i].ContributorID]
	}
	return stats, nil
}

func (s *statsService) Progress(ctx context.Context) (counting.Progress, error) {
	current, err := s.counter.CurrentCount(ctx)
	if err != nil {
		return counting.Progress{}, err
	}
	return counting.ComputeProgress(current, s.goal), nil
}

func (s *statsService) Participants(ctx context.Context) (int64, error) {
	return read(ctx, s.storage, "participants", func(dbc dbctx.Context) (int64, error) {
		return s.contributors.Count(dbc)
	})
}

func (s *statsService) Recent(ctx context.Context, n int) ([]*types.LedgerRecord, error) {
	n = clampLimit(n, defaultRecentN, maxRecentN)
	return read(ctx, s.storage, "recent", func(dbc dbctx.Context) ([]*types.LedgerRecord, error) {
		return s.ledger.Recent(dbc, n)
	})
}

func (s *statsService) AuditLog(ctx context.Context, n int) ([]*types.AdminAuditEntry, error) {
	n = clampLimit(n, defaultAuditN, maxAuditN)
	return read(ctx, s.storage, "audit_log", func(dbc dbctx.Context) ([]*types.AdminAuditEntry, error) {
		return s.audit.Recent(dbc, n)
	})
}

func clampLimit(n, def, upper int) int {
	if n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}
