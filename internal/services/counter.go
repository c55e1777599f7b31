package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/tally-backend/internal/data/repos"
	types "github.com/yungbote/tally-backend/internal/domain"
	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/domain/counting"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/ctxutil"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
	"github.com/yungbote/tally-backend/internal/platform/logger"
	"github.com/yungbote/tally-backend/internal/platform/retry"
)

const (
	outcomeClaimed  = "claimed"
	outcomeLost     = "lost"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

type CounterConfig struct {
	CacheTTL      time.Duration
	Goal          int64
	MaxCountValue int64
	Retry         retry.Policy
}

func (c CounterConfig) withDefaults() CounterConfig {
	if c.Goal <= 0 {
		c.Goal = counting.DefaultGoal
	}
	if c.MaxCountValue <= 0 {
		c.MaxCountValue = c.Goal
	}
	return c
}

type AttemptInput struct {
	Number          int64
	ContributorID   string
	ContributorName *string
	ExternalRef     *string
	HasEvidence     bool
}

// AttemptResult is returned for every classified attempt, successful or not. Rejections
// and lost races are results, not errors.
type AttemptResult struct {
	Success          bool             `json:"success"`
	Verdict          counting.Verdict `json:"verdict"`
	CurrentCount     int64            `json:"current_count"`
	ContributorTotal *int64           `json:"contributor_total,omitempty"`
}

// SeedRequest drives bootstrap and force-set. Actor is recorded in the admin audit trail.
type SeedRequest struct {
	Number          int64
	ContributorID   string
	ContributorName *string
	Actor           string
}

type CounterService interface {
	CurrentCount(ctx context.Context) (int64, error)
	Attempt(ctx context.Context, in AttemptInput) (AttemptResult, error)
	InvalidateCache()

	Bootstrap(ctx context.Context, in SeedRequest) (*types.LedgerRecord, error)
	ForceSet(ctx context.Context, in SeedRequest) (domainagg.ForceSetResult, error)
	DeleteBySeq(ctx context.Context, number int64, actor string) (*types.LedgerRecord, error)
	DeleteByRef(ctx context.Context, ref, actor string) (*types.LedgerRecord, error)
	SetContributorTotal(ctx context.Context, identifier string, total int64, actor string) (*types.ContributorAggregate, error)
	RecalculateAll(ctx context.Context, actor string) (domainagg.RecalcResult, error)
}

type CounterServiceDeps struct {
	Log          *logger.Logger
	Aggregate    domainagg.CounterAggregate
	Ledger       repos.LedgerRepo
	Contributors repos.ContributorRepo
	Lock         AdminLock
	Events       EventPublisher
	Metrics      *observability.Metrics
	Config       CounterConfig
	Now          func() time.Time
}

type counterService struct {
	log          *logger.Logger
	aggregate    domainagg.CounterAggregate
	ledger       repos.LedgerRepo
	contributors repos.ContributorRepo
	lock         AdminLock
	events       EventPublisher
	metrics      *observability.Metrics
	cfg          CounterConfig
	cache        *HighWaterCache
	storage      storageCaller
	tracer       trace.Tracer
}

func NewCounterService(deps CounterServiceDeps) CounterService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceLog := log.With("service", "CounterService")
	if deps.Lock == nil {
		deps.Lock = NewLocalAdminLock()
	}
	if deps.Events == nil {
		deps.Events = NewNoopPublisher()
	}
	cfg := deps.Config.withDefaults()
	return &counterService{
		log:          serviceLog,
		aggregate:    deps.Aggregate,
		ledger:       deps.Ledger,
		contributors: deps.Contributors,
		lock:         deps.Lock,
		events:       deps.Events,
		metrics:      deps.Metrics,
		cfg:          cfg,
		cache:        NewHighWaterCache(cfg.CacheTTL, deps.Now),
		storage:      newStorageCaller(cfg.Retry, serviceLog, deps.Metrics),
		tracer:       otel.Tracer("tally/services"),
	}
}

func (s *counterService) CurrentCount(ctx context.Context) (int64, error) {
	n, hit, err := s.cache.Get(ctx, func(ctx context.Context) (int64, error) {
		var high int64
		err := s.storage.do(ctx, "max_sequence", func(ctx context.Context, _ int) error {
			var err error
			high, err = s.ledger.MaxSequence(dbctx.FromContext(ctx))
			return err
		})
		if err != nil {
			return 0, err
		}
		s.metrics.SetHighWater(high)
		return high, nil
	})
	s.metrics.IncCacheLookup(hit)
	if err != nil {
		return 0, translate("current_count", err)
	}
	return n, nil
}

func (s *counterService) InvalidateCache() {
	s.cache.Invalidate()
}

func (s *counterService) Attempt(ctx context.Context, in AttemptInput) (AttemptResult, error) {
	ctx, span := s.tracer.Start(ctx, "counter.Attempt",
		trace.WithAttributes(attribute.Int64("count.number", in.Number)),
	)
	defer span.End()

	contributorID := strings.TrimSpace(in.ContributorID)
	if contributorID == "" {
		return AttemptResult{}, invalidArgument("missing contributor_id")
	}
	ref := trimmedRef(in.ExternalRef)

	if ref != nil {
		res, done, err := s.alreadyCounted(ctx, in.Number, *ref)
		if err != nil {
			span.RecordError(err)
			return AttemptResult{}, err
		}
		if done {
			return res, nil
		}
	}

	current, err := s.CurrentCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "current count unavailable")
		return AttemptResult{}, err
	}
	verdict := counting.Validate(in.Number, current)
	span.SetAttributes(attribute.String("count.verdict", string(verdict.Status)))
	if !verdict.Valid() {
		s.metrics.IncAttempt(string(verdict.Status), outcomeRejected)
		s.log.Debug("count_rejected", "status", verdict.Status, "received", in.Number, "expected", verdict.Expected)
		return AttemptResult{Verdict: verdict, CurrentCount: current}, nil
	}

	var claimed domainagg.ClaimResult
	err = s.storage.do(ctx, "claim", func(ctx context.Context, attempt int) error {
		res, err := s.aggregate.Claim(ctx, domainagg.ClaimInput{
			SequenceNumber:  in.Number,
			ContributorID:   contributorID,
			ContributorName: in.ContributorName,
			ExternalRef:     ref,
			HasEvidence:     in.HasEvidence,
		})
		if err == nil {
			claimed = res
			return nil
		}
		// a previous attempt may have committed before its acknowledgement was lost
		if attempt > 1 && domainagg.IsCode(err, domainagg.CodeConflict) {
			if own, ok := s.ownClaim(ctx, in.Number, contributorID, ref); ok {
				claimed = own
				return nil
			}
		}
		return err
	})

	switch {
	case err == nil:
	case domainagg.IsCode(err, domainagg.CodeConflict):
		return s.resolveConflict(ctx, in, contributorID, ref, current), nil
	default:
		s.metrics.IncAttempt(string(verdict.Status), outcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "claim failed")
		return AttemptResult{}, translate("claim", err)
	}

	s.cache.Invalidate()
	s.metrics.SetHighWater(in.Number)
	s.metrics.IncAttempt(string(verdict.Status), outcomeClaimed)

	total := claimed.ContributorTotal
	s.log.Info("count_claimed", withRequest(ctx,
		"number", in.Number,
		"contributor_id", contributorID,
		"contributor_total", total,
		"has_evidence", in.HasEvidence,
	)...)
	s.events.Publish(ctx, types.LedgerEvent{
		Type:             types.EventCountClaimed,
		SequenceNumber:   claimed.Record.SequenceNumber,
		ContributorID:    contributorID,
		ContributorName:  claimed.Record.DisplayName(),
		ContributorTotal: total,
		CurrentCount:     in.Number,
		HasEvidence:      in.HasEvidence,
		OccurredAt:       claimed.Record.CreatedAt,
	})
	return AttemptResult{
		Success:          true,
		Verdict:          verdict,
		CurrentCount:     in.Number,
		ContributorTotal: &total,
	}, nil
}

// alreadyCounted short-circuits an attempt whose external ref is already in the ledger.
func (s *counterService) alreadyCounted(ctx context.Context, number int64, ref string) (AttemptResult, bool, error) {
	var existing *types.LedgerRecord
	err := s.storage.do(ctx, "get_by_ref", func(ctx context.Context, _ int) error {
		var err error
		existing, err = s.ledger.GetByRef(dbctx.FromContext(ctx), ref)
		return err
	})
	if err != nil {
		return AttemptResult{}, false, translate("get_by_ref", err)
	}
	if existing == nil {
		return AttemptResult{}, false, nil
	}
	current, err := s.CurrentCount(ctx)
	if err != nil {
		return AttemptResult{}, false, err
	}
	v := counting.AlreadyCounted(number, current, existing.SequenceNumber)
	s.metrics.IncAttempt(string(v.Status), outcomeRejected)
	return AttemptResult{Verdict: v, CurrentCount: current}, true, nil
}

func (s *counterService) ownClaim(ctx context.Context, number int64, contributorID string, ref *string) (domainagg.ClaimResult, bool) {
	dbc := dbctx.FromContext(ctx)
	rec, err := s.ledger.GetBySeq(dbc, number)
	if err != nil || rec == nil || rec.ContributorID != contributorID {
		return domainagg.ClaimResult{}, false
	}
	if ref != nil && (rec.ExternalRef == nil || *rec.ExternalRef != *ref) {
		return domainagg.ClaimResult{}, false
	}
	agg, err := s.contributors.Get(dbc, contributorID)
	if err != nil || agg == nil {
		return domainagg.ClaimResult{}, false
	}
	return domainagg.ClaimResult{Record: *rec, ContributorTotal: agg.TotalCount}, true
}

// resolveConflict works out which unique index a failed claim hit. The number is only
// reported as taken when a record holds it; a ref conflict is a redelivery of a message
// already counted or being counted. validated is the count the attempt was checked against.
func (s *counterService) resolveConflict(ctx context.Context, in AttemptInput, contributorID string, ref *string, validated int64) AttemptResult {
	s.cache.Invalidate()
	dbc := dbctx.FromContext(ctx)

	fresh, err := s.CurrentCount(ctx)
	if err != nil {
		fresh = validated
	}

	var byRef *types.LedgerRecord
	if ref != nil {
		byRef, _ = s.ledger.GetByRef(dbc, *ref)
	}
	holder, _ := s.ledger.GetBySeq(dbc, in.Number)

	var v counting.Verdict
	switch {
	case byRef != nil:
		v = counting.AlreadyCounted(in.Number, fresh, byRef.SequenceNumber)
	case holder != nil:
		if fresh < in.Number {
			fresh = in.Number
		}
		v = counting.LostRace(in.Number, fresh)
	case ref != nil:
		v = counting.RefInFlight(in.Number, fresh)
	default:
		v = counting.Contended(in.Number, fresh)
	}
	s.metrics.IncAttempt(string(v.Status), outcomeLost)
	s.log.Info("count_claim_lost", withRequest(ctx,
		"number", in.Number,
		"contributor_id", contributorID,
		"current", fresh,
		"number_taken", holder != nil,
	)...)
	return AttemptResult{Verdict: v, CurrentCount: fresh}
}

// withRequest appends the request id and caller identity carried by ctx to log fields.
func withRequest(ctx context.Context, kv ...interface{}) []interface{} {
	return append(kv, ctxutil.LogFields(ctx)...)
}

func trimmedRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := strings.TrimSpace(*ref)
	if v == "" {
		return nil
	}
	return &v
}
