package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/tally-backend/internal/domain"
	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

const (
	bootstrapContributorID   = "system"
	bootstrapContributorName = "System"
	forcedContributorID      = "admin"
	forcedContributorName    = "Admin"
)

// admin runs fn under the admin lock. Every administrative mutation goes through here so
// force-set and recalculation never overlap.
func (s *counterService) admin(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "counter.admin."+action)
	defer span.End()

	ctx, release, err := s.lock.Acquire(ctx)
	if err != nil {
		s.metrics.IncAdminOp(action, "lock_error")
		span.RecordError(err)
		return fmt.Errorf("acquire admin lock: %w", err)
	}
	defer release()

	err = fn(ctx)
	s.cache.Invalidate()
	if cause := context.Cause(ctx); err != nil && errors.Is(cause, ErrAdminLockLost) {
		err = fmt.Errorf("%s: %w", action, cause)
	}
	if err != nil {
		s.metrics.IncAdminOp(action, "error")
		span.RecordError(err)
		return err
	}
	s.metrics.IncAdminOp(action, "ok")
	return nil
}

func (s *counterService) Bootstrap(ctx context.Context, in SeedRequest) (*types.LedgerRecord, error) {
	if in.Number <= 0 || in.Number > s.cfg.MaxCountValue {
		return nil, invalidArgument("bootstrap number must be between 1 and %d, got %d", s.cfg.MaxCountValue, in.Number)
	}
	seed := in.seed(bootstrapContributorID, bootstrapContributorName)

	var res domainagg.ClaimResult
	err := s.admin(ctx, types.AuditBootstrap, func(ctx context.Context) error {
		return s.storage.do(ctx, "bootstrap", func(ctx context.Context, _ int) error {
			var err error
			res, err = s.aggregate.Bootstrap(ctx, seed)
			return err
		})
	})
	if err != nil {
		return nil, translate("bootstrap", err)
	}

	s.metrics.SetHighWater(res.Record.SequenceNumber)
	s.log.Info("count_bootstrapped", withRequest(ctx, "number", res.Record.SequenceNumber, "contributor_id", seed.ContributorID, "actor", seed.Actor)...)
	s.events.Publish(ctx, types.LedgerEvent{
		Type:             types.EventCountBootstrapped,
		SequenceNumber:   res.Record.SequenceNumber,
		ContributorID:    res.Record.ContributorID,
		ContributorName:  res.Record.DisplayName(),
		ContributorTotal: res.ContributorTotal,
		CurrentCount:     res.Record.SequenceNumber,
		OccurredAt:       res.Record.CreatedAt,
	})
	return &res.Record, nil
}

// ForceSet truncates the ledger at in.Number and plants a record there. Totals are rebuilt
// from what survives.
func (s *counterService) ForceSet(ctx context.Context, in SeedRequest) (domainagg.ForceSetResult, error) {
	if in.Number < 1 || in.Number > s.cfg.MaxCountValue {
		return domainagg.ForceSetResult{}, invalidArgument("force number must be between 1 and %d, got %d", s.cfg.MaxCountValue, in.Number)
	}
	seed := in.seed(forcedContributorID, forcedContributorName)

	var res domainagg.ForceSetResult
	// the aggregate bounds each of its transactions and rebuild pages separately
	err := s.admin(ctx, types.AuditForceSet, func(ctx context.Context) error {
		var err error
		res, err = s.aggregate.ForceSet(ctx, seed)
		return err
	})
	if err != nil {
		return domainagg.ForceSetResult{}, translate("force_set", err)
	}

	s.metrics.SetHighWater(res.Record.SequenceNumber)
	s.log.Info("count_forced", withRequest(ctx,
		"number", res.Record.SequenceNumber,
		"contributor_id", seed.ContributorID,
		"removed", res.Removed,
		"rebuilt", res.Rebuilt,
		"actor", seed.Actor,
	)...)
	s.events.Publish(ctx, types.LedgerEvent{
		Type:            types.EventCountForced,
		SequenceNumber:  res.Record.SequenceNumber,
		ContributorID:   res.Record.ContributorID,
		ContributorName: res.Record.DisplayName(),
		CurrentCount:    res.Record.SequenceNumber,
		OccurredAt:      res.Record.CreatedAt,
	})
	return res, nil
}

func (s *counterService) DeleteBySeq(ctx context.Context, number int64, actor string) (*types.LedgerRecord, error) {
	if number <= 0 {
		return nil, invalidArgument("sequence number must be positive, got %d", number)
	}
	return s.revert(ctx, types.AuditDeleteSeq, func(ctx context.Context) (domainagg.RevertResult, error) {
		return s.aggregate.RevertBySeq(ctx, number, actor)
	})
}

func (s *counterService) DeleteByRef(ctx context.Context, ref, actor string) (*types.LedgerRecord, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, invalidArgument("missing external_ref")
	}
	return s.revert(ctx, types.AuditDeleteRef, func(ctx context.Context) (domainagg.RevertResult, error) {
		return s.aggregate.RevertByRef(ctx, ref, actor)
	})
}

func (s *counterService) revert(ctx context.Context, action string, del func(ctx context.Context) (domainagg.RevertResult, error)) (*types.LedgerRecord, error) {
	var res domainagg.RevertResult
	err := s.admin(ctx, action, func(ctx context.Context) error {
		return s.storage.do(ctx, action, func(ctx context.Context, _ int) error {
			var err error
			res, err = del(ctx)
			return err
		})
	})
	if err != nil {
		return nil, translate(action, err)
	}

	current, cerr := s.CurrentCount(ctx)
	if cerr != nil {
		s.log.Warn("current count unavailable after revert", "error", cerr)
	}
	s.log.Info("count_reverted", withRequest(ctx,
		"number", res.Record.SequenceNumber,
		"contributor_id", res.Record.ContributorID,
		"contributor_total", res.ContributorTotal,
	)...)
	s.events.Publish(ctx, types.LedgerEvent{
		Type:             types.EventCountReverted,
		SequenceNumber:   res.Record.SequenceNumber,
		ContributorID:    res.Record.ContributorID,
		ContributorName:  res.Record.DisplayName(),
		ContributorTotal: res.ContributorTotal,
		CurrentCount:     current,
		HasEvidence:      res.Record.HasEvidence,
	})
	return &res.Record, nil
}

// SetContributorTotal overrides one total. identifier is tried as a contributor id first,
// then as a case-insensitive display name.
func (s *counterService) SetContributorTotal(ctx context.Context, identifier string, total int64, actor string) (*types.ContributorAggregate, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, invalidArgument("missing contributor identifier")
	}
	if total < 0 || total > s.cfg.MaxCountValue {
		return nil, invalidArgument("total must be between 0 and %d, got %d", s.cfg.MaxCountValue, total)
	}

	var out types.ContributorAggregate
	err := s.admin(ctx, types.AuditSetTotal, func(ctx context.Context) error {
		target, err := s.resolveContributor(ctx, identifier)
		if err != nil {
			return err
		}
		return s.storage.do(ctx, "set_total", func(ctx context.Context, _ int) error {
			var err error
			out, err = s.aggregate.SetTotal(ctx, domainagg.SetTotalInput{
				ContributorID: target.ContributorID,
				Total:         total,
				Actor:         actor,
			})
			return err
		})
	})
	if err != nil {
		return nil, translate("set_total", err)
	}

	s.log.Info("contributor_total_set", withRequest(ctx, "contributor_id", out.ContributorID, "total", total, "actor", actor)...)
	s.events.Publish(ctx, types.LedgerEvent{
		Type:             types.EventTotalOverridden,
		ContributorID:    out.ContributorID,
		ContributorName:  out.Name(),
		ContributorTotal: total,
	})
	return &out, nil
}

func (s *counterService) resolveContributor(ctx context.Context, identifier string) (*types.ContributorAggregate, error) {
	var found *types.ContributorAggregate
	err := s.storage.do(ctx, "resolve_contributor", func(ctx context.Context, _ int) error {
		dbc := dbctx.FromContext(ctx)
		agg, err := s.contributors.Get(dbc, identifier)
		if err != nil {
			return err
		}
		if agg == nil {
			agg, err = s.contributors.FindByName(dbc, identifier)
			if err != nil {
				return err
			}
		}
		found = agg
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, notFound("contributor %q", identifier)
	}
	return found, nil
}

// RecalculateAll rebuilds every contributor total from the ledger.
func (s *counterService) RecalculateAll(ctx context.Context, actor string) (domainagg.RecalcResult, error) {
	var res domainagg.RecalcResult
	err := s.admin(ctx, types.AuditRecalc, func(ctx context.Context) error {
		var err error
		res, err = s.aggregate.Recalculate(ctx, actor)
		return err
	})
	if err != nil {
		return domainagg.RecalcResult{}, translate("recalculate", err)
	}

	s.log.Info("recalc_complete", withRequest(ctx, "rebuilt", res.Rebuilt, "pruned", res.Pruned, "actor", actor)...)
	current, _ := s.CurrentCount(ctx)
	s.events.Publish(ctx, types.LedgerEvent{
		Type:         types.EventTotalsRebuilt,
		CurrentCount: current,
	})
	return res, nil
}

func (r SeedRequest) seed(defaultID, defaultName string) domainagg.SeedInput {
	in := domainagg.SeedInput{
		Number:          r.Number,
		ContributorID:   strings.TrimSpace(r.ContributorID),
		ContributorName: r.ContributorName,
		Actor:           r.Actor,
	}
	if in.ContributorID == "" {
		in.ContributorID = defaultID
		if in.ContributorName == nil || strings.TrimSpace(*in.ContributorName) == "" {
			name := defaultName
			in.ContributorName = &name
		}
	}
	return in
}
