package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/tally-backend/internal/data/repos"
	types "github.com/yungbote/tally-backend/internal/domain"
	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

const defaultRecalcBatchSize = 500

type CounterAggregateDeps struct {
	Base BaseDeps

	Ledger       repos.LedgerRepo
	Contributors repos.ContributorRepo
	Audit        repos.AdminAuditRepo

	// RecalcBatchSize bounds how many ledger rows one rebuild page reads and how many
	// contributor rows one rebuild transaction upserts.
	RecalcBatchSize int
	// Step wraps every unit of ForceSet and Recalculate. Defaults to a direct call.
	Step            Step
	Now             func() time.Time
}

type counterAggregate struct {
	deps CounterAggregateDeps
}

func NewCounterAggregate(deps CounterAggregateDeps) domainagg.CounterAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.RecalcBatchSize <= 0 {
		deps.RecalcBatchSize = defaultRecalcBatchSize
	}
	if deps.Step == nil {
		deps.Step = directStep
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &counterAggregate{deps: deps}
}

func (a *counterAggregate) Contract() domainagg.Contract {
	return domainagg.CounterAggregateContract
}

func (a *counterAggregate) configured(op string) error {
	if a.deps.Ledger == nil || a.deps.Contributors == nil || a.deps.Audit == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "counter aggregate repos not configured", nil)
	}
	return nil
}

func (a *counterAggregate) Claim(ctx context.Context, in domainagg.ClaimInput) (domainagg.ClaimResult, error) {
	const op = "Counting.Counter.Claim"
	var out domainagg.ClaimResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	if in.SequenceNumber <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "sequence number must be positive", nil)
	}
	contributorID := strings.TrimSpace(in.ContributorID)
	if contributorID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing contributor_id", nil)
	}
	claimedAt := in.ClaimedAt.UTC()
	if in.ClaimedAt.IsZero() {
		claimedAt = a.deps.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rec, err := a.deps.Ledger.Create(dbc, &types.LedgerRecord{
			SequenceNumber:  in.SequenceNumber,
			ContributorID:   contributorID,
			ContributorName: trimmed(in.ContributorName),
			ExternalRef:     trimmed(in.ExternalRef),
			HasEvidence:     in.HasEvidence,
			Origin:          types.OriginClaim,
			CreatedAt:       claimedAt,
		})
		if err != nil {
			return err
		}
		total, err := a.deps.Contributors.Increment(dbc, contributorID, rec.ContributorName, rec.CreatedAt)
		if err != nil {
			return err
		}
		out = domainagg.ClaimResult{Record: *rec, ContributorTotal: total}
		return nil
	})
	if err != nil {
		return domainagg.ClaimResult{}, err
	}
	return out, nil
}

func (a *counterAggregate) Bootstrap(ctx context.Context, in domainagg.SeedInput) (domainagg.ClaimResult, error) {
	const op = "Counting.Counter.Bootstrap"
	var out domainagg.ClaimResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	if err := validateSeed(op, in); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.Ledger.Count(dbc)
		if err != nil {
			return err
		}
		if n > 0 {
			return PreconditionError(fmt.Sprintf("ledger already has %d records", n))
		}
		rec, err := a.deps.Ledger.Create(dbc, seedRecord(in, types.OriginBootstrap, a.deps.Now()))
		if err != nil {
			return err
		}
		total, err := a.deps.Contributors.Increment(dbc, rec.ContributorID, rec.ContributorName, rec.CreatedAt)
		if err != nil {
			return err
		}
		if _, err := a.deps.Audit.Append(dbc, types.AuditBootstrap, in.Actor, map[string]any{
			"number":         in.Number,
			"contributor_id": rec.ContributorID,
		}); err != nil {
			return err
		}
		out = domainagg.ClaimResult{Record: *rec, ContributorTotal: total}
		return nil
	})
	if err != nil {
		return domainagg.ClaimResult{}, err
	}
	return out, nil
}

// ForceSet commits the truncation and the new record together, then rebuilds every total.
// If the rebuild fails the ledger change stays committed and Recalculate can be run again.
func (a *counterAggregate) ForceSet(ctx context.Context, in domainagg.SeedInput) (domainagg.ForceSetResult, error) {
	const op = "Counting.Counter.ForceSet"
	var out domainagg.ForceSetResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	if err := validateSeed(op, in); err != nil {
		return out, err
	}

	// Truncate and plant are idempotent together, so a retry after a lost commit
	// acknowledgement converges on the same ledger.
	err := a.deps.Step(ctx, "force_set", func(ctx context.Context) error {
		return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
			removed, err := a.deps.Ledger.DeleteFrom(dbc, in.Number)
			if err != nil {
				return err
			}
			rec, err := a.deps.Ledger.Create(dbc, seedRecord(in, types.OriginForced, a.deps.Now()))
			if err != nil {
				return err
			}
			if _, err := a.deps.Audit.Append(dbc, types.AuditForceSet, in.Actor, map[string]any{
				"number":         in.Number,
				"contributor_id": rec.ContributorID,
				"removed":        removed,
			}); err != nil {
				return err
			}
			out.Record = *rec
			out.Removed = removed
			return nil
		})
	})
	if err != nil {
		return domainagg.ForceSetResult{}, err
	}

	rebuilt, err := a.rebuild(ctx)
	if err != nil {
		return out, err
	}
	out.Rebuilt = rebuilt.Rebuilt
	return out, nil
}

func (a *counterAggregate) RevertBySeq(ctx context.Context, number int64, actor string) (domainagg.RevertResult, error) {
	const op = "Counting.Counter.RevertBySeq"
	if number <= 0 {
		return domainagg.RevertResult{}, domainagg.NewError(domainagg.CodeValidation, op, "sequence number must be positive", nil)
	}
	return a.revert(ctx, op, types.AuditDeleteSeq, actor, map[string]any{"number": number}, func(dbc dbctx.Context) (*types.LedgerRecord, error) {
		return a.deps.Ledger.DeleteBySeq(dbc, number)
	})
}

func (a *counterAggregate) RevertByRef(ctx context.Context, ref string, actor string) (domainagg.RevertResult, error) {
	const op = "Counting.Counter.RevertByRef"
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domainagg.RevertResult{}, domainagg.NewError(domainagg.CodeValidation, op, "missing external_ref", nil)
	}
	return a.revert(ctx, op, types.AuditDeleteRef, actor, map[string]any{"external_ref": ref}, func(dbc dbctx.Context) (*types.LedgerRecord, error) {
		return a.deps.Ledger.DeleteByRef(dbc, ref)
	})
}

func (a *counterAggregate) revert(
	ctx context.Context,
	op, action, actor string,
	details map[string]any,
	del func(dbc dbctx.Context) (*types.LedgerRecord, error),
) (domainagg.RevertResult, error) {
	var out domainagg.RevertResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rec, err := del(dbc)
		if err != nil {
			return err
		}
		if rec == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "ledger record not found", nil)
		}
		if _, err := a.deps.Contributors.Decrement(dbc, rec.ContributorID); err != nil {
			return err
		}
		agg, err := a.deps.Contributors.Get(dbc, rec.ContributorID)
		if err != nil {
			return err
		}
		details["sequence_number"] = rec.SequenceNumber
		details["contributor_id"] = rec.ContributorID
		if _, err := a.deps.Audit.Append(dbc, action, actor, details); err != nil {
			return err
		}
		out.Record = *rec
		if agg != nil {
			out.ContributorTotal = agg.TotalCount
		}
		return nil
	})
	if err != nil {
		return domainagg.RevertResult{}, err
	}
	return out, nil
}

func (a *counterAggregate) SetTotal(ctx context.Context, in domainagg.SetTotalInput) (types.ContributorAggregate, error) {
	const op = "Counting.Counter.SetTotal"
	var out types.ContributorAggregate
	if err := a.configured(op); err != nil {
		return out, err
	}
	contributorID := strings.TrimSpace(in.ContributorID)
	if contributorID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing contributor_id", nil)
	}
	if in.Total < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "total must not be negative", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.deps.Contributors.Get(dbc, contributorID)
		if err != nil {
			return err
		}
		if before == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("contributor not found: %s", contributorID), nil)
		}
		if _, err := a.deps.Contributors.SetTotal(dbc, contributorID, in.Total); err != nil {
			return err
		}
		if _, err := a.deps.Audit.Append(dbc, types.AuditSetTotal, in.Actor, map[string]any{
			"contributor_id": contributorID,
			"before":         before.TotalCount,
			"after":          in.Total,
		}); err != nil {
			return err
		}
		out = *before
		out.TotalCount = in.Total
		return nil
	})
	if err != nil {
		return types.ContributorAggregate{}, err
	}
	return out, nil
}

func (a *counterAggregate) Recalculate(ctx context.Context, actor string) (domainagg.RecalcResult, error) {
	const op = "Counting.Counter.Recalculate"
	if err := a.configured(op); err != nil {
		return domainagg.RecalcResult{}, err
	}
	out, err := a.rebuild(ctx)
	if err != nil {
		return out, err
	}
	err = a.deps.Step(ctx, "recalculate_audit", func(ctx context.Context) error {
		return executeWrite(ctx, a.deps.Base, op+".Audit", func(dbc dbctx.Context) error {
			_, err := a.deps.Audit.Append(dbc, types.AuditRecalc, actor, map[string]any{
				"rebuilt": out.Rebuilt,
				"pruned":  out.Pruned,
			})
			return err
		})
	})
	return out, err
}

// rebuild replays the ledger into contributor totals: reads it in sequence-ordered pages,
// upserts in bounded transactions, then prunes contributors with no records left. Each
// page, batch and prune is its own Step. Running it twice yields the same state.
func (a *counterAggregate) rebuild(ctx context.Context) (domainagg.RecalcResult, error) {
	const op = "Counting.Counter.Rebuild"
	var out domainagg.RecalcResult
	size := a.deps.RecalcBatchSize

	tallies := repos.NewTallies()
	var after int64
	for {
		var page []*types.LedgerRecord
		err := a.deps.Step(ctx, "rebuild_read", func(ctx context.Context) error {
			var err error
			page, err = a.deps.Ledger.ListAfter(dbctx.FromContext(ctx), after, size)
			if err != nil {
				return MapError(op+".Read", err)
			}
			return nil
		})
		if err != nil {
			return out, err
		}
		after = tallies.Add(page, after)
		if len(page) < size {
			break
		}
	}
	all := tallies.Result()

	for start := 0; start < len(all); start += size {
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		rows := make([]*types.ContributorAggregate, 0, end-start)
		for _, t := range all[start:end] {
			rows = append(rows, &types.ContributorAggregate{
				ContributorID:  t.ContributorID,
				DisplayName:    t.DisplayName,
				TotalCount:     t.Count,
				LastActivityAt: t.LastActivityAt.UTC(),
			})
		}
		err := a.deps.Step(ctx, "rebuild_upsert", func(ctx context.Context) error {
			return executeWrite(ctx, a.deps.Base, op+".Upsert", func(dbc dbctx.Context) error {
				return a.deps.Contributors.UpsertMany(dbc, rows)
			})
		})
		if err != nil {
			return out, err
		}
	}

	err := a.deps.Step(ctx, "rebuild_prune", func(ctx context.Context) error {
		return executeWrite(ctx, a.deps.Base, op+".Prune", func(dbc dbctx.Context) error {
			pruned, err := a.deps.Contributors.PruneAbsentFromLedger(dbc)
			if err != nil {
				return err
			}
			out.Pruned = pruned
			return nil
		})
	})
	if err != nil {
		return out, err
	}
	out.Rebuilt = len(all)
	return out, nil
}

func validateSeed(op string, in domainagg.SeedInput) error {
	if in.Number <= 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "number must be positive", nil)
	}
	if strings.TrimSpace(in.ContributorID) == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing contributor_id", nil)
	}
	return nil
}

func seedRecord(in domainagg.SeedInput, origin string, at time.Time) *types.LedgerRecord {
	return &types.LedgerRecord{
		SequenceNumber:  in.Number,
		ContributorID:   strings.TrimSpace(in.ContributorID),
		ContributorName: trimmed(in.ContributorName),
		Origin:          origin,
		CreatedAt:       at.UTC(),
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
