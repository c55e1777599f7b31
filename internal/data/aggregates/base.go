package aggregates

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// Step runs one bounded unit of a multi-transaction write: a ledger page read, an upsert
// batch, a prune. Callers plug their retry and per-call timeout in here so a long rebuild
// is bounded per unit and never as a whole.
type Step func(ctx context.Context, op string, fn func(ctx context.Context) error) error

func directStep(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// executeWrite runs fn as one transaction. Every failure leaves as a *domainagg.Error and
// every outcome, success included, is reported to the hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	start := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, fn))

	ev := WriteEvent{Op: op, Duration: time.Since(start)}
	if err != nil {
		ev.Code = domainagg.CodeOf(err)
		if ev.Code == domainagg.CodeInternal {
			deps.Log.Error("aggregate write failed", "op", op, "error", err)
		}
	}
	deps.Hooks.OnWrite(ev)
	return err
}
