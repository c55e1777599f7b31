package aggregates

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

// TxRunner opens the transaction around one aggregate write.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// gormTxRunner commits the ledger row, the contributor total and the audit row of one
// write together. Each transaction is a span so a trace shows where a claim spent its time.
type gormTxRunner struct {
	db     *gorm.DB
	tracer trace.Tracer
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db, tracer: otel.Tracer("tally/ledger")}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "counter.tx", "ledger transaction runner has no database", nil)
	}
	ctx, span := r.tracer.Start(ctx, "ledger.tx")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
	}
	return err
}
