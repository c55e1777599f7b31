package services

import (
	"context"
	"time"

	tallyredis "github.com/yungbote/tally-backend/internal/clients/redis"
	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

// EventPublisher announces committed ledger mutations. Publishing is best effort: a failed
// publish is logged and never undoes or fails the mutation.
type EventPublisher interface {
	Publish(ctx context.Context, ev types.LedgerEvent)
}

type noopPublisher struct{}

func NewNoopPublisher() EventPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, types.LedgerEvent) {}

type busPublisher struct {
	bus     tallyredis.EventBus
	log     *logger.Logger
	metrics *observability.Metrics
	timeout time.Duration
}

func NewBusPublisher(bus tallyredis.EventBus, log *logger.Logger, metrics *observability.Metrics) EventPublisher {
	return &busPublisher{
		bus:     bus,
		log:     log.With("service", "EventPublisher"),
		metrics: metrics,
		timeout: 2 * time.Second,
	}
}

func (p *busPublisher) Publish(ctx context.Context, ev types.LedgerEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	// the caller's context may already be ending with the request
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.bus.Publish(pctx, ev); err != nil {
		p.metrics.IncEventPublished(ev.Type, "error")
		p.log.Warn("ledger event publish failed", "type", ev.Type, "sequence_number", ev.SequenceNumber, "error", err)
		return
	}
	p.metrics.IncEventPublished(ev.Type, "ok")
}
