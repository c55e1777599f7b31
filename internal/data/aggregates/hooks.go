package aggregates

import (
	"time"

	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/observability"
)

// WriteEvent describes one finished unit of work. Code is empty on success.
type WriteEvent struct {
	Op       string
	Code     domainagg.ErrorCode
	Duration time.Duration
}

// Status is the metrics label for the outcome: "success" or the error code.
func (e WriteEvent) Status() string {
	if e.Code == "" {
		return "success"
	}
	return string(e.Code)
}

// Hooks observes aggregate writes after they finish.
type Hooks interface {
	OnWrite(ev WriteEvent)
}

type noopHooks struct{}

func (noopHooks) OnWrite(WriteEvent) {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports aggregate writes to metrics; nil metrics yields no-op hooks.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &metricsHooks{metrics: metrics}
}

func (h *metricsHooks) OnWrite(ev WriteEvent) {
	h.metrics.ObserveAggregateOperation(ev.Op, ev.Status(), ev.Duration)
	switch ev.Code {
	case domainagg.CodeConflict:
		h.metrics.IncAggregateConflict(ev.Op)
	case domainagg.CodeRetryable:
		h.metrics.IncAggregateRetry(ev.Op)
	}
}
