package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqError *Counter

	attempts       *CounterVec
	claimConflicts *Counter
	highWater      *Gauge
	cacheLookups   *CounterVec

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec
	storageRetries     *CounterVec

	adminOps        *CounterVec
	eventsPublished *CounterVec

	dbStats *GaugeVec
	redisUp *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics registry once. It returns nil when disabled and every
// method on a nil *Metrics is a no-op.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New returns an unregistered metrics set. Tests use it directly.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("tally_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"tally_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		),
		apiInflight: NewGauge("tally_api_inflight_requests", "In-flight API requests."),
		apiReqError: NewCounter("tally_api_requests_error_total", "Total API requests with 5xx status."),

		attempts:       NewCounterVec("tally_attempts_total", "Count attempts by verdict and outcome.", []string{"verdict", "outcome"}),
		claimConflicts: NewCounter("tally_claim_conflicts_total", "Valid attempts that lost the claim race."),
		highWater:      NewGauge("tally_high_water_mark", "Last observed maximum sequence number."),
		cacheLookups:   NewCounterVec("tally_high_water_cache_lookups_total", "High-water cache lookups by result.", []string{"result"}),

		aggregateOps: NewCounterVec("tally_aggregate_operations_total", "Aggregate writes by operation/status.", []string{"op", "status"}),
		aggregateLatency: NewHistogramVec(
			"tally_aggregate_operation_duration_seconds",
			"Aggregate write latency in seconds by operation.",
			[]string{"op"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		),
		aggregateConflicts: NewCounterVec("tally_aggregate_conflicts_total", "Aggregate writes rejected by a uniqueness conflict.", []string{"op"}),
		aggregateRetries:   NewCounterVec("tally_aggregate_retryable_total", "Aggregate writes that failed with a retryable error.", []string{"op"}),
		storageRetries:     NewCounterVec("tally_storage_retries_total", "Storage calls retried after a transient failure.", []string{"op"}),

		adminOps:        NewCounterVec("tally_admin_operations_total", "Administrative operations by action/status.", []string{"action", "status"}),
		eventsPublished: NewCounterVec("tally_ledger_events_total", "Ledger events published by type/status.", []string{"type", "status"}),

		dbStats: NewGaugeVec("tally_db_pool", "Database pool stats.", []string{"stat"}),
		redisUp: NewGauge("tally_redis_up", "Redis reachability (1 up, 0 down)."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.attempts, m.claimConflicts, m.highWater, m.cacheLookups,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries, m.storageRetries,
		m.adminOps, m.eventsPublished,
		m.dbStats, m.redisUp,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// IncAttempt counts one attempt. outcome is "claimed", "lost", "rejected" or "error".
func (m *Metrics) IncAttempt(verdict, outcome string) {
	if m == nil {
		return
	}
	m.attempts.Inc(verdict, outcome)
	if outcome == "lost" {
		m.claimConflicts.Inc()
	}
}

func (m *Metrics) SetHighWater(n int64) {
	if m == nil {
		return
	}
	m.highWater.Set(float64(n))
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.Inc("hit")
		return
	}
	m.cacheLookups.Inc("miss")
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = normalizeLabel(op)
	m.aggregateOps.Inc(op, normalizeLabel(status))
	m.aggregateLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

func (m *Metrics) IncStorageRetry(op string) {
	if m == nil {
		return
	}
	m.storageRetries.Inc(op)
}

func (m *Metrics) IncAdminOp(action, status string) {
	if m == nil {
		return
	}
	m.adminOps.Inc(normalizeLabel(action), normalizeLabel(status))
}

func (m *Metrics) IncEventPublished(eventType, status string) {
	if m == nil {
		return
	}
	m.eventsPublished.Inc(normalizeLabel(eventType), normalizeLabel(status))
}

// AttemptCount exposes one attempt counter, for tests and the admin CLI.
func (m *Metrics) AttemptCount(verdict, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.attempts.Value(verdict, outcome)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}

func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
