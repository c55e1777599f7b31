package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/tally-backend/internal/data/aggregates"
	"github.com/yungbote/tally-backend/internal/data/repos"
	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/logger"
	"github.com/yungbote/tally-backend/internal/services"
)

type Services struct {
	Counter   services.CounterService
	Stats     services.StatsService
	Aggregate domainagg.CounterAggregate
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, set repos.Set, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	agg := aggregates.NewCounterAggregate(aggregates.CounterAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:     db,
			Log:    log,
			Runner: aggregates.NewGormTxRunner(db),
			Hooks:  aggregates.NewObservabilityHooks(metrics),
		},
		Ledger:          set.Ledger,
		Contributors:    set.Contributors,
		Audit:           set.Audit,
		RecalcBatchSize: cfg.RecalcBatchSize,
		Step:            services.StorageStep(cfg.RetryPolicy(), log, metrics),
	})
	log.Info("Counter aggregate wired", "contract", agg.Contract().Name)

	lock := services.NewLocalAdminLock()
	events := services.NewNoopPublisher()
	if clients.AdminLease != nil {
		lock = services.NewLeaseAdminLock(clients.AdminLease, log)
	}
	if clients.EventBus != nil {
		events = services.NewBusPublisher(clients.EventBus, log, metrics)
	}

	counter := services.NewCounterService(services.CounterServiceDeps{
		Log:          log,
		Aggregate:    agg,
		Ledger:       set.Ledger,
		Contributors: set.Contributors,
		Lock:         lock,
		Events:       events,
		Metrics:      metrics,
		Config:       cfg.CounterConfig(),
	})
	stats := services.NewStatsService(services.StatsServiceDeps{
		Log:          log,
		Counter:      counter,
		Ledger:       set.Ledger,
		Contributors: set.Contributors,
		Audit:        set.Audit,
		Metrics:      metrics,
		Goal:         cfg.CountGoal,
		Retry:        cfg.RetryPolicy(),
	})
	return Services{Counter: counter, Stats: stats, Aggregate: agg}
}
