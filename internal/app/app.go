package app

import (
	"context"
	"fmt"

	"github.com/yungbote/tally-backend/internal/data/db"
	"github.com/yungbote/tally-backend/internal/data/repos"
	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/http"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Clients  Clients
	Repos    repos.Set
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	shutdownOTel func(context.Context) error
	cancel       context.CancelFunc
}

// New loads configuration and connects every backend. Any failure here is fatal for the
// caller: the service must not accept attempts against storage it cannot reach.
func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode, logger.WithRedaction(cfg.LogRedaction, cfg.LogHashSalt))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdownOTel := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(cfg.MetricsEnabled)

	dbs, err := db.NewService(ctx, cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(dbs.DB(), log)
	serviceset := wireServices(dbs.DB(), log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, serviceset, dbs)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbs,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Start launches background collectors. It is a no-op when called twice.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB.DB(), a.Cfg.StatsInterval)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, a.Cfg.StatsInterval)
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(ctx, a.Cfg.HTTPAddr)
}

// Subscribe streams ledger events published by any process sharing the Redis channel.
func (a *App) Subscribe(ctx context.Context, onEvent func(ev types.LedgerEvent)) error {
	if a.Clients.EventBus == nil {
		return fmt.Errorf("redis is not configured")
	}
	return a.Clients.EventBus.Subscribe(ctx, onEvent)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.shutdownOTel != nil {
		_ = a.shutdownOTel(context.Background())
	}
	a.Clients.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
