package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	tallyredis "github.com/yungbote/tally-backend/internal/clients/redis"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type Clients struct {
	Redis      *goredis.Client
	EventBus   tallyredis.EventBus
	AdminLease *tallyredis.LeaseLock
}

// wireClients connects optional infrastructure. Redis is skipped when REDIS_ADDR is empty,
// but a configured Redis that cannot be reached is a startup failure.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	if !cfg.Redis.Enabled() {
		log.Info("Redis not configured; events are not published and the admin lock is process-local")
		return Clients{}, nil
	}

	rdb, err := tallyredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	bus, err := tallyredis.NewEventBus(rdb, cfg.Redis.Channel, log)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init redis event bus: %w", err)
	}
	return Clients{
		Redis:      rdb,
		EventBus:   bus,
		AdminLease: tallyredis.NewLeaseLock(rdb, cfg.Redis.LockKey, cfg.AdminLockTTL),
	}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
