package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

// EventBus fans ledger events out over Redis pub/sub to reporting consumers.
type EventBus interface {
	Publish(ctx context.Context, ev types.LedgerEvent) error
	Subscribe(ctx context.Context, onEvent func(ev types.LedgerEvent)) error
}

type eventBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

func NewEventBus(rdb goredis.UniversalClient, channel string, log *logger.Logger) (EventBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "count_events"
	}
	return &eventBus{
		log:     log.With("service", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *eventBus) Publish(ctx context.Context, ev types.LedgerEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe starts delivering events to onEvent until ctx is done. It returns once the
// subscription is confirmed.
func (b *eventBus) Subscribe(ctx context.Context, onEvent func(ev types.LedgerEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev types.LedgerEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad ledger event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}
