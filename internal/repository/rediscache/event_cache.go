// Package rediscache decorates the event repository with a Redis-backed
// cache for public listing reads. Mutations bump a generation counter so
// stale list entries are never served past the next write; within the TTL a
// short staleness window is acceptable under last-write-wins semantics.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"eventhub/internal/domain"
)

const versionKey = "events:ver"

// EventCache wraps an EventRepository. When the Redis client is nil the
// cache is disabled and every call passes straight through.
type EventCache struct {
	inner  domain.EventRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ domain.EventRepository = (*EventCache)(nil)

func New(inner domain.EventRepository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *EventCache {
	return &EventCache{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *EventCache) enabled() bool {
	return c.rdb != nil && c.ttl > 0
}

func (c *EventCache) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	if !c.enabled() {
		return c.inner.List(ctx, filter)
	}

	key, err := c.listKey(ctx, filter)
	if err != nil {
		// Redis unreachable: serve from the store.
		return c.inner.List(ctx, filter)
	}

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var events []*domain.Event
		if err := json.Unmarshal(raw, &events); err == nil {
			return events, nil
		}
		// Corrupt entry; fall through and overwrite it.
	}

	events, err := c.inner.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(events); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Debug("event cache set failed", "key", key, "err", err)
		}
	}
	return events, nil
}

// listKey includes the current generation so every mutation invalidates all
// cached lists at once without scanning for keys.
func (c *EventCache) listKey(ctx context.Context, filter domain.EventFilter) (string, error) {
	ver, err := c.rdb.Get(ctx, versionKey).Result()
	if err != nil {
		if err != redis.Nil {
			return "", err
		}
		ver = "0"
	}
	dateFrom := ""
	if filter.DateFrom != nil {
		dateFrom = filter.DateFrom.Format(time.RFC3339)
	}
	minPrice, maxPrice := "", ""
	if filter.MinPrice != nil {
		minPrice = strconv.FormatFloat(*filter.MinPrice, 'f', -1, 64)
	}
	if filter.MaxPrice != nil {
		maxPrice = strconv.FormatFloat(*filter.MaxPrice, 'f', -1, 64)
	}
	return fmt.Sprintf("events:v%s:list:%s|%s|%s|%s|%s|%s|%t",
		ver, filter.Query, filter.Category, filter.Location, dateFrom, minPrice, maxPrice, filter.FreeOnly), nil
}

func (c *EventCache) invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		c.logger.Debug("event cache invalidation failed", "err", err)
	}
}

func (c *EventCache) GetByID(ctx context.Context, id domain.ID) (*domain.Event, error) {
	return c.inner.GetByID(ctx, id)
}

func (c *EventCache) ListByOwner(ctx context.Context, owner domain.ID) ([]*domain.Event, error) {
	return c.inner.ListByOwner(ctx, owner)
}

func (c *EventCache) Create(ctx context.Context, event *domain.Event) error {
	if err := c.inner.Create(ctx, event); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *EventCache) Update(ctx context.Context, id domain.ID, upd domain.EventUpdate) (*domain.Event, error) {
	event, err := c.inner.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return event, nil
}

func (c *EventCache) Delete(ctx context.Context, id domain.ID) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}
