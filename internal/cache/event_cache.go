package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix    = "events:"
	listPrefix   = keyPrefix + "list:"
	detailPrefix = keyPrefix + "detail:"

	DefaultTTL = 30 * time.Second
)

// Source is the read side of the events backend.
type Source interface {
	GetEvents(ctx context.Context, params models.FetchParams) (*models.EventPage, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

// EventCache serves event reads from Redis and falls through to the backend
// on a miss. Only successful responses are stored. Redis failures are logged
// and never surface to the caller.
type EventCache struct {
	next   Source
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewEventCache(next Source, client *redis.Client, ttl time.Duration, log *logger.Logger) *EventCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EventCache{next: next, client: client, ttl: ttl, logger: log}
}

func listKey(params models.FetchParams) string {
	return listPrefix + params.Query().Encode()
}

func detailKey(id string) string {
	return detailPrefix + id
}

func (c *EventCache) GetEvents(ctx context.Context, params models.FetchParams) (*models.EventPage, error) {
	key := listKey(params)
	var page models.EventPage
	if c.get(ctx, key, &page) {
		if page.Data == nil {
			page.Data = []models.Event{}
		}
		return &page, nil
	}

	fresh, err := c.next.GetEvents(ctx, params)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, fresh)
	return fresh, nil
}

func (c *EventCache) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	key := detailKey(id)
	var event models.Event
	if c.get(ctx, key, &event) {
		return &event, nil
	}

	fresh, err := c.next.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, fresh)
	return fresh, nil
}

// Invalidate drops every cached listing and detail.
func (c *EventCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan cached events: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete cached events: %w", err)
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Debug("CACHE", fmt.Sprintf("Invalidated %d cached entries", removed))
	return nil
}

func (c *EventCache) get(ctx context.Context, key string, out any) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Redis read failed for %s: %v", key, err))
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Dropping unreadable cache entry %s: %v", key, err))
		return false
	}
	return true
}

func (c *EventCache) set(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Failed to encode %s: %v", key, err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Redis write failed for %s: %v", key, err))
	}
}
