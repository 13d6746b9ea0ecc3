package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/models"
)

// EventCache keeps a capped list of recent classified events in Redis and
// fans admitted events out over Pub/Sub so other processes can subscribe.
type EventCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewEventCache(addr string, logger *logrus.Logger) *EventCache {
	return NewEventCacheFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	}), logger)
}

func NewEventCacheFromClient(client *redis.Client, logger *logrus.Logger) *EventCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &EventCache{client: client, logger: logger}
}

// AddRecentEvent pushes an event onto the recent list and trims it to the
// configured cap.
func (c *EventCache) AddRecentEvent(ctx context.Context, ev *models.ClassifiedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentEvents, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentEvents, 0, constants.MaxRecentEvents-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push recent event: %w", err)
	}
	return nil
}

// GetRecentEvents returns up to limit events, newest first.
func (c *EventCache) GetRecentEvents(ctx context.Context, limit int64) ([]*models.ClassifiedEvent, error) {
	if limit <= 0 || limit > constants.MaxRecentEvents {
		limit = constants.MaxRecentEvents
	}

	vals, err := c.client.LRange(ctx, constants.RedisKeyRecentEvents, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent events: %w", err)
	}

	out := make([]*models.ClassifiedEvent, 0, len(vals))
	for _, v := range vals {
		var ev models.ClassifiedEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			c.logger.WithError(err).Warn("skipping undecodable cached event")
			continue
		}
		out = append(out, &ev)
	}
	return out, nil
}

// PublishEvent fans an admitted event out on the live channel.
func (c *EventCache) PublishEvent(ctx context.Context, ev *models.ClassifiedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return c.client.Publish(ctx, constants.PubSubChannelEvents, data).Err()
}

// SubscribeEvents delivers live classified events until ctx is cancelled.
func (c *EventCache) SubscribeEvents(ctx context.Context) (<-chan *models.ClassifiedEvent, error) {
	pubsub := c.client.Subscribe(ctx, constants.PubSubChannelEvents)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe events: %w", err)
	}

	out := make(chan *models.ClassifiedEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var ev models.ClassifiedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					c.logger.WithError(err).Warn("skipping undecodable published event")
					continue
				}
				select {
				case out <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *EventCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *EventCache) Close() error {
	return c.client.Close()
}
