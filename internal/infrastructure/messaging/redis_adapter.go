package messaging

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// GO-REDIS ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// GoRedisAdapter adapts a go-redis client to the RedisClient interface
// used by RedisEventBus.
type GoRedisAdapter struct {
	client *redis.Client
	mu     sync.Mutex
	subs   []*redis.PubSub
}

// NewGoRedisAdapter wraps an existing go-redis client.
// The adapter does not own the client; closing the adapter only
// tears down its subscriptions.
func NewGoRedisAdapter(client *redis.Client) *GoRedisAdapter {
	return &GoRedisAdapter{client: client}
}

// Publish sends a message to a channel.
func (a *GoRedisAdapter) Publish(ctx context.Context, channel string, message interface{}) error {
	return a.client.Publish(ctx, channel, message).Err()
}

// Subscribe creates a subscription and bridges it to a RedisMessage channel.
// The bridge goroutine exits when the context is cancelled or the
// subscription is closed.
func (a *GoRedisAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	pubsub := a.client.Subscribe(ctx, channels...)

	// Wait for subscription confirmation so publishes after this call
	// are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	a.mu.Lock()
	a.subs = append(a.subs, pubsub)
	a.mu.Unlock()

	out := make(chan RedisMessage)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close tears down all subscriptions created through this adapter.
func (a *GoRedisAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var lastErr error
	for _, sub := range a.subs {
		if err := sub.Close(); err != nil {
			lastErr = err
		}
	}
	a.subs = nil

	return lastErr
}
