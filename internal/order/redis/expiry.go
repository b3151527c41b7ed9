package redis

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Schedule arms the expiry timer for a pending order.
func (r *Redis) Schedule(ctx context.Context, orderID string, ttl time.Duration) error {
	if err := r.Client.Set(ctx, expiryPrefix+orderID, orderID, ttl).Err(); err != nil {
		return fmt.Errorf("schedule expiry for %s: %w", orderID, err)
	}
	r.Logger.Debug("REDIS", fmt.Sprintf("Armed expiry for order %s in %s", orderID, ttl))
	return nil
}

// Cancel disarms the expiry timer once the order reached a terminal status.
func (r *Redis) Cancel(ctx context.Context, orderID string) error {
	return r.Client.Del(ctx, expiryPrefix+orderID).Err()
}

// ExpiredOrderID extracts the order id from an expired-key event payload.
func ExpiredOrderID(payload string) (string, bool) {
	if !strings.HasPrefix(payload, expiryPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(payload, expiryPrefix)
	return id, id != ""
}

// Expirer fails orders whose expiry timer fired.
type Expirer interface {
	ExpireOrder(ctx context.Context, orderID string) error
}

// Listener turns Redis expired-key events into order expiries.
type Listener struct {
	redis   *Redis
	expirer Expirer
}

func NewListener(r *Redis, expirer Expirer) *Listener {
	return &Listener{redis: r, expirer: expirer}
}

// Run subscribes to expired-key events and blocks until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	client := l.redis.Client
	log := l.redis.Logger

	if _, err := client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		log.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	channel := fmt.Sprintf("__keyevent@%d__:expired", client.Options().DB)
	pubsub := client.PSubscribe(ctx, channel)
	defer pubsub.Close()
	log.Info("REDIS", fmt.Sprintf("Subscribed to %s", channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			l.Handle(ctx, msg.Payload)
		}
	}
}

// Handle processes a single expired-key payload.
func (l *Listener) Handle(ctx context.Context, payload string) {
	orderID, ok := ExpiredOrderID(payload)
	if !ok {
		return
	}
	l.redis.Logger.LogOrder("EXPIRY", orderID, "pending timeout fired")
	if err := l.expirer.ExpireOrder(ctx, orderID); err != nil {
		l.redis.Logger.Error("EXPIRY", fmt.Sprintf("Failed to expire order %s: %v", orderID, err))
	}
}
