// Package redis keeps short-lived order state in Redis: checkout idempotency
// keys and the pending-order expiry timers.
package redis

import (
	"ms-booking/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	idempotencyPrefix = "checkout_idem:"
	expiryPrefix      = "order_expiry:"
)

type Redis struct {
	Client *redis.Client
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, log *logger.Logger) *Redis {
	return &Redis{
		Client: client,
		Logger: log,
	}
}
