package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-booking/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis returns a Redis wrapper backed by miniredis.
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedis(client, logger.NewDiscard()), mr
}

func TestIdempotencyLifecycle(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	id, reserved, err := r.Reserve(ctx, "buyer-1:key", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Empty(t, id)

	// Second caller while the first is still running.
	id, reserved, err = r.Reserve(ctx, "buyer-1:key", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Empty(t, id)

	require.NoError(t, r.Complete(ctx, "buyer-1:key", "order-1", time.Minute))
	id, reserved, err = r.Reserve(ctx, "buyer-1:key", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "order-1", id)

	// Release never drops a completed key.
	require.NoError(t, r.Release(ctx, "buyer-1:key"))
	assert.True(t, mr.Exists(idempotencyPrefix+"buyer-1:key"))

	mr.FastForward(2 * time.Minute)
	_, reserved, err = r.Reserve(ctx, "buyer-1:key", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved, "key should be reusable after its TTL")
}

func TestIdempotencyRelease(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	_, reserved, err := r.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, r.Release(ctx, "k"))
	_, reserved, err = r.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)

	require.NoError(t, r.Release(ctx, "missing"))
}

func TestScheduleAndCancelExpiry(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Schedule(ctx, "order-1", 15*time.Minute))
	assert.True(t, mr.Exists("order_expiry:order-1"))
	assert.Equal(t, 15*time.Minute, mr.TTL("order_expiry:order-1"))

	require.NoError(t, r.Cancel(ctx, "order-1"))
	assert.False(t, mr.Exists("order_expiry:order-1"))

	require.NoError(t, r.Schedule(ctx, "order-2", time.Minute))
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("order_expiry:order-2"))
}

func TestExpiredOrderID(t *testing.T) {
	id, ok := ExpiredOrderID("order_expiry:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = ExpiredOrderID("checkout_idem:abc")
	assert.False(t, ok)
	_, ok = ExpiredOrderID("order_expiry:")
	assert.False(t, ok)
}

type recordingExpirer struct {
	ids []string
	err error
}

func (e *recordingExpirer) ExpireOrder(_ context.Context, orderID string) error {
	e.ids = append(e.ids, orderID)
	return e.err
}

func TestListenerHandle(t *testing.T) {
	r, _ := setupTestRedis(t)
	expirer := &recordingExpirer{}
	l := NewListener(r, expirer)

	l.Handle(context.Background(), "order_expiry:order-7")
	l.Handle(context.Background(), "checkout_idem:buyer:key")
	assert.Equal(t, []string{"order-7"}, expirer.ids)

	expirer.err = errors.New("db down")
	l.Handle(context.Background(), "order_expiry:order-8")
	assert.Equal(t, []string{"order-7", "order-8"}, expirer.ids)
}
