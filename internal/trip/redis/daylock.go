package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client is the subset of the redis client the day lock needs.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis serializes trip scheduling per (bus, calendar day). The
// validate-then-write sequence for a bus's day runs under this lock so
// two concurrent creates cannot both pass the conflict check.
type Redis struct {
	Client  Client
	LockTTL time.Duration
}

func NewRedis(client Client, lockTTL time.Duration) *Redis {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Redis{Client: client, LockTTL: lockTTL}
}

func dayKey(busID string, day time.Time) string {
	return "busday_lock:" + busID + ":" + day.Format("2006-01-02")
}

// LockBusDay takes the scheduling lock for one bus-day. The token
// identifies the holder so only the locking request can release it.
func (r *Redis) LockBusDay(busID string, day time.Time, token string) (bool, error) {
	return r.Client.SetNX(context.Background(), dayKey(busID, day), token, r.LockTTL).Result()
}

// UnlockBusDay releases the lock if this token still holds it.
func (r *Redis) UnlockBusDay(busID string, day time.Time, token string) error {
	ctx := context.Background()
	key := dayKey(busID, day)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // TTL already reclaimed it
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
