package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client is the subset of the redis client the seat lock needs.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis guards the check-then-insert sequence of seat booking: while a
// request holds seat_lock:<trip>:<seat>, no other request can commit a
// reservation for the same seat. The TTL bounds how long a crashed
// request can keep a seat unbookable.
type Redis struct {
	Client  Client
	LockTTL time.Duration
}

func NewRedis(client Client, lockTTL time.Duration) *Redis {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &Redis{Client: client, LockTTL: lockTTL}
}

func seatKey(tripID string, seatNumber int) string {
	return fmt.Sprintf("seat_lock:%s:%d", tripID, seatNumber)
}

// LockSeat takes the booking lock for one (trip, seat). The token
// identifies the booking request so only it can release the lock.
func (r *Redis) LockSeat(tripID string, seatNumber int, token string) (bool, error) {
	return r.Client.SetNX(context.Background(), seatKey(tripID, seatNumber), token, r.LockTTL).Result()
}

// UnlockSeat releases the lock if this token still holds it.
func (r *Redis) UnlockSeat(tripID string, seatNumber int, token string) error {
	ctx := context.Background()
	key := seatKey(tripID, seatNumber)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
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

// IsSeatLocked reports whether a booking for (trip, seat) is in flight,
// without taking the lock.
func (r *Redis) IsSeatLocked(tripID string, seatNumber int) (bool, error) {
	_, err := r.Client.Get(context.Background(), seatKey(tripID, seatNumber)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
