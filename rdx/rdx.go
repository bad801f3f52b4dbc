package rdx

import (
	"context"
	"fmt"
	"time"

	"ticketbari/apperr"
	"ticketbari/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewClient connects to Redis and pings it once.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Locker hands out short-lived exclusive locks backed by SET NX. Each lock
// holds a random token so a holder whose TTL ran out cannot release the lock
// a later holder took.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	token  func() string
}

const DefaultLockTTL = 5 * time.Second

// releaseScript deletes KEYS[1] only while it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Locker{client: client, ttl: ttl, token: uuid.NewString}
}

// Lock acquires key or fails with apperr.ErrBusy when another holder has it.
// The returned func releases the lock; the TTL frees it if the holder dies.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := l.token()
	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", apperr.ErrUpstream, key, err)
	}
	if !acquired {
		return nil, fmt.Errorf("lock %s: %w", key, apperr.ErrBusy)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		switch {
		case err != nil:
			logger.L.Warn("lock release failed", "key", key, "err", err)
		case n == 0:
			logger.L.Warn("lock expired before release", "key", key, "ttl", l.ttl)
		}
	}, nil
}
