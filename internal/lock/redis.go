package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis implements Locker with SET NX PX so every API replica shares the lock.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.NewString()
	err := wait(ctx, func() (bool, error) {
		ok, err := r.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis setnx %s: %w", fullKey, err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{fullKey}, token).Err()
	}, nil
}
