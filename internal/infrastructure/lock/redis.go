package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the key only when the stored owner matches, so a
// holder whose lock expired and was re-acquired cannot free the new
// holder's lock. The check-and-delete must be one atomic step, hence Lua.
const releaseScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// RedisService is the multi-instance lock backend: SET NX with a TTL for
// acquire, owner-checked Lua delete for release. Redis handles expiry
// itself, so there is nothing to sweep. Configured via
// business.use_redis_lock when running more than one server instance.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func (s *RedisService) TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, owner, ttl).Result()
}

func (s *RedisService) Release(ctx context.Context, key, owner string) error {
	deleted, err := s.client.Eval(ctx, releaseScript, []string{key}, owner).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
