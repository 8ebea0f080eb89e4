package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var alertRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisAlertRateLimiter bounds broadcast alert sends per operator using a
// fixed window counter in Redis. A nil client disables limiting entirely.
type RedisAlertRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisAlertRateLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisAlertRateLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "flash_admin:rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisAlertRateLimiter{
		client: client,
		prefix: trimmedPrefix,
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the subject may send another alert in the current
// window. Limiting is skipped when the limiter is unconfigured.
func (r *RedisAlertRateLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	if r == nil || r.client == nil || r.limit <= 0 || r.window <= 0 {
		return true, nil
	}

	normalizedSubject := strings.TrimSpace(subject)
	if normalizedSubject == "" {
		normalizedSubject = "anonymous"
	}

	windowMs := r.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:alerts:%s", r.prefix, normalizedSubject)
	rawResult, err := alertRateLimitScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return false, err
	}

	currentCount, ok := rawResult.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected redis limiter count type: %T", rawResult)
	}
	return currentCount <= int64(r.limit), nil
}
