package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/storecase-identity/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL        = 10 * time.Second
	defaultLockRetryDelay = 25 * time.Millisecond
)

// ErrLockTimeout 等待锁超时
var ErrLockTimeout = errors.New("redis lock wait timeout")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式互斥锁
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisLocker 创建 Redis 锁，ttl 为租约时长
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{
		client:     client,
		ttl:        ttl,
		retryDelay: defaultLockRetryDelay,
	}
}

// Lock 获取锁，直到成功或 ctx 结束
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}
	fullKey := BuildKey("lock:" + key)

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(ErrLockTimeout, ctxErr)
			}
			return nil, err
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(fullKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseLockScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			logger.Warnw("redis_lock_release_failed", "key", fullKey, "error", err)
		}
	}
}

func newLockToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
