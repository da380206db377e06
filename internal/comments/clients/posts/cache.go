package posts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// cachedChecker оборачивает Checker кэшем в Redis.
// Кэшируются оба исхода: положительный с полным TTL, отрицательный —
// с укороченным (пост мог появиться только что, долго помнить «нет» вредно).
type cachedChecker struct {
	next   Checker
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCached создаёт Checker с кэшем поверх next.
// redisURL — например, redis://:pass@host:6379/0.
func NewCached(next Checker, redisURL string, ttl time.Duration) (Checker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &cachedChecker{
		next:   next,
		rdb:    rdb,
		prefix: "comments:post:",
		ttl:    ttl,
	}, nil
}

func (c *cachedChecker) key(postID uuid.UUID) string { return c.prefix + postID.String() }

// Exists читает кэш; при промахе или любой ошибке Redis падает на next —
// кэш ускоряет, но никогда не ломает проверку.
func (c *cachedChecker) Exists(ctx context.Context, postID uuid.UUID) (bool, error) {
	if val, err := c.rdb.Get(ctx, c.key(postID)).Result(); err == nil {
		return val == "1", nil
	}

	exists, err := c.next.Exists(ctx, postID)
	if err != nil {
		return false, err
	}

	ttl := c.ttl
	val := "0"
	if exists {
		val = "1"
	} else {
		ttl = c.ttl / 10
		if ttl < time.Second {
			ttl = time.Second
		}
	}

	_ = c.rdb.Set(ctx, c.key(postID), val, ttl).Err()

	return exists, nil
}

func (c *cachedChecker) Close() error {
	err := c.rdb.Close()
	if nerr := c.next.Close(); err == nil {
		err = nerr
	}

	return err
}
