package history

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding the ledger when no key is given.
const DefaultRedisKey = "bulkdl:downloaded"

// RedisLedger stores the ledger in one Redis hash of URL to mark time.
type RedisLedger struct {
	redis *redis.Client
	key   string
}

// NewRedisLedger creates a ledger on the hash key. An empty key uses
// DefaultRedisKey.
func NewRedisLedger(client *redis.Client, key string) *RedisLedger {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLedger{redis: client, key: key}
}

// ParseRedisTarget splits "redis://host:port/db/key" into client options and
// the hash key. The db and key segments are optional.
func ParseRedisTarget(target string) (*redis.Options, string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, "", fmt.Errorf("parse redis target: %w", err)
	}
	if u.Scheme != "redis" || u.Host == "" {
		return nil, "", fmt.Errorf("invalid redis target %q", target)
	}

	opts := &redis.Options{Addr: u.Host}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	key := ""
	if len(segments) > 0 && segments[0] != "" {
		if db, err := strconv.Atoi(segments[0]); err == nil {
			opts.DB = db
			segments = segments[1:]
		}
		key = strings.Join(segments, "/")
	}
	return opts, key, nil
}

// Has implements Ledger.
func (l *RedisLedger) Has(ctx context.Context, url string) (bool, error) {
	ok, err := l.redis.HExists(ctx, l.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("check %s: %w", url, err)
	}
	return ok, nil
}

// Mark implements Ledger.
func (l *RedisLedger) Mark(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	now := timestamp()
	values := make([]interface{}, 0, len(urls)*2)
	for _, url := range urls {
		values = append(values, url, now)
	}
	if err := l.redis.HSet(ctx, l.key, values...).Err(); err != nil {
		return fmt.Errorf("mark urls: %w", err)
	}
	return nil
}

// Remove implements Ledger.
func (l *RedisLedger) Remove(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := l.redis.HDel(ctx, l.key, urls...).Err(); err != nil {
		return fmt.Errorf("remove urls: %w", err)
	}
	return nil
}

// Clear implements Ledger.
func (l *RedisLedger) Clear(ctx context.Context) error {
	if err := l.redis.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	return nil
}

// List implements Ledger.
func (l *RedisLedger) List(ctx context.Context) ([]string, error) {
	urls, err := l.redis.HKeys(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	sort.Strings(urls)
	return urls, nil
}
