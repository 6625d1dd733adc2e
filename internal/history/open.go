package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Open returns the ledger for target, which is either a file path or a
// "redis://host:port/db/key" URL. The returned close function releases the
// underlying connection, if any.
func Open(ctx context.Context, target string) (Ledger, func() error, error) {
	if !strings.HasPrefix(target, "redis://") {
		ledger, err := OpenFileLedger(target)
		if err != nil {
			return nil, nil, err
		}
		return ledger, func() error { return nil }, nil
	}

	opts, key, err := ParseRedisTarget(target)
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}
	return NewRedisLedger(client, key), client.Close, nil
}
