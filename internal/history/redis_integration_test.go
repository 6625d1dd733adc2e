//go:build integration

package history

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}
	return client, cleanup
}

func TestRedisLedger_Integration(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	ledger := NewRedisLedger(client, "")

	if has, err := ledger.Has(ctx, "https://a/1"); err != nil || has {
		t.Fatalf("Has() on empty ledger = %v, %v", has, err)
	}

	if err := ledger.Mark(ctx, "https://a/2", "https://a/1"); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	urls, err := ledger.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://a/1" {
		t.Errorf("List() = %v", urls)
	}

	if err := ledger.Remove(ctx, "https://a/1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if has, _ := ledger.Has(ctx, "https://a/1"); has {
		t.Error("removed url still present")
	}

	if err := ledger.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := client.Exists(ctx, DefaultRedisKey).Result(); n != 0 {
		t.Error("hash should be deleted after Clear")
	}
}
