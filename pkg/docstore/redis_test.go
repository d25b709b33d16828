package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Set NEARBYU_TEST_REDIS_ADDR to run against a live redis.
func TestRedisStoreContract(t *testing.T) {
	addr := os.Getenv("NEARBYU_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NEARBYU_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	prefix := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx := context.Background()
		iter := rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
		for iter.Next(ctx) {
			rdb.Del(ctx, iter.Val())
		}
	})

	runContract(t, NewRedisStore(rdb, prefix, 20))
}
