//go:build integration

package test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var integrationSecret = bytes.Repeat([]byte("i"), session.MinSealSecretSize)

// redisMode describes which Redis backend the suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes returns the Redis backends to test. miniredis is always
// available; REDIS_ADDR adds a standalone server and REDIS_CLUSTER_ADDRS a
// cluster.
func redisModes() []redisMode {
	modes := []redisMode{{
		name: "miniredis",
		setup: func(t *testing.T) redis.UniversalClient {
			t.Helper()
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("miniredis: %v", err)
			}
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close(); mr.Close() })
			return rdb
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				pingOrSkip(t, rdb)
				rdb.FlushDB(context.Background())
				t.Cleanup(func() { rdb.FlushDB(context.Background()); _ = rdb.Close() })
				return rdb
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				pingOrSkip(t, rdb)
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		})
	}

	return modes
}

func pingOrSkip(t *testing.T, rdb redis.UniversalClient) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("cannot connect to Redis: %v", err)
	}
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

func newStore(t *testing.T, rdb redis.UniversalClient, prefix string, secret []byte) *session.RedisStore {
	t.Helper()
	sealer, err := session.NewSealer(secret)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	store, err := session.NewRedisStore(rdb, prefix, time.Hour, sealer)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	return store
}

func makeRecord(sessionID string) *session.Record {
	now := time.Now()
	return &session.Record{
		SessionID:    sessionID,
		SubjectID:    "42",
		Role:         "user",
		AccessToken:  "access-" + sessionID,
		RefreshToken: "refresh-" + sessionID,
		AccessExpiry: now.Add(14 * time.Minute).UnixMilli(),
		CreatedAt:    now.UnixMilli(),
		RefreshedAt:  now.UnixMilli(),
	}
}
