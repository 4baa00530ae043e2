package session

import (
	"bytes"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = bytes.Repeat([]byte("k"), MinSealSecretSize)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sealer, err := NewSealer(testSecret)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	store, err := NewRedisStore(rdb, "ss", time.Hour, sealer)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return store, mr, rdb
}

func testRecord() *Record {
	now := time.Now()
	return &Record{
		SessionID:    "3f0c8f0e-5a59-4a49-9d6f-4b8a3b0b9c11",
		SubjectID:    "42",
		Role:         "admin",
		AccessToken:  "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiI0MiIsInJvbGUiOiJhZG1pbiJ9.c2ln",
		RefreshToken: "opaque-refresh-credential",
		AccessExpiry: now.Add(14 * time.Minute).UnixMilli(),
		CreatedAt:    now.UnixMilli(),
		RefreshedAt:  now.UnixMilli(),
	}
}
