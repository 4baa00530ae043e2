package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no record is bound to a session handle.
var ErrNotFound = errors.New("session record not found")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store persists one credential record per session handle.
//
// Implementations must be safe for concurrent use and must replace records
// atomically.
type Store interface {
	// Get returns a copy of the record bound to sessionID or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*Record, error)
	// Save creates or overwrites the record.
	Save(ctx context.Context, rec *Record) error
	// Replace overwrites the record only while one is still bound to the
	// handle. It reports false when the record has been deleted meanwhile.
	Replace(ctx context.Context, rec *Record) (bool, error)
	// Delete removes the record and reports whether one existed.
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// RedisStore is a Redis-backed [Store]. Records are encoded with [Encode],
// sealed with a [Sealer] and stored under "<prefix>:<sessionID>" with a
// lifetime that restarts on every write.
//
//	Performance: one Redis command per operation.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	sealer *Sealer
}

// NewRedisStore creates a [RedisStore]. ttl bounds how long an idle record
// survives; it should match the remote API's refresh-credential lifetime.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration, sealer *Sealer) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if sealer == nil {
		return nil, errors.New("record sealer required")
	}
	if ttl <= 0 {
		return nil, errors.New("record ttl must be > 0")
	}
	if prefix == "" {
		prefix = "ss"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		sealer: sealer,
	}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Get fetches, opens and decodes the record bound to sessionID.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}

	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	plain, err := s.sealer.Open(sessionID, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	rec, err := Decode(plain)
	if err != nil {
		return nil, err
	}
	if rec.SessionID != sessionID {
		return nil, ErrRecordCorrupt
	}
	return rec, nil
}

// Save writes rec unconditionally.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	data, err := s.seal(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(rec.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Replace writes rec with SET XX so a concurrently deleted session is not
// resurrected.
func (s *RedisStore) Replace(ctx context.Context, rec *Record) (bool, error) {
	data, err := s.seal(rec)
	if err != nil {
		return false, err
	}
	ok, err := s.redis.SetXX(ctx, s.key(rec.SessionID), data, s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ok, nil
}

// Delete removes the record. The DEL reply tells whether this call was the
// one that removed it.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	n, err := s.redis.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

// Ping measures a Redis round-trip.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *RedisStore) seal(rec *Record) ([]byte, error) {
	if rec == nil || rec.SessionID == "" {
		return nil, errors.New("record requires a session id")
	}
	plain, err := Encode(rec)
	if err != nil {
		return nil, err
	}
	return s.sealer.Seal(rec.SessionID, plain)
}
