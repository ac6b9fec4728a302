package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore tracks session tokens that were logged out before their
// natural expiry.  Tokens are keyed by their jti claim; entries carry a TTL
// equal to the token's remaining lifetime, so the store never retains more
// than one token-lifetime of history.  An expired token is rejected by the
// verifier before this store is ever consulted.
//
// The interface exists so the in-memory store used by a single instance (and
// by tests) can be swapped for the Redis store without touching the session
// handlers.
type RevocationStore interface {
	// Revoke records the token id for ttl.  Non-positive ttl is a no-op
	// since the token is already expired.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether the token id was logged out.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ----- Redis-backed store -----

// RedisRevocationStore persists revocations in Redis so they survive process
// restarts and are shared across instances.  Redis handles expiry natively
// via SET with TTL.
type RedisRevocationStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisRevocationStore(rdb *redis.Client, prefix string) *RedisRevocationStore {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RedisRevocationStore{rdb: rdb, prefix: prefix}
}

func (s *RedisRevocationStore) key(jti string) string { return s.prefix + ":" + jti }

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, s.key(jti), 1, ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ----- In-memory store -----

// MemoryRevocationStore keeps revocations in a mutex-guarded map.  It is the
// fallback when Redis is unavailable and the default in tests.  State does
// not survive a restart and is not shared across instances; acceptable for a
// single-instance deployment.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // jti -> expiry of the revocation entry
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(now)
	s.entries[jti] = now.Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if now.After(exp) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}

// purgeLocked drops entries whose retention has elapsed.  Called with the
// mutex held on every write so the map stays bounded by the token lifetime.
func (s *MemoryRevocationStore) purgeLocked(now time.Time) {
	for jti, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, jti)
		}
	}
}
