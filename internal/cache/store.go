package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"orma/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Store is a nil-tolerant JSON cache over Redis. A Store without a client misses on
// every read and drops every write, so callers fall through to the database.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb; rdb may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Client exposes the underlying client, or nil.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.rdb
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if s.Client() == nil {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s.Client() == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss or a Redis error it calls fetch, which must
// populate dest, and stores the result with ttl on a best-effort basis.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed, falling back to source",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate deletes keys, logging rather than returning failures.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if s.Client() == nil || len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed",
			slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// InvalidateEvent drops the cached event record.
func (s *Store) InvalidateEvent(ctx context.Context, hash string) {
	s.Invalidate(ctx, EventKey(hash))
}

// InvalidateTimeslots drops the cached timeslot index of an event.
func (s *Store) InvalidateTimeslots(ctx context.Context, hash string) {
	s.Invalidate(ctx, TimeslotsKey(hash))
}

// Blacklist marks a token id as revoked until ttl elapses.
func (s *Store) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if s.Client() == nil {
		return errors.New("token blacklist unavailable")
	}
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsBlacklisted reports whether jti was revoked. Redis errors are returned so the
// caller can decide how to fail.
func (s *Store) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if s.Client() == nil {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
