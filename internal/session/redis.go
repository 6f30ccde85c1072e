// Redis-backed session store.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyagehq/farebot/internal/models"
)

const redisKeyPrefix = "session:"

// RedisStore persists sessions as JSON blobs in Redis. Each key carries a TTL
// matching the session timeout, so Redis expires idle sessions on its own and
// DeleteExpiredSessions is a no-op.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis using a redis:// URL.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("redis DSN not set")
	}

	redisOpts, err := redis.ParseURL(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Debug("session.NewRedisStore: store ready", "addr", redisOpts.Addr)
	return &RedisStore{client: client, ttl: DefaultTimeout}, nil
}

// GetSession returns the session for a phone number, or nil if absent.
func (s *RedisStore) GetSession(phone string) (*models.Session, error) {
	ctx := context.Background()
	raw, err := s.client.Get(ctx, redisKeyPrefix+phone).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", phone, err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session for %s: %w", phone, err)
	}
	return &sess, nil
}

// SaveSession stores the session with the session-timeout TTL.
func (s *RedisStore) SaveSession(sess models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ctx := context.Background()
	if err := s.client.Set(ctx, redisKeyPrefix+sess.Phone, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session for %s: %w", sess.Phone, err)
	}
	return nil
}

// DeleteSession removes the session for a phone number.
func (s *RedisStore) DeleteSession(phone string) error {
	ctx := context.Background()
	if err := s.client.Del(ctx, redisKeyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", phone, err)
	}
	return nil
}

// ListSessions scans all session keys and returns the stored sessions.
func (s *RedisStore) ListSessions() ([]models.Session, error) {
	ctx := context.Background()
	var sessions []models.Session
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", iter.Val(), err)
		}
		var sess models.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", iter.Val(), err)
		}
		sessions = append(sessions, sess)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return sessions, nil
}

// DeleteExpiredSessions is a no-op; key TTLs handle expiry.
func (s *RedisStore) DeleteExpiredSessions(cutoff time.Time) (int, error) {
	return 0, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
