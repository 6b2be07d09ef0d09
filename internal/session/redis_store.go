// Package session provides a Redis-backed session repository.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"workshop/api/internal/workshop"
)

const (
	defaultPrefix = "workshop:session:"
	indexKey      = "workshop:sessions"
)

// RedisStore keeps each session as a JSON string and indexes ids in a sorted
// set scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL. A zero ttl keeps sessions forever.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*workshop.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, workshop.NotFound("session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return decode(raw)
}

// Put writes the document and its index entry in one transaction.
func (s *RedisStore) Put(ctx context.Context, session *workshop.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(session.ID), raw, s.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(session.CreatedAt.UnixNano()),
			Member: session.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("put session %s: %w", session.ID, err)
	}
	return nil
}

// List returns sessions newest first. Index entries whose document expired
// are pruned.
func (s *RedisStore) List(ctx context.Context) ([]*workshop.Session, error) {
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}
	sessions := make([]*workshop.Session, 0, len(ids))
	if len(ids) == 0 {
		return sessions, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	var stale []any
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		session, err := decode(raw)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune session index: %w", err)
		}
	}
	return sessions, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decode(raw string) (*workshop.Session, error) {
	var session workshop.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	session.Normalize()
	return &session, nil
}
