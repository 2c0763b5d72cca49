package redis_session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/session"
	"github.com/redis/go-redis/v9"
)

// Store keeps each session's history in a Redis list of JSON turns. The key
// TTL is refreshed on every append.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Store = (*Store)(nil)

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Conn opens a client for cfg and checks it with PING.
func Conn(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}
	if pong != "PONG" {
		_ = client.Close()
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}
	return client, nil
}

func turnsKey(id string) string { return fmt.Sprintf("newsrag:session:%s:turns", id) }

func (s *Store) Get(ctx context.Context, id string) ([]models.Turn, error) {
	raw, err := s.client.LRange(ctx, turnsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	turns := make([]models.Turn, 0, len(raw))
	for _, r := range raw {
		var t models.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("decode turn in session %s: %w", id, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *Store) Append(ctx context.Context, id string, turns ...models.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, b)
	}
	key := turnsKey(id)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append session %s: %w", id, err)
	}
	return nil
}

func (s *Store) Evict(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, turnsKey(id)).Err(); err != nil {
		return fmt.Errorf("evict session %s: %w", id, err)
	}
	return nil
}
