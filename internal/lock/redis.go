package lock

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"catalogsync/internal/model"
)

// só apaga a chave se ela ainda pertence a quem está liberando
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisStore compartilha lock e status entre instâncias.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// aceita também só "host:porta"
		opts = &redis.Options{Addr: url}
	}
	return &RedisStore{Client: redis.NewClient(opts), TTL: ttl}, nil
}

func (s *RedisStore) Acquire(ctx context.Context) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.Client.SetNX(ctx, lockKey, token, s.TTL).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (s *RedisStore) Release(ctx context.Context, token string) error {
	return releaseScript.Run(ctx, s.Client, []string{lockKey}, token).Err()
}

func (s *RedisStore) Running(ctx context.Context) (bool, error) {
	n, err := s.Client.Exists(ctx, lockKey).Result()
	return n > 0, err
}

func (s *RedisStore) SaveStatus(ctx context.Context, r model.RunReport) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, statusKey, b, statusTTL).Err()
}

func (s *RedisStore) LastStatus(ctx context.Context) (*model.RunReport, error) {
	val, err := s.Client.Get(ctx, statusKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r model.RunReport
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
