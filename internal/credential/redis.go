package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
)

const DefaultRedisKey = "fyers:credential"

// RedisStore keeps the credential as one JSON value, so a SET replaces it atomically.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (model.Credential, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Credential{}, fmt.Errorf("redis key %s: %w", s.key, apperr.ErrNotFound)
		}
		return model.Credential{}, fmt.Errorf("redis get %s: %w: %w", s.key, apperr.ErrStorage, err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, cred model.Credential) error {
	data, err := encode(cred)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w: %w", s.key, apperr.ErrStorage, err)
	}
	return nil
}
