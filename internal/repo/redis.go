package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"alvara/internal/model"
)

type RedisStore struct {
	client *redis.Client
	key    string
	log    *zerolog.Logger
}

func NewRedisStore(ctx context.Context, addr, password string, db int, key string, log *zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	if key == "" {
		key = "aprovaEventos_db"
	}
	log.Info().Str("addr", addr).Str("key", key).Msg("redis storage connected")
	return &RedisStore{client: client, key: key, log: log}, nil
}

func (s *RedisStore) Load(ctx context.Context) (*model.Database, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}
	return decode(raw)
}

func (s *RedisStore) Save(ctx context.Context, db *model.Database) error {
	raw, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
