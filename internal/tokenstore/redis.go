package tokenstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/healthhub-client/pkg/circuitbreaker"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
)

type RedisConfig struct {
	URL          string
	KeyPrefix    string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

// RedisStore writes both keys in one MULTI/EXEC so readers never see half a pair.
type RedisStore struct {
	client *redis.Client
	prefix string
	cb     *circuitbreaker.CircuitBreaker
	logger *logger.Logger
}

// NewRedisClient parses the URL and applies pool settings, then pings.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.MinRetryBackoff = cfg.RetryBackoff
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, prefix string, log *logger.Logger) *RedisStore {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-token-store",
			MaxFailures: 5,
			Timeout:     5 * time.Second,
		}),
		logger: log.With("token_store"),
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) Save(ctx context.Context, creds Credentials) error {
	if err := checkSave(creds); err != nil {
		return err
	}
	userData, err := encodeUser(creds.User)
	if err != nil {
		return err
	}

	err = s.cb.Execute(func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key(KeyToken), creds.Token, 0)
			pipe.Set(ctx, s.key(KeyUser), userData, 0)
			return nil
		})
		return err
	})
	if err != nil {
		s.logger.Error(err, "failed to save credentials", "breaker", string(s.cb.State()))
		return errors.Storage("failed to save credentials", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (Credentials, bool, error) {
	var values []interface{}
	err := s.cb.Execute(func() error {
		var err error
		values, err = s.client.MGet(ctx, s.key(KeyToken), s.key(KeyUser)).Result()
		return err
	})
	if err != nil && !stderrors.Is(err, redis.Nil) {
		return Credentials{}, false, errors.Storage("failed to load credentials", err)
	}
	if len(values) != 2 {
		return Credentials{}, false, nil
	}

	token, _ := values[0].(string)
	userData, _ := values[1].(string)
	creds, ok := decodePair(token, []byte(userData))
	return creds, ok, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.cb.Execute(func() error {
		return s.client.Del(ctx, s.key(KeyToken), s.key(KeyUser)).Err()
	})
	if err != nil {
		return errors.Storage("failed to clear credentials", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
