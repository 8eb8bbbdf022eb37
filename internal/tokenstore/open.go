package tokenstore

import (
	"context"
	"fmt"

	"github.com/jwalitptl/healthhub-client/config"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/security"
)

// Open builds the backend selected by cfg.Session.Backend.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Session.Backend {
	case config.BackendFile, "":
		log.Debug("using file token store", "path", cfg.Session.FilePath)
		var opts []FileOption
		if cfg.Session.EncryptionKey != "" {
			key, err := security.ParseKey(cfg.Session.EncryptionKey)
			if err != nil {
				return nil, fmt.Errorf("invalid session.encryption_key: %w", err)
			}
			enc, err := security.NewAESEncryptor(key)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithEncryptor(enc))
		}
		return NewFileStore(cfg.Session.FilePath, opts...), nil

	case config.BackendMemory:
		return NewMemoryStore(), nil

	case config.BackendRedis:
		client, err := NewRedisClient(ctx, RedisConfig{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.Session.KeyPrefix, log), nil

	case config.BackendPostgres:
		db, err := NewDB(cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(db, cfg.Session.KeyPrefix)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown token store backend %q", cfg.Session.Backend)
	}
}
