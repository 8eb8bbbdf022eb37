package tokenstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("HEALTHHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("HEALTHHUB_TEST_REDIS_URL not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		client, err := NewRedisClient(context.Background(), RedisConfig{URL: url})
		require.NoError(t, err)
		s := NewRedisStore(client, "healthhub-test:"+uuid.NewString()+":", nil)
		t.Cleanup(func() {
			_ = s.Clear(context.Background())
			_ = s.Close()
		})
		return s
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("HEALTHHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HEALTHHUB_TEST_DATABASE_URL not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		db, err := NewDB(dsn)
		require.NoError(t, err)
		s := NewPostgresStore(db, "test-"+uuid.NewString())
		require.NoError(t, s.EnsureSchema(context.Background()))
		t.Cleanup(func() {
			_ = s.Clear(context.Background())
			_ = s.Close()
		})
		return s
	})
}
