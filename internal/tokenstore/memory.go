package tokenstore

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps the pair in process memory. Useful for tests and for
// embedders that manage persistence themselves.
type MemoryStore struct {
	cache *cache.Cache
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (s *MemoryStore) Save(ctx context.Context, creds Credentials) error {
	if err := checkSave(creds); err != nil {
		return err
	}
	userData, err := encodeUser(creds.User)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(KeyToken, creds.Token, cache.NoExpiration)
	s.cache.Set(KeyUser, userData, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (Credentials, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokenVal, ok := s.cache.Get(KeyToken)
	if !ok {
		return Credentials{}, false, nil
	}
	userVal, ok := s.cache.Get(KeyUser)
	if !ok {
		return Credentials{}, false, nil
	}
	token, _ := tokenVal.(string)
	userData, _ := userVal.([]byte)

	creds, found := decodePair(token, userData)
	return creds, found, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(KeyToken)
	s.cache.Delete(KeyUser)
	return nil
}

// setRaw writes a single key, bypassing the pair invariant. Tests use it to
// simulate a torn write.
func (s *MemoryStore) setRaw(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(key, value, cache.NoExpiration)
}
