package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

type memoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between replicas.
func NewMemoryStore(cleanupInterval time.Duration) Store {
	return &memoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *memoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v.(*Session)
	cp.Flashes = append([]string(nil), cp.Flashes...)
	return &cp, nil
}

func (s *memoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	cp := *sess
	cp.Flashes = append([]string(nil), sess.Flashes...)
	s.cache.Set(sess.ID, &cp, ttl)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}
