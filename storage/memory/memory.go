package memory

import (
	"context"

	"github.com/jellydator/ttlcache/v3"
	"go.pilab.hu/hospital/storage"
)

// Store implements storage.KV using ttlcache. Entries never expire; the cache is only used
// for its concurrency-safe map semantics. Nothing survives a restart.
type Store struct {
	cache *ttlcache.Cache[string, string]
}

var _ storage.KV = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, string](ttlcache.NoTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	return &Store{cache: cache}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	item := s.cache.Get(key)
	if item == nil {
		return "", storage.ErrNotFound
	}

	return item.Value(), nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, ttlcache.NoTTL)

	return nil
}

func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		_ = s.Set(ctx, k, v)
	}

	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Delete(k)
	}

	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) Close() error {
	s.cache.DeleteAll()

	return nil
}
