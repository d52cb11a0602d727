package studycache

import (
	"context"
	"slices"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local store, used by tests and single-process deployments.
type MemoryStore struct {
	items *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: gocache.New(gocache.NoExpiration, 0),
	}
}

func (store *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := store.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value.([]byte)), true, nil
}

func (store *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	store.items.Set(key, slices.Clone(value), gocache.NoExpiration)
	return nil
}

// Len returns the number of stored entries.
func (store *MemoryStore) Len() int {
	return store.items.ItemCount()
}
