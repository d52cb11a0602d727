package studycache

import (
	"context"
)

//go:generate mockgen -source=store.go -destination=../mocks/studycache/mock_store.go -package=mock_studycache

// Store is a durable key/value store for serialized study sets.
// Entries never expire; Put overwrites.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}
