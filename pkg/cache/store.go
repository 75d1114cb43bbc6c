// Package cache persists the last known accounts of a provider so a restarted
// host can resume without asking the user again.
package cache

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Load when no value is stored under the key.
var ErrNotFound = errors.New("cache entry not found")

// Store is a key-value store for small JSON documents.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
