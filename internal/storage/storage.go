// Package storage holds the persistence collaborators of the studio core: a
// local key-value store used as a write-through cache for the queue and
// history collections, an object store for full-size image payloads, and a
// remote metadata store mirroring id-keyed item records. All of them are
// best-effort from the core's point of view; in-memory state stays
// authoritative for the session when a write fails.
package storage

import (
	"context"

	"flyerstudio/internal/domain"
)

// KV is a simple key-value store. Get returns domain.ErrNotFound for a
// missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ObjectStore persists raw image payloads under a name and returns a durable
// URL. An empty URL with a nil error means the store declined the write; the
// caller proceeds with local-only data.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// MetadataStore mirrors history item records and asset collections to a
// remote document store with id-keyed partial updates. Implementations must
// tolerate being called concurrently for different ids.
type MetadataStore interface {
	UpsertItem(ctx context.Context, item domain.HistoryItem) error
	DeleteItem(ctx context.Context, id string) error
	SaveAssets(ctx context.Context, kind string, assets []domain.AssetImage) error
}
