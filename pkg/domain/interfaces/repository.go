package interfaces

import (
	"context"
	"errors"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// ErrNotFound is returned by Get when a mapping key has no entry.
var ErrNotFound = errors.New("mapping not found")

// MappingRepository provides operations over one mapping domain.
// Implementations must never block on the remote portal; reads touch
// only the configured backend.
type MappingRepository interface {
	// Get retrieves the entry for key. Absent keys fail with ErrNotFound.
	Get(ctx context.Context, key string) (*model.MappingEntry, error)

	// Put upserts an association observed now. Concurrent writers to
	// the same key resolve last-write-wins by timestamp.
	Put(ctx context.Context, key, value string, source types.MappingSource) error

	// Sync bulk-reconciles entries from an authoritative source. A
	// synced entry only replaces an existing one when strictly newer.
	Sync(ctx context.Context, entries []*model.MappingEntry) (*model.SyncReport, error)

	// List returns all entries of the domain.
	List(ctx context.Context) ([]*model.MappingEntry, error)
}

// Repository aggregates the three identity mapping domains.
type Repository interface {
	// UserMap associates portal user IDs with messenger user IDs.
	UserMap() MappingRepository

	// UsernameMap associates messenger usernames with portal user IDs.
	UsernameMap() MappingRepository

	// ThreadMap associates messenger thread IDs with portal
	// organizational unit IDs.
	ThreadMap() MappingRepository

	Close() error
}
