package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// mappingRepository holds one mapping domain. Each domain carries its
// own lock so writers to unrelated domains never serialize each other.
type mappingRepository struct {
	mu      sync.RWMutex
	entries map[string]*model.MappingEntry
}

var _ interfaces.MappingRepository = &mappingRepository{}

func newMappingRepository() *mappingRepository {
	return &mappingRepository{
		entries: make(map[string]*model.MappingEntry),
	}
}

func copyEntry(e *model.MappingEntry) *model.MappingEntry {
	copied := *e
	return &copied
}

func (r *mappingRepository) Get(ctx context.Context, key string) (*model.MappingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "no entry for key", goerr.V("key", key))
	}

	return copyEntry(entry), nil
}

func (r *mappingRepository) Put(ctx context.Context, key, value string, source types.MappingSource) error {
	if err := source.Validate(); err != nil {
		return err
	}

	incoming := &model.MappingEntry{
		Key:       key,
		Value:     value,
		Source:    source,
		UpdatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok && !incoming.Supersedes(existing) {
		return nil
	}
	r.entries[key] = incoming
	return nil
}

func (r *mappingRepository) Sync(ctx context.Context, entries []*model.MappingEntry) (*model.SyncReport, error) {
	report := &model.SyncReport{}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, incoming := range entries {
		if err := incoming.Source.Validate(); err != nil {
			return nil, err
		}

		existing, ok := r.entries[incoming.Key]
		switch {
		case !ok:
			r.entries[incoming.Key] = copyEntry(incoming)
			report.Created++
		case incoming.SupersedesOnSync(existing):
			r.entries[incoming.Key] = copyEntry(incoming)
			report.Updated++
		default:
			report.Unchanged++
		}
	}

	return report, nil
}

func (r *mappingRepository) List(ctx context.Context) ([]*model.MappingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.MappingEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, copyEntry(entry))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result, nil
}
