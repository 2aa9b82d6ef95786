package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// Mapping domain names as exposed on the ops API.
const (
	DomainUsers     = "users"
	DomainUsernames = "usernames"
	DomainThreads   = "threads"
)

func (uc *UseCases) mappingDomain(domain string) (interfaces.MappingRepository, error) {
	switch domain {
	case DomainUsers:
		return uc.repo.UserMap(), nil
	case DomainUsernames:
		return uc.repo.UsernameMap(), nil
	case DomainThreads:
		return uc.repo.ThreadMap(), nil
	default:
		return nil, goerr.Wrap(ErrUnknownMappingDomain, "no such mapping domain", goerr.V("domain", domain))
	}
}

// ListMappings returns all entries of the named mapping domain.
func (uc *UseCases) ListMappings(ctx context.Context, domain string) ([]*model.MappingEntry, error) {
	repo, err := uc.mappingDomain(domain)
	if err != nil {
		return nil, err
	}

	entries, err := repo.List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list mappings", goerr.V("domain", domain))
	}
	return entries, nil
}

// ApplySeeds bulk-loads preset mapping entries, typically from a seed
// file at boot. Seeds go through Sync, so a seed never overrides an
// entry the store already holds with a newer timestamp.
func (uc *UseCases) ApplySeeds(ctx context.Context, usernameEntries, threadEntries []*model.MappingEntry) (*model.SyncReport, error) {
	total := &model.SyncReport{}

	if len(usernameEntries) > 0 {
		report, err := uc.repo.UsernameMap().Sync(ctx, usernameEntries)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to apply username seed mappings")
		}
		total.Merge(report)
	}

	if len(threadEntries) > 0 {
		report, err := uc.repo.ThreadMap().Sync(ctx, threadEntries)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to apply thread seed mappings")
		}
		total.Merge(report)
	}

	if total.Total() > 0 {
		logging.From(ctx).Info("applied seed mappings",
			"created", total.Created,
			"updated", total.Updated,
			"unchanged", total.Unchanged,
		)
	}
	return total, nil
}
