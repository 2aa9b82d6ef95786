package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// Reconcile pulls the portal's user directory and synchronizes the
// user and username mapping domains against it. Entries produced here
// carry the "synced" source; the store's conflict rule protects newer
// learned entries from being clobbered.
func (uc *UseCases) Reconcile(ctx context.Context) (*model.SyncReport, error) {
	logger := logging.From(ctx)

	users, err := uc.portal.ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list portal users for reconciliation")
	}

	now := time.Now().UTC()
	var userEntries, usernameEntries []*model.MappingEntry
	for _, user := range users {
		if !user.Active {
			continue
		}
		if user.MessengerID != "" {
			userEntries = append(userEntries, &model.MappingEntry{
				Key:       string(user.ID),
				Value:     string(user.MessengerID),
				Source:    types.SourceSynced,
				UpdatedAt: now,
			})
		}
		if user.MessengerUsername != "" {
			usernameEntries = append(usernameEntries, &model.MappingEntry{
				Key:       string(user.MessengerUsername),
				Value:     string(user.ID),
				Source:    types.SourceSynced,
				UpdatedAt: now,
			})
		}
	}

	total := &model.SyncReport{}
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		report, err := uc.repo.UserMap().Sync(ctx, userEntries)
		if err != nil {
			return goerr.Wrap(err, "failed to sync user mappings")
		}
		mu.Lock()
		total.Merge(report)
		mu.Unlock()
		return nil
	})
	eg.Go(func() error {
		report, err := uc.repo.UsernameMap().Sync(ctx, usernameEntries)
		if err != nil {
			return goerr.Wrap(err, "failed to sync username mappings")
		}
		mu.Lock()
		total.Merge(report)
		mu.Unlock()
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Info("reconciled identity mappings",
		"portal_users", len(users),
		"created", total.Created,
		"updated", total.Updated,
		"unchanged", total.Unchanged,
	)
	return total, nil
}
