package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

type mappingRepository struct {
	db    *sql.DB
	table string
}

var _ interfaces.MappingRepository = &mappingRepository{}

func (r *mappingRepository) Get(ctx context.Context, key string) (*model.MappingEntry, error) {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT key, value, source, updated_at FROM %s WHERE key = $1", r.table)

	var entry model.MappingEntry
	var source string
	err := r.db.QueryRowContext(opCtx, query, key).Scan(&entry.Key, &entry.Value, &source, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "no entry for key", goerr.V("key", key), goerr.V("table", r.table))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query mapping", goerr.V("key", key), goerr.V("table", r.table))
	}

	entry.Source = types.MappingSource(source)
	return &entry, nil
}

// Put upserts with last-write-wins by timestamp: an existing row with a
// newer updated_at is left alone, so racing pipelines converge on the
// freshest observation regardless of arrival order.
func (r *mappingRepository) Put(ctx context.Context, key, value string, source types.MappingSource) error {
	if err := source.Validate(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, source, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, source = EXCLUDED.source, updated_at = EXCLUDED.updated_at
		WHERE %s.updated_at <= EXCLUDED.updated_at`, r.table, r.table)

	if _, err := r.db.ExecContext(opCtx, query, key, value, string(source), time.Now().UTC()); err != nil {
		return goerr.Wrap(err, "failed to upsert mapping", goerr.V("key", key), goerr.V("table", r.table))
	}
	return nil
}

// Sync applies Put semantics per entry in one transaction, but an
// incoming entry only replaces an existing row when strictly newer.
// The xmax = 0 check distinguishes inserts from updates; an upsert
// suppressed by the freshness guard affects no row at all.
func (r *mappingRepository) Sync(ctx context.Context, entries []*model.MappingEntry) (*model.SyncReport, error) {
	report := &model.SyncReport{}
	if len(entries) == 0 {
		return report, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin sync transaction", goerr.V("table", r.table))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, source, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, source = EXCLUDED.source, updated_at = EXCLUDED.updated_at
		WHERE %s.updated_at < EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted`, r.table, r.table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare sync statement", goerr.V("table", r.table))
	}
	defer stmt.Close()

	for _, entry := range entries {
		if err := entry.Source.Validate(); err != nil {
			return nil, err
		}

		var inserted bool
		err := stmt.QueryRowContext(ctx, entry.Key, entry.Value, string(entry.Source), entry.UpdatedAt.UTC()).Scan(&inserted)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			report.Unchanged++
		case err != nil:
			return nil, goerr.Wrap(err, "failed to sync mapping", goerr.V("key", entry.Key), goerr.V("table", r.table))
		case inserted:
			report.Created++
		default:
			report.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit sync transaction", goerr.V("table", r.table))
	}

	return report, nil
}

func (r *mappingRepository) List(ctx context.Context) ([]*model.MappingEntry, error) {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT key, value, source, updated_at FROM %s ORDER BY key", r.table)

	rows, err := r.db.QueryContext(opCtx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list mappings", goerr.V("table", r.table))
	}
	defer rows.Close()

	var result []*model.MappingEntry
	for rows.Next() {
		var entry model.MappingEntry
		var source string
		if err := rows.Scan(&entry.Key, &entry.Value, &source, &entry.UpdatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan mapping row", goerr.V("table", r.table))
		}
		entry.Source = types.MappingSource(source)
		result = append(result, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate mapping rows", goerr.V("table", r.table))
	}

	return result, nil
}
