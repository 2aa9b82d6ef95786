package config

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
	"github.com/taskbridge-dev/taskbridge/pkg/repository/memory"
	"github.com/taskbridge-dev/taskbridge/pkg/repository/postgres"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// Repository holds CLI flags for mapping store backend configuration
type Repository struct {
	dsn string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "PostgreSQL DSN for the mapping store (empty: in-memory backend)",
			Sources:     cli.EnvVars("TASKBRIDGE_DB_DSN"),
			Destination: &r.dsn,
		},
	}
}

// DSN returns the configured database DSN
func (r *Repository) DSN() string {
	return r.dsn
}

// Configure initializes the mapping store. The backend decision is made
// exactly once: when the database is configured but unreachable, the
// store degrades to the in-memory backend for the process lifetime and
// mappings learned at runtime do not survive a restart.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	if r.dsn == "" {
		logging.Default().Info("Using in-memory mapping store (no database configured)")
		return memory.New(), nil
	}

	repo, err := postgres.New(ctx, r.dsn)
	if err != nil {
		logging.Default().Warn("Database unavailable, degrading to in-memory mapping store",
			"error", err.Error())
		return memory.New(), nil
	}

	logging.Default().Info("Using PostgreSQL mapping store")
	return repo, nil
}
