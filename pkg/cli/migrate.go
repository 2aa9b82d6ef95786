package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/taskbridge-dev/taskbridge/pkg/repository/postgres"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

func cmdMigrate() *cli.Command {
	var dsn string

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the mapping store database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "db-dsn",
				Usage:       "PostgreSQL DSN for the mapping store (required)",
				Required:    true,
				Sources:     cli.EnvVars("TASKBRIDGE_DB_DSN"),
				Destination: &dsn,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			repo, err := postgres.New(ctx, dsn)
			if err != nil {
				return goerr.Wrap(err, "failed to connect to database")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close database", "error", err.Error())
				}
			}()

			if err := repo.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}

			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}
