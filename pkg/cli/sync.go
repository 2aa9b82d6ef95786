package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/taskbridge-dev/taskbridge/pkg/cli/config"
	"github.com/taskbridge-dev/taskbridge/pkg/usecase"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

func cmdSync() *cli.Command {
	var repoCfg config.Repository
	var portalCfg config.Portal

	flags := repoCfg.Flags()
	flags = append(flags, portalCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run one mapping reconciliation pass against the portal user directory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize mapping store")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close mapping store", "error", err.Error())
				}
			}()

			portalSvc, err := portalCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure portal client")
			}

			// The sync command never delivers notifications; no token to verify
			uc := usecase.New(repo, portalSvc, "")

			report, err := uc.Reconcile(ctx)
			if err != nil {
				return goerr.Wrap(err, "reconciliation failed")
			}

			logging.Default().Info("Reconciliation completed",
				"created", report.Created,
				"updated", report.Updated,
				"unchanged", report.Unchanged,
			)
			return nil
		},
	}
}
