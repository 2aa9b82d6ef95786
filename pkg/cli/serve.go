package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/taskbridge-dev/taskbridge/pkg/cli/config"
	httpctrl "github.com/taskbridge-dev/taskbridge/pkg/controller/http"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/service/worker"
	"github.com/taskbridge-dev/taskbridge/pkg/usecase"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var webhookToken string
	var reconcileInterval time.Duration
	var repoCfg config.Repository
	var portalCfg config.Portal
	var messengerCfg config.Messenger
	var seedsCfg config.Seeds

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TASKBRIDGE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "webhook-token",
			Usage:       "Expected application token of inbound portal webhooks",
			Required:    true,
			Sources:     cli.EnvVars("TASKBRIDGE_WEBHOOK_TOKEN"),
			Destination: &webhookToken,
		},
		&cli.DurationFlag{
			Name:        "reconcile-interval",
			Usage:       "Interval of the periodic mapping reconciliation",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("TASKBRIDGE_RECONCILE_INTERVAL"),
			Destination: &reconcileInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, portalCfg.Flags()...)
	flags = append(flags, messengerCfg.Flags()...)
	flags = append(flags, seedsCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook HTTP server",
		Flags:   flags,
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

			ucOpts := []usecase.Option{}
			if messengerCfg.IsConfigured() {
				notifier, err := messengerCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to configure messenger client")
				}
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Notification delivery enabled")
			} else {
				logging.Default().Info("Slack bot token not configured, notifications will be logged only")
			}

			uc := usecase.New(repo, portalSvc, types.Secret(webhookToken), ucOpts...)

			// Preset mappings go through Sync, so they never override
			// fresher entries already in the store
			usernameSeeds, threadSeeds, err := seedsCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load seed mappings")
			}
			if _, err := uc.ApplySeeds(ctx, usernameSeeds, threadSeeds); err != nil {
				return goerr.Wrap(err, "failed to apply seed mappings")
			}

			reconcileWorker := worker.NewReconcileWorker(uc, reconcileInterval)
			if err := reconcileWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start reconcile worker")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				reconcileWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
