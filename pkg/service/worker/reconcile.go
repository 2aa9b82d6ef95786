package worker

import (
	"context"
	"time"

	"github.com/taskbridge-dev/taskbridge/pkg/usecase"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// ReconcileWorker periodically reconciles identity mappings against
// the portal's user directory.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type ReconcileWorker struct {
	uc       *usecase.UseCases
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReconcileWorker creates a worker that reconciles mappings every
// interval.
func NewReconcileWorker(uc *usecase.UseCases, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		uc:       uc,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background reconcile loop. It does not block server
// startup; the initial pass runs inside the loop goroutine.
func (w *ReconcileWorker) Start(ctx context.Context) error {
	logging.Default().Info("mapping reconcile worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ReconcileWorker) Stop() {
	logging.Default().Info("mapping reconcile worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("mapping reconcile worker stopped")
}

func (w *ReconcileWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.reconcile(ctx); err != nil {
		logging.Default().Error("initial mapping reconcile failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.reconcile(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("mapping reconcile failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("mapping reconcile worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("mapping reconcile worker context cancelled")
			return
		}
	}
}

func (w *ReconcileWorker) reconcile(ctx context.Context) error {
	startTime := time.Now()

	report, err := w.uc.Reconcile(ctx)
	if err != nil {
		return err
	}

	logging.Default().Info("mapping reconcile completed",
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"duration", time.Since(startTime).String())

	return nil
}
