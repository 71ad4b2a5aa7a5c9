package scheduler

import (
	"context"
	"fmt"
	"time"
)

// newLedgerMaintenanceTask creates the scheduled task that compacts the
// run-history database.
func newLedgerMaintenanceTask(deps TaskDeps) TaskFunc {
	log := deps.Logger.With("task", "ledger_maintenance")

	return func(ctx context.Context) error {
		if deps.Ledger == nil {
			return fmt.Errorf("run ledger is not available")
		}

		log.InfoContext(ctx, "Starting ledger maintenance")
		start := time.Now()

		if err := deps.Ledger.Maintenance(ctx); err != nil {
			log.ErrorContext(ctx, "Ledger maintenance failed",
				"error", err, "duration", time.Since(start))
			return fmt.Errorf("ledger maintenance: %w", err)
		}

		log.InfoContext(ctx, "Ledger maintenance completed", "duration", time.Since(start))
		return nil
	}
}
