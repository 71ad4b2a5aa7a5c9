package scheduler

import (
	"context"
	"log/slog"

	"github.com/sankethshetty99/discord-archiver/internal/archive"
	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/ledger"
)

// TaskFunc is the signature every scheduled task implements. The context
// comes from the scheduler and should be honored for cancellation.
type TaskFunc func(ctx context.Context) error

// TaskDeps carries the collaborators scheduled tasks draw on.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   config.Config
	Archiver *archive.Service
	Ledger   ledger.Store
}

// RegisterAll builds the task registry. Map keys match the task names used
// in the schedule section of the configuration.
func RegisterAll(deps TaskDeps) map[string]TaskFunc {
	tasks := map[string]TaskFunc{
		"archive":            newArchiveTask(deps),
		"ledger_maintenance": newLedgerMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
