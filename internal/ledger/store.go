package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	defaultRunsLimit = 10
	maxRunsLimit     = 100
)

// Store defines the ledger's data access operations.
type Store interface {
	// CreateRun opens a ledger entry for an archiving invocation and
	// returns its id.
	CreateRun(ctx context.Context, guildID, guildName string, channelsTotal int) (uint, error)

	// RecordResult appends one channel outcome to a run.
	RecordResult(ctx context.Context, result *RunResult) error

	// FinishRun stamps a run as complete.
	FinishRun(ctx context.Context, runID uint) error

	// RecentRuns returns the most recent runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]Run, error)

	// RunResults returns every channel outcome recorded for a run, in
	// recording order.
	RunResults(ctx context.Context, runID uint) ([]RunResult, error)

	// Maintenance compacts the underlying database file.
	Maintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx. A nil logger discards output.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "ledger_store"),
	}
}

func (s *sqlxStore) CreateRun(ctx context.Context, guildID, guildName string, channelsTotal int) (uint, error) {
	if guildID == "" {
		return 0, fmt.Errorf("run must have a guild id")
	}

	run := &Run{
		GuildID:       guildID,
		GuildName:     guildName,
		ChannelsTotal: channelsTotal,
		StartedAt:     time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for run", "guild_id", guildID, "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := `
        INSERT INTO runs (guild_id, guild_name, channels_total, started_at)
        VALUES (:guild_id, :guild_name, :channels_total, :started_at);
    `
	result, err := tx.NamedExecContext(ctx, query, run)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating run", "guild_id", guildID, "error", err)
		return 0, fmt.Errorf("failed to create run for guild %s: %w", guildID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new run id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "guild_id", guildID, "error", err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Run created", "run_id", id, "guild_id", guildID, "channels", channelsTotal)
	return uint(id), nil
}

func (s *sqlxStore) RecordResult(ctx context.Context, result *RunResult) error {
	if result == nil {
		return fmt.Errorf("cannot record nil result")
	}
	if result.RunID == 0 {
		return fmt.Errorf("result must belong to a run")
	}
	if result.ChannelID == "" {
		return fmt.Errorf("result must have a channel id")
	}
	if result.Status == "" {
		return fmt.Errorf("result must have a status")
	}

	result.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO run_results (run_id, channel_id, channel_name, category, status, detail, created_at)
        VALUES (:run_id, :channel_id, :channel_name, :category, :status, :detail, :created_at);
    `
	res, err := s.db.NamedExecContext(ctx, query, result)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording result",
			"run_id", result.RunID, "channel_id", result.ChannelID, "error", err)
		return fmt.Errorf("failed to record result for channel %s: %w", result.ChannelID, err)
	}

	if id, err := res.LastInsertId(); err == nil {
		result.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Result recorded",
		"run_id", result.RunID, "channel_id", result.ChannelID, "status", result.Status)
	return nil
}

func (s *sqlxStore) FinishRun(ctx context.Context, runID uint) error {
	if runID == 0 {
		return fmt.Errorf("run id cannot be zero")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`, time.Now().UTC(), runID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error finishing run", "run_id", runID, "error", err)
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when finishing run",
			"run_id", runID, "affected", affected)
	}
	return nil
}

func (s *sqlxStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	} else if limit > maxRunsLimit {
		limit = maxRunsLimit
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var runs []Run
	query := `
        SELECT id, guild_id, guild_name, channels_total, started_at, finished_at
        FROM runs
        ORDER BY started_at DESC, id DESC
        LIMIT ?;
    `
	err := s.db.SelectContext(ctx, &runs, query, limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing runs", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (s *sqlxStore) RunResults(ctx context.Context, runID uint) ([]RunResult, error) {
	if runID == 0 {
		return nil, fmt.Errorf("run id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var results []RunResult
	query := `
        SELECT id, run_id, channel_id, channel_name, category, status, detail, created_at
        FROM run_results
        WHERE run_id = ?
        ORDER BY id ASC;
    `
	err := s.db.SelectContext(ctx, &results, query, runID)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing run results", "run_id", runID, "error", err)
		return nil, fmt.Errorf("failed to list results for run %d: %w", runID, err)
	}
	return results, nil
}

// Maintenance executes VACUUM, which SQLite requires to run outside a
// transaction.
func (s *sqlxStore) Maintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting ledger maintenance (VACUUM)")
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Ledger maintenance timed out or was cancelled", "error", err)
		return fmt.Errorf("ledger maintenance timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Ledger maintenance failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Ledger maintenance completed")
	return nil
}
