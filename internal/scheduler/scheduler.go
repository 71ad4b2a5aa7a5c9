// Package scheduler runs the watch-mode cron tasks: recurring archive
// passes and ledger upkeep, driven by the schedule section of the
// configuration.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/sankethshetty99/discord-archiver/internal/config"
)

// Scheduler manages the configured cron tasks on a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	log       *slog.Logger
	cfg       config.ScheduleConfig
	taskMap   map[string]TaskFunc
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler over the given task registry. Tasks are
// not scheduled until Start.
func NewScheduler(log *slog.Logger, cfg config.ScheduleConfig, taskMap map[string]TaskFunc) (*Scheduler, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("component", "scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogger{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		log:       log,
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start registers every enabled task with its cron expression and begins
// ticking. Tasks that are disabled, unknown, or missing a schedule are
// skipped with a log line rather than failing the whole watch.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	for taskName, taskCfg := range s.cfg.Tasks {
		if !taskCfg.Enabled {
			s.log.Info("Skipping disabled task", "task_name", taskName)
			continue
		}

		taskFunc, ok := s.taskMap[taskName]
		if !ok {
			s.log.Warn("Task configured but not registered, skipping", "task_name", taskName)
			continue
		}

		if taskCfg.Schedule == "" {
			s.log.Warn("Task enabled but has no schedule, skipping", "task_name", taskName)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(taskCfg.Schedule, true),
			gocron.NewTask(
				func(ctx context.Context, name string) {
					s.log.Info("Running scheduled task", "task_name", name)
					start := time.Now()
					if taskErr := taskFunc(ctx); taskErr != nil {
						s.log.Error("Scheduled task failed", "task_name", name, "error", taskErr)
					}
					s.log.Info("Finished scheduled task", "task_name", name, "duration", time.Since(start))
				},
				context.Background(),
				taskName,
			),
			gocron.WithName(taskName),
		)
		if err != nil {
			s.log.Error("Failed to schedule task",
				"task_name", taskName, "schedule", taskCfg.Schedule, "error", err)
			continue
		}

		s.log.Info("Scheduled task", "task_name", taskName, "schedule", taskCfg.Schedule)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.log.Info("Scheduler started", "tasks_scheduled", scheduled)

	return nil
}

// Stop shuts the scheduler down, waiting for running tasks to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}

	s.log.Info("Scheduler stopped")
	return nil
}
